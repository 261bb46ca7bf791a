package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	contentrepo "github.com/yungbote/techlearn-backend/internal/data/repos/content"
	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/http/response"
	"github.com/yungbote/techlearn-backend/internal/platform/apierr"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
	"github.com/yungbote/techlearn-backend/internal/services"
)

type ContentHandler struct {
	log            *logger.Logger
	contentService services.ContentService
}

func NewContentHandler(log *logger.Logger, contentService services.ContentService) *ContentHandler {
	return &ContentHandler{log: log.With("handler", "ContentHandler"), contentService: contentService}
}

// Upload accepts a multipart form with a "file" part plus optional title and
// description fields. Extraction continues after the response is sent.
func (ch *ContentHandler) Upload(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.RespondError(c, apierr.Validation("file exceeds the upload limit"))
			return
		}
		response.RespondError(c, apierr.Validation("no file uploaded"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, apierr.Internal(err))
		return
	}
	defer f.Close()

	item, _, err := ch.contentService.Upload(c.Request.Context(), p, services.UploadInput{
		Title:        c.PostForm("title"),
		Description:  c.PostForm("description"),
		File:         f,
		Size:         fh.Size,
		MimeType:     fh.Header.Get("Content-Type"),
		OriginalName: fh.Filename,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"message":   "Content uploaded successfully",
		"contentId": item.ID,
		"status":    item.Status,
		"content":   item,
	})
}

func (ch *ContentHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	items, err := ch.contentService.List(c.Request.Context(), p, contentrepo.ListFilter{
		Status:      types.ContentStatus(c.Query("status")),
		ContentType: types.ContentKind(c.Query("type")),
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, items)
}

func (ch *ContentHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := ch.contentService.Get(c.Request.Context(), p, id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, item)
}

func (ch *ContentHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateContentInput
	if !bindJSON(c, &req) {
		return
	}
	item, err := ch.contentService.Update(c.Request.Context(), p, id, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Content updated successfully", "content": item})
}

func (ch *ContentHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := ch.contentService.Delete(c.Request.Context(), p, id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Content deleted successfully"})
}
