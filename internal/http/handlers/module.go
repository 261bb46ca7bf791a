package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/techlearn-backend/internal/http/response"
	"github.com/yungbote/techlearn-backend/internal/platform/apierr"
	"github.com/yungbote/techlearn-backend/internal/services"
)

type ModuleHandler struct {
	moduleService services.ModuleService
}

func NewModuleHandler(moduleService services.ModuleService) *ModuleHandler {
	return &ModuleHandler{moduleService: moduleService}
}

func (mh *ModuleHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	published, ok := queryBool(c, "published")
	if !ok {
		return
	}
	rows, err := mh.moduleService.List(c.Request.Context(), p, published)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, rows)
}

func (mh *ModuleHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := mh.moduleService.Get(c.Request.Context(), p, id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, detail)
}

func (mh *ModuleHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req services.CreateModuleInput
	if !bindJSON(c, &req) {
		return
	}
	m, err := mh.moduleService.Create(c.Request.Context(), p, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"message":  "Module created successfully",
		"moduleId": m.ID,
		"module":   m,
	})
}

func (mh *ModuleHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateModuleInput
	if !bindJSON(c, &req) {
		return
	}
	m, err := mh.moduleService.Update(c.Request.Context(), p, id, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Module updated successfully", "module": m})
}

func (mh *ModuleHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := mh.moduleService.Delete(c.Request.Context(), p, id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Module deleted successfully"})
}

func (mh *ModuleHandler) SetPublished(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		IsPublished *bool `json:"isPublished"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.IsPublished == nil {
		response.RespondError(c, apierr.Validation("isPublished is required"))
		return
	}
	m, err := mh.moduleService.SetPublished(c.Request.Context(), p, id, *req.IsPublished)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	msg := "Module unpublished successfully"
	if m.IsPublished {
		msg = "Module published successfully"
	}
	response.RespondOK(c, gin.H{"message": msg, "module": m})
}

func (mh *ModuleHandler) AddQuestion(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	moduleID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.QuestionInput
	if !bindJSON(c, &req) {
		return
	}
	q, err := mh.moduleService.AddQuestion(c.Request.Context(), p, moduleID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, q)
}

func (mh *ModuleHandler) UpdateQuestion(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateQuestionInput
	if !bindJSON(c, &req) {
		return
	}
	q, err := mh.moduleService.UpdateQuestion(c.Request.Context(), p, id, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, q)
}

func (mh *ModuleHandler) DeleteQuestion(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := mh.moduleService.DeleteQuestion(c.Request.Context(), p, id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Question deleted successfully"})
}
