package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/techlearn-backend/internal/http/response"
	"github.com/yungbote/techlearn-backend/internal/services"
)

type LearningHandler struct {
	learningService     services.LearningService
	gamificationService services.GamificationService
}

func NewLearningHandler(learningService services.LearningService, gamificationService services.GamificationService) *LearningHandler {
	return &LearningHandler{learningService: learningService, gamificationService: gamificationService}
}

func (lh *LearningHandler) Dashboard(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	dash, err := lh.learningService.Dashboard(c.Request.Context(), p)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, dash)
}

func (lh *LearningHandler) Start(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	moduleID, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := lh.learningService.Start(c.Request.Context(), p, moduleID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (lh *LearningHandler) RecordProgress(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	progressID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.RecordProgressInput
	if !bindJSON(c, &req) {
		return
	}
	progress, err := lh.learningService.RecordProgress(c.Request.Context(), p, progressID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Progress updated", "progress": progress})
}

func (lh *LearningHandler) SubmitAssessment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	moduleID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.SubmitInput
	if !bindJSON(c, &req) {
		return
	}
	out, err := lh.learningService.SubmitAssessment(c.Request.Context(), p, moduleID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (lh *LearningHandler) AssessmentHistory(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	moduleID, ok := pathID(c, "id")
	if !ok {
		return
	}
	results, err := lh.learningService.AssessmentHistory(c.Request.Context(), p, moduleID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, results)
}

func (lh *LearningHandler) Achievements(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	out, err := lh.gamificationService.Achievements(c.Request.Context(), p)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}
