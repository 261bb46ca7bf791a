package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/techlearn-backend/internal/http/response"
	"github.com/yungbote/techlearn-backend/internal/services"
)

type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (ah *AnalyticsHandler) Organization(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	out, err := ah.analyticsService.Organization(c.Request.Context(), p)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (ah *AnalyticsHandler) Users(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	out, err := ah.analyticsService.Users(c.Request.Context(), p)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (ah *AnalyticsHandler) Module(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	moduleID, ok := pathID(c, "id")
	if !ok {
		return
	}
	out, err := ah.analyticsService.Module(c.Request.Context(), p, moduleID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (ah *AnalyticsHandler) Leaderboard(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	period, err := services.ParsePeriod(c.Query("period"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	out, err := ah.analyticsService.Leaderboard(c.Request.Context(), p, period)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}
