package handler

import (
	"net/http"

	"taxmanager/internal/middleware"
	"taxmanager/internal/model"
	"taxmanager/internal/service"
	"taxmanager/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/statistics", middleware.RequireRole(model.RoleAdmin, model.RoleUser), h.GetStatistics)
}

// GetStatistics returns the dashboard aggregates
// @Summary      Get tax statistics
// @Description  Returns totals, paid/unpaid/overdue breakdowns, monthly sums, and per-type and per-station aggregates. Non-admins see only their own stations.
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.StatisticsResponse}
// @Failure      500  {object}  response.Response
// @Router       /statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	stats, err := h.statisticsService.GetStatistics(c.Request.Context(), scopeUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to compute statistics"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
