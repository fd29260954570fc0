package handler

import (
	"errors"
	"net/http"

	"taxmanager/internal/middleware"
	"taxmanager/internal/model"
	"taxmanager/internal/service"
	"taxmanager/pkg/pagination"
	"taxmanager/pkg/response"

	"github.com/gin-gonic/gin"
)

type StationHandler struct {
	stationService service.StationService
}

func NewStationHandler(stationService service.StationService) *StationHandler {
	return &StationHandler{stationService: stationService}
}

func (h *StationHandler) RegisterRoutes(router *gin.RouterGroup) {
	stations := router.Group("/charge-stations")
	stations.Use(middleware.RequireRole(model.RoleAdmin, model.RoleUser))
	{
		stations.GET("", h.ListStations)
		stations.GET("/:id", h.GetStation)
		stations.POST("", h.CreateStation)
		stations.PUT("/:id", h.UpdateStation)
		stations.DELETE("/:id", h.DeleteStation)
	}
}

// CreateStation registers a charge station owned by the caller
// @Summary      Create charge station
// @Tags         charge-stations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateStationRequest  true  "Create Station Payload"
// @Success      201      {object}  response.Response{data=service.StationResponse}
// @Failure      400      {object}  response.Response
// @Router       /charge-stations [post]
func (h *StationHandler) CreateStation(c *gin.Context) {
	var req service.CreateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	station, err := h.stationService.CreateStation(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, station))
}

// ListStations returns the caller's stations, or all stations for admins
// @Summary      List charge stations
// @Tags         charge-stations
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=response.Page}
// @Failure      500    {object}  response.Response
// @Router       /charge-stations [get]
func (h *StationHandler) ListStations(c *gin.Context) {
	params := pagination.Parse(c)

	stations, total, err := h.stationService.ListStations(c.Request.Context(), scopeUserID(c), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch charge stations"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated(stations, total, params.Page, params.Limit)))
}

// GetStation fetches a single charge station
// @Summary      Get charge station
// @Tags         charge-stations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Station ID"
// @Success      200  {object}  response.Response{data=service.StationResponse}
// @Failure      404  {object}  response.Response
// @Router       /charge-stations/{id} [get]
func (h *StationHandler) GetStation(c *gin.Context) {
	station, err := h.stationService.GetStation(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrStationNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, station))
}

// UpdateStation updates name, location, and operating status
// @Summary      Update charge station
// @Tags         charge-stations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Station ID"
// @Param        payload  body      service.UpdateStationRequest  true  "Update Station Payload"
// @Success      200      {object}  response.Response{data=service.StationResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /charge-stations/{id} [put]
func (h *StationHandler) UpdateStation(c *gin.Context) {
	var req service.UpdateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	station, err := h.stationService.UpdateStation(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrStationNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, station))
}

// DeleteStation removes a charge station
// @Summary      Delete charge station
// @Tags         charge-stations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Station ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /charge-stations/{id} [delete]
func (h *StationHandler) DeleteStation(c *gin.Context) {
	if err := h.stationService.DeleteStation(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		if errors.Is(err, service.ErrStationNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Charge station deleted successfully"))
}
