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

type ReminderHandler struct {
	reminderService service.ReminderService
}

func NewReminderHandler(reminderService service.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminderService: reminderService}
}

func (h *ReminderHandler) RegisterRoutes(router *gin.RouterGroup) {
	reminders := router.Group("/reminders")
	reminders.Use(middleware.RequireRole(model.RoleAdmin, model.RoleUser))
	{
		reminders.GET("", h.ListReminders)
		reminders.GET("/available-taxes", h.ListAvailableTaxes)
		reminders.GET("/:id", h.GetReminder)
		reminders.POST("", h.CreateReminder)
		reminders.POST("/auto", h.AutoCreateReminders)
		reminders.PUT("/:id", h.UpdateReminder)
		reminders.PATCH("/:id/dismiss", h.DismissReminder)
		reminders.DELETE("/:id", h.DeleteReminder)
	}
}

// CreateReminder creates a manual reminder for the caller
// @Summary      Create reminder
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateReminderRequest  true  "Create Reminder Payload"
// @Success      201      {object}  response.Response{data=service.ReminderResponse}
// @Failure      400      {object}  response.Response
// @Router       /reminders [post]
func (h *ReminderHandler) CreateReminder(c *gin.Context) {
	var req service.CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	reminder, err := h.reminderService.CreateReminder(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrTaxNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, reminder))
}

// ListReminders returns the caller's reminders, optionally filtered by status
// @Summary      List reminders
// @Tags         reminders
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by reminder status (active, sent, dismissed)"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.Page}
// @Failure      500     {object}  response.Response
// @Router       /reminders [get]
func (h *ReminderHandler) ListReminders(c *gin.Context) {
	params := pagination.Parse(c)

	reminders, total, err := h.reminderService.ListReminders(c.Request.Context(), currentUserID(c), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch reminders"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated(reminders, total, params.Page, params.Limit)))
}

// ListAvailableTaxes lists pending taxes that can still get a reminder
// @Summary      List reminder candidates
// @Description  Returns pending, not yet due taxes that have no reminder attached.
// @Tags         reminders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.ReminderTaxInfo}
// @Failure      500  {object}  response.Response
// @Router       /reminders/available-taxes [get]
func (h *ReminderHandler) ListAvailableTaxes(c *gin.Context) {
	taxes, err := h.reminderService.ListAvailableTaxes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch candidate taxes"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, taxes))
}

// GetReminder fetches one of the caller's reminders
// @Summary      Get reminder
// @Tags         reminders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Reminder ID"
// @Success      200  {object}  response.Response{data=service.ReminderResponse}
// @Failure      404  {object}  response.Response
// @Router       /reminders/{id} [get]
func (h *ReminderHandler) GetReminder(c *gin.Context) {
	reminder, err := h.reminderService.GetReminder(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrReminderNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, reminder))
}

// UpdateReminder edits one of the caller's reminders
// @Summary      Update reminder
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Reminder ID"
// @Param        payload  body      service.UpdateReminderRequest  true  "Update Reminder Payload"
// @Success      200      {object}  response.Response{data=service.ReminderResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /reminders/{id} [put]
func (h *ReminderHandler) UpdateReminder(c *gin.Context) {
	var req service.UpdateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	reminder, err := h.reminderService.UpdateReminder(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrReminderNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, reminder))
}

// DismissReminder marks a reminder as dismissed
// @Summary      Dismiss reminder
// @Tags         reminders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Reminder ID"
// @Success      200  {object}  response.Response{data=service.ReminderResponse}
// @Failure      404  {object}  response.Response
// @Router       /reminders/{id}/dismiss [patch]
func (h *ReminderHandler) DismissReminder(c *gin.Context) {
	reminder, err := h.reminderService.DismissReminder(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrReminderNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, reminder))
}

// DeleteReminder removes one of the caller's reminders
// @Summary      Delete reminder
// @Tags         reminders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Reminder ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /reminders/{id} [delete]
func (h *ReminderHandler) DeleteReminder(c *gin.Context) {
	if err := h.reminderService.DeleteReminder(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		if errors.Is(err, service.ErrReminderNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Reminder deleted successfully"))
}

// AutoCreateReminders schedules reminders ahead of due dates for selected taxes
// @Summary      Auto-create reminders
// @Description  Creates one reminder per selected pending tax, a configurable number of days before each due date. Taxes that already have a reminder are skipped.
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.AutoCreateRemindersRequest  true  "Auto Create Payload"
// @Success      201      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Router       /reminders/auto [post]
func (h *ReminderHandler) AutoCreateReminders(c *gin.Context) {
	var req service.AutoCreateRemindersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	created, err := h.reminderService.AutoCreateReminders(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{"created": created}))
}
