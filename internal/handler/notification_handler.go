package handler

import (
	"errors"
	"net/http"

	"taxmanager/internal/middleware"
	"taxmanager/internal/model"
	"taxmanager/internal/service"
	"taxmanager/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications")
	notifications.Use(middleware.RequireRole(model.RoleAdmin))
	{
		notifications.POST("/taxes/:id", h.SendTaxReminder)
		notifications.POST("/taxes", h.SendBulkTaxReminders)
		notifications.POST("/overdue", h.SendOverdueReminders)
	}
}

// SendTaxReminder emails a payment notice for one tax to its station owner
// @Summary      Send tax reminder email
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tax ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      502  {object}  response.Response
// @Router       /notifications/taxes/{id} [post]
func (h *NotificationHandler) SendTaxReminder(c *gin.Context) {
	err := h.notificationService.SendTaxReminder(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaxNotFound):
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		case errors.Is(err, service.ErrOwnerEmailMissing):
			c.JSON(http.StatusUnprocessableEntity, response.Error(http.StatusUnprocessableEntity, err.Error()))
		default:
			c.JSON(http.StatusBadGateway, response.Error(http.StatusBadGateway, err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Reminder email sent"))
}

// SendBulkTaxReminders emails payment notices for a list of taxes
// @Summary      Send bulk tax reminder emails
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      object{tax_ids=[]string}  true  "Tax IDs"
// @Success      200      {object}  response.Response{data=service.SendResultResponse}
// @Failure      400      {object}  response.Response
// @Router       /notifications/taxes [post]
func (h *NotificationHandler) SendBulkTaxReminders(c *gin.Context) {
	var req struct {
		TaxIDs []string `json:"tax_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.notificationService.SendBulkTaxReminders(c.Request.Context(), req.TaxIDs, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// SendOverdueReminders emails overdue notices for every unpaid past-due tax
// @Summary      Send overdue reminder emails
// @Description  Finds every unpaid tax whose due date has passed and emails an overdue notice to its station owner.
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.SendResultResponse}
// @Failure      500  {object}  response.Response
// @Router       /notifications/overdue [post]
func (h *NotificationHandler) SendOverdueReminders(c *gin.Context) {
	result, err := h.notificationService.SendOverdueReminders(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
