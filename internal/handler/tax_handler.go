package handler

import (
	"errors"
	"net/http"

	"taxmanager/internal/middleware"
	"taxmanager/internal/model"
	"taxmanager/internal/service"
	"taxmanager/internal/workflow"
	"taxmanager/pkg/pagination"
	"taxmanager/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaxHandler struct {
	taxService service.TaxService
}

func NewTaxHandler(taxService service.TaxService) *TaxHandler {
	return &TaxHandler{taxService: taxService}
}

func (h *TaxHandler) RegisterRoutes(router *gin.RouterGroup) {
	taxes := router.Group("/taxes")
	{
		taxes.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleUser), h.ListTaxes)
		taxes.GET("/statuses", middleware.RequireRole(model.RoleAdmin, model.RoleUser), h.GetAvailableStatuses)
		taxes.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleUser), h.GetTax)
		taxes.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleUser), h.CreateTax)
		taxes.PUT("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleUser), h.UpdateTax)
		taxes.DELETE("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleUser), h.DeleteTax)

		// Status transitions drive the payment workflow and are admin-only;
		// regular users get the read-side workflow view.
		taxes.PATCH("/:id/status", middleware.RequireRole(model.RoleAdmin), h.TransitionStatus)
		taxes.POST("/:id/advance", middleware.RequireRole(model.RoleAdmin), h.AdvanceStatus)
	}
}

// CreateTax registers a tax obligation in its category's starting status
// @Summary      Create tax record
// @Description  Creates a tax obligation. Acquisition-category taxes start in accountant_review, everything else in pending.
// @Tags         taxes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTaxRequest  true  "Create Tax Payload"
// @Success      201      {object}  response.Response{data=service.TaxResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /taxes [post]
func (h *TaxHandler) CreateTax(c *gin.Context) {
	var req service.CreateTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tax, err := h.taxService.CreateTax(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrStationNotFound) || errors.Is(err, service.ErrTaxTypeNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tax))
}

// ListTaxes returns taxes filtered by station, type, and status
// @Summary      List tax records
// @Tags         taxes
// @Produce      json
// @Security     BearerAuth
// @Param        charge_station_id  query     string  false  "Filter by charge station"
// @Param        tax_type_id        query     string  false  "Filter by tax type"
// @Param        status             query     string  false  "Filter by stored status"
// @Param        page               query     int     false  "Page number (default 1)"
// @Param        limit              query     int     false  "Number of items per page (default 20)"
// @Success      200                {object}  response.Response{data=response.Page}
// @Failure      500                {object}  response.Response
// @Router       /taxes [get]
func (h *TaxHandler) ListTaxes(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.TaxListFilter{
		UserID:          scopeUserID(c),
		ChargeStationID: c.Query("charge_station_id"),
		TaxTypeID:       c.Query("tax_type_id"),
		Status:          c.Query("status"),
		Page:            params.Page,
		Limit:           params.Limit,
	}

	taxes, total, err := h.taxService.ListTaxes(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch taxes"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated(taxes, total, params.Page, params.Limit)))
}

// GetAvailableStatuses lists the stored statuses a category can reach
// @Summary      List available statuses
// @Description  Returns the reachable stored statuses for a workflow category with their Korean labels.
// @Tags         taxes
// @Produce      json
// @Security     BearerAuth
// @Param        category  query     string  false  "Workflow category (acquisition or standard, default standard)"
// @Success      200       {object}  response.Response{data=object}
// @Router       /taxes/statuses [get]
func (h *TaxHandler) GetAvailableStatuses(c *gin.Context) {
	category := workflow.Category(c.DefaultQuery("category", string(workflow.CategoryStandard)))
	if category != workflow.CategoryAcquisition && category != workflow.CategoryStandard {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid category"))
		return
	}

	statuses := workflow.AvailableStatuses(category)
	items := make([]gin.H, 0, len(statuses))
	for _, s := range statuses {
		items = append(items, gin.H{
			"status": string(s),
			"label":  workflow.StatusLabel(s),
		})
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// GetTax fetches a tax with its workflow view (display status, next step, legal targets)
// @Summary      Get tax record
// @Tags         taxes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tax ID"
// @Success      200  {object}  response.Response{data=service.TaxResponse}
// @Failure      404  {object}  response.Response
// @Router       /taxes/{id} [get]
func (h *TaxHandler) GetTax(c *gin.Context) {
	tax, err := h.taxService.GetTax(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTaxNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tax))
}

// UpdateTax edits amount, due date, and description. Status is untouchable here.
// @Summary      Update tax record
// @Description  Updates the editable fields of a tax record. Status changes must go through the status endpoints.
// @Tags         taxes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Tax ID"
// @Param        payload  body      service.UpdateTaxRequest  true  "Update Tax Payload"
// @Success      200      {object}  response.Response{data=service.TaxResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /taxes/{id} [put]
func (h *TaxHandler) UpdateTax(c *gin.Context) {
	var req service.UpdateTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tax, err := h.taxService.UpdateTax(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrTaxNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tax))
}

// DeleteTax removes a tax record
// @Summary      Delete tax record
// @Tags         taxes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tax ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /taxes/{id} [delete]
func (h *TaxHandler) DeleteTax(c *gin.Context) {
	if err := h.taxService.DeleteTax(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		if errors.Is(err, service.ErrTaxNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Tax deleted successfully"))
}

// TransitionStatus moves a tax to a requested status when the workflow allows it
// @Summary      Transition tax status
// @Description  Applies a requested status change. Illegal transitions are rejected, and concurrent changes surface as a conflict.
// @Tags         taxes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Tax ID"
// @Param        payload  body      service.TransitionTaxRequest  true  "Target Status"
// @Success      200      {object}  response.Response{data=service.TaxResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /taxes/{id}/status [patch]
func (h *TaxHandler) TransitionStatus(c *gin.Context) {
	var req service.TransitionTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tax, err := h.taxService.TransitionStatus(c.Request.Context(), c.Param("id"), workflow.Status(req.Status), currentUserID(c))
	if err != nil {
		h.writeTransitionError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tax))
}

// AdvanceStatus applies the canonical next forward step for the tax's category
// @Summary      Advance tax status
// @Description  Moves a tax one step forward in its workflow (review to pending, or pending to completed).
// @Tags         taxes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tax ID"
// @Success      200  {object}  response.Response{data=service.TaxResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /taxes/{id}/advance [post]
func (h *TaxHandler) AdvanceStatus(c *gin.Context) {
	tax, err := h.taxService.AdvanceStatus(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		h.writeTransitionError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tax))
}

func (h *TaxHandler) writeTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTaxNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrStatusConflict):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case errors.Is(err, service.ErrTransitionNotAllowed), errors.Is(err, service.ErrNoForwardStep):
		c.JSON(http.StatusUnprocessableEntity, response.Error(http.StatusUnprocessableEntity, err.Error()))
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	}
}
