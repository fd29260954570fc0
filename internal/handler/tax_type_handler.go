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

type TaxTypeHandler struct {
	taxTypeService service.TaxTypeService
}

func NewTaxTypeHandler(taxTypeService service.TaxTypeService) *TaxTypeHandler {
	return &TaxTypeHandler{taxTypeService: taxTypeService}
}

func (h *TaxTypeHandler) RegisterRoutes(router *gin.RouterGroup) {
	types := router.Group("/tax-types")
	{
		// Reading types is open to every authenticated user
		types.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleUser), h.ListTaxTypes)
		types.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleUser), h.GetTaxType)

		// Mutations are admin-only
		types.POST("", middleware.RequireRole(model.RoleAdmin), h.CreateTaxType)
		types.PUT("/:id", middleware.RequireRole(model.RoleAdmin), h.UpdateTaxType)
		types.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteTaxType)
	}
}

// CreateTaxType creates a tax type and classifies its workflow category
// @Summary      Create tax type
// @Description  Creates a tax type. Category defaults from the name (acquisition tax names require accountant review) and can be overridden explicitly.
// @Tags         tax-types
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTaxTypeRequest  true  "Create Tax Type Payload"
// @Success      201      {object}  response.Response{data=service.TaxTypeResponse}
// @Failure      400      {object}  response.Response
// @Router       /tax-types [post]
func (h *TaxTypeHandler) CreateTaxType(c *gin.Context) {
	var req service.CreateTaxTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	taxType, err := h.taxTypeService.CreateTaxType(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, taxType))
}

// ListTaxTypes returns all tax types
// @Summary      List tax types
// @Tags         tax-types
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.TaxTypeResponse}
// @Failure      500  {object}  response.Response
// @Router       /tax-types [get]
func (h *TaxTypeHandler) ListTaxTypes(c *gin.Context) {
	types, err := h.taxTypeService.ListTaxTypes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch tax types"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, types))
}

// GetTaxType fetches a single tax type
// @Summary      Get tax type
// @Tags         tax-types
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tax Type ID"
// @Success      200  {object}  response.Response{data=service.TaxTypeResponse}
// @Failure      404  {object}  response.Response
// @Router       /tax-types/{id} [get]
func (h *TaxTypeHandler) GetTaxType(c *gin.Context) {
	taxType, err := h.taxTypeService.GetTaxType(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTaxTypeNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, taxType))
}

// UpdateTaxType updates a tax type and re-derives its category
// @Summary      Update tax type
// @Tags         tax-types
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Tax Type ID"
// @Param        payload  body      service.UpdateTaxTypeRequest  true  "Update Tax Type Payload"
// @Success      200      {object}  response.Response{data=service.TaxTypeResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /tax-types/{id} [put]
func (h *TaxTypeHandler) UpdateTaxType(c *gin.Context) {
	var req service.UpdateTaxTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	taxType, err := h.taxTypeService.UpdateTaxType(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrTaxTypeNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, taxType))
}

// DeleteTaxType removes a tax type unless tax records still reference it
// @Summary      Delete tax type
// @Tags         tax-types
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tax Type ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /tax-types/{id} [delete]
func (h *TaxTypeHandler) DeleteTaxType(c *gin.Context) {
	if err := h.taxTypeService.DeleteTaxType(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		switch {
		case errors.Is(err, service.ErrTaxTypeNotFound):
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		case errors.Is(err, service.ErrTaxTypeInUse):
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
		default:
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Tax type deleted successfully"))
}
