package service

import (
	"context"
	"errors"
	"fmt"

	"taxmanager/internal/model"
	"taxmanager/internal/repository"
	"taxmanager/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateTaxTypeRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Rate        string `json:"rate"` // decimal fraction string, e.g. "0.10"
	// Category overrides the name-derived classification when set.
	Category string `json:"category" binding:"omitempty,oneof=acquisition standard"`
}

type UpdateTaxTypeRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Rate        string `json:"rate"`
	Category    string `json:"category" binding:"omitempty,oneof=acquisition standard"`
}

type TaxTypeResponse struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	Description              string `json:"description"`
	Rate                     string `json:"rate"`
	Category                 string `json:"category"`
	RequiresAccountantReview bool   `json:"requires_accountant_review"`
	CreatedAt                string `json:"created_at"`
}

var (
	ErrTaxTypeNotFound = errors.New("tax type not found")
	ErrTaxTypeInUse    = errors.New("tax type is referenced by existing tax records")
)

// --- Interface ---

type TaxTypeService interface {
	CreateTaxType(ctx context.Context, req CreateTaxTypeRequest, userID string) (TaxTypeResponse, error)
	GetTaxType(ctx context.Context, id string) (TaxTypeResponse, error)
	ListTaxTypes(ctx context.Context) ([]TaxTypeResponse, error)
	UpdateTaxType(ctx context.Context, id string, req UpdateTaxTypeRequest, userID string) (TaxTypeResponse, error)
	DeleteTaxType(ctx context.Context, id string, userID string) error
}

type taxTypeService struct {
	repo  repository.TaxTypeRepository
	audit AuditService
}

func NewTaxTypeService(repo repository.TaxTypeRepository, audit AuditService) TaxTypeService {
	return &taxTypeService{repo: repo, audit: audit}
}

func toTaxTypeResponse(t model.TaxType) TaxTypeResponse {
	return TaxTypeResponse{
		ID:                       t.ID.String(),
		Name:                     t.Name,
		Description:              t.Description,
		Rate:                     t.Rate.StringFixed(4),
		Category:                 string(t.Category),
		RequiresAccountantReview: t.Category.RequiresAccountantReview(),
		CreatedAt:                t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// resolveCategory uses the explicit override when given, otherwise derives
// the category from the name. Must run on every name change.
func resolveCategory(name, override string) workflow.Category {
	if override != "" {
		return workflow.Category(override)
	}
	return workflow.CategoryFromName(name)
}

func parseRate(rateStr string) (decimal.Decimal, error) {
	if rateStr == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate value: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, errors.New("rate must be a fraction between 0 and 1")
	}
	return rate, nil
}

func (s *taxTypeService) CreateTaxType(ctx context.Context, req CreateTaxTypeRequest, userID string) (TaxTypeResponse, error) {
	rate, err := parseRate(req.Rate)
	if err != nil {
		return TaxTypeResponse{}, err
	}

	taxType := model.TaxType{
		Name:        req.Name,
		Description: req.Description,
		Rate:        rate,
		Category:    resolveCategory(req.Name, req.Category),
	}
	if err := s.repo.Create(ctx, &taxType); err != nil {
		return TaxTypeResponse{}, fmt.Errorf("failed to create tax type: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionCreateTaxType, taxType.ID.String(), taxType.Name, req)

	return toTaxTypeResponse(taxType), nil
}

func (s *taxTypeService) GetTaxType(ctx context.Context, id string) (TaxTypeResponse, error) {
	taxType, err := s.findTaxType(ctx, id)
	if err != nil {
		return TaxTypeResponse{}, err
	}
	return toTaxTypeResponse(*taxType), nil
}

func (s *taxTypeService) ListTaxTypes(ctx context.Context) ([]TaxTypeResponse, error) {
	taxTypes, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tax types: %w", err)
	}

	res := make([]TaxTypeResponse, 0, len(taxTypes))
	for _, t := range taxTypes {
		res = append(res, toTaxTypeResponse(t))
	}

	return res, nil
}

func (s *taxTypeService) UpdateTaxType(ctx context.Context, id string, req UpdateTaxTypeRequest, userID string) (TaxTypeResponse, error) {
	taxType, err := s.findTaxType(ctx, id)
	if err != nil {
		return TaxTypeResponse{}, err
	}

	rate, err := parseRate(req.Rate)
	if err != nil {
		return TaxTypeResponse{}, err
	}

	taxType.Name = req.Name
	taxType.Description = req.Description
	taxType.Rate = rate
	// Category follows the (possibly changed) name unless overridden
	taxType.Category = resolveCategory(req.Name, req.Category)

	if err := s.repo.Update(ctx, taxType); err != nil {
		return TaxTypeResponse{}, fmt.Errorf("failed to update tax type: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionUpdateTaxType, taxType.ID.String(), taxType.Name, req)

	return toTaxTypeResponse(*taxType), nil
}

func (s *taxTypeService) DeleteTaxType(ctx context.Context, id string, userID string) error {
	taxType, err := s.findTaxType(ctx, id)
	if err != nil {
		return err
	}

	inUse, err := s.repo.CountTaxes(ctx, taxType.ID)
	if err != nil {
		return fmt.Errorf("failed to check tax type references: %w", err)
	}
	if inUse > 0 {
		return ErrTaxTypeInUse
	}

	if err := s.repo.Delete(ctx, taxType.ID); err != nil {
		return fmt.Errorf("failed to delete tax type: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionDeleteTaxType, id, taxType.Name, map[string]string{"deleted_id": id})

	return nil
}

func (s *taxTypeService) findTaxType(ctx context.Context, id string) (*model.TaxType, error) {
	typeID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid tax type id: %w", err)
	}

	taxType, err := s.repo.GetByID(ctx, typeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaxTypeNotFound
		}
		return nil, fmt.Errorf("failed to fetch tax type: %w", err)
	}
	return taxType, nil
}
