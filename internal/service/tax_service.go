package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taxmanager/internal/model"
	"taxmanager/internal/repository"
	"taxmanager/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateTaxRequest struct {
	ChargeStationID string `json:"charge_station_id" binding:"required,uuid"`
	TaxTypeID       string `json:"tax_type_id" binding:"required,uuid"`
	Amount          string `json:"amount" binding:"required"`   // decimal string
	DueDate         string `json:"due_date" binding:"required"` // YYYY-MM-DD
	Description     string `json:"description"`
}

type UpdateTaxRequest struct {
	Amount      string `json:"amount" binding:"required"`
	DueDate     string `json:"due_date" binding:"required"`
	Description string `json:"description"`
}

type TransitionTaxRequest struct {
	Status string `json:"status" binding:"required"`
}

type TaxListFilter struct {
	UserID          string // non-empty scopes to stations owned by this user
	ChargeStationID string
	TaxTypeID       string
	Status          string
	Page            int
	Limit           int
}

// TaxResponse carries the stored state plus everything the presentation
// layer needs from the workflow engine: the display status (with derived
// overdue), the label, the canonical next step, and every legal target.
type TaxResponse struct {
	ID              string   `json:"id"`
	ChargeStationID string   `json:"charge_station_id"`
	StationName     string   `json:"station_name,omitempty"`
	TaxTypeID       string   `json:"tax_type_id"`
	TaxTypeName     string   `json:"tax_type_name,omitempty"`
	Category        string   `json:"category,omitempty"`
	Amount          string   `json:"amount"`
	DueDate         string   `json:"due_date"`
	Status          string   `json:"status"`
	DisplayStatus   string   `json:"display_status"`
	StatusLabel     string   `json:"status_label"`
	Overdue         bool     `json:"overdue"`
	PaidDate        *string  `json:"paid_date"`
	NextStatus      *string  `json:"next_status"`
	LegalTargets    []string `json:"legal_targets"`
	Description     string   `json:"description"`
	CreatedAt       string   `json:"created_at"`
}

var (
	ErrTaxNotFound          = errors.New("tax not found")
	ErrTransitionNotAllowed = errors.New("status change not allowed")
	ErrStatusConflict       = errors.New("tax status was changed concurrently, retry from a fresh read")
	ErrNoForwardStep        = errors.New("tax is in a terminal status, no forward step available")
)

// --- Interface ---

type TaxService interface {
	CreateTax(ctx context.Context, req CreateTaxRequest, userID string) (TaxResponse, error)
	GetTax(ctx context.Context, id string) (TaxResponse, error)
	ListTaxes(ctx context.Context, filter TaxListFilter) ([]TaxResponse, int64, error)
	UpdateTax(ctx context.Context, id string, req UpdateTaxRequest, userID string) (TaxResponse, error)
	DeleteTax(ctx context.Context, id string, userID string) error

	// TransitionStatus validates the requested target against the
	// workflow tables and applies it with a compare-and-swap write.
	TransitionStatus(ctx context.Context, id string, target workflow.Status, userID string) (TaxResponse, error)
	// AdvanceStatus applies the canonical next forward step.
	AdvanceStatus(ctx context.Context, id string, userID string) (TaxResponse, error)
}

type taxService struct {
	taxes    repository.TaxRepository
	stations repository.StationRepository
	types    repository.TaxTypeRepository
	audit    AuditService
	notifier Notifier
	logger   *zap.Logger
}

func NewTaxService(
	taxes repository.TaxRepository,
	stations repository.StationRepository,
	types repository.TaxTypeRepository,
	audit AuditService,
	notifier Notifier,
	logger *zap.Logger,
) TaxService {
	return &taxService{
		taxes:    taxes,
		stations: stations,
		types:    types,
		audit:    audit,
		notifier: notifier,
		logger:   logger,
	}
}

// --- Implementation ---

func (s *taxService) CreateTax(ctx context.Context, req CreateTaxRequest, userID string) (TaxResponse, error) {
	stationID, err := uuid.Parse(req.ChargeStationID)
	if err != nil {
		return TaxResponse{}, fmt.Errorf("invalid charge_station_id: %w", err)
	}
	typeID, err := uuid.Parse(req.TaxTypeID)
	if err != nil {
		return TaxResponse{}, fmt.Errorf("invalid tax_type_id: %w", err)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return TaxResponse{}, fmt.Errorf("invalid amount: %w", err)
	}
	if !amount.IsPositive() {
		return TaxResponse{}, errors.New("amount must be positive")
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return TaxResponse{}, fmt.Errorf("invalid due_date format (expected YYYY-MM-DD): %w", err)
	}

	if _, err := s.stations.GetByID(ctx, stationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TaxResponse{}, ErrStationNotFound
		}
		return TaxResponse{}, fmt.Errorf("failed to fetch charge station: %w", err)
	}

	taxType, err := s.types.GetByID(ctx, typeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TaxResponse{}, ErrTaxTypeNotFound
		}
		return TaxResponse{}, fmt.Errorf("failed to fetch tax type: %w", err)
	}

	tax := model.Tax{
		ChargeStationID: stationID,
		TaxTypeID:       typeID,
		Amount:          amount,
		DueDate:         dueDate,
		Status:          workflow.InitialStatus(taxType.Category),
		Description:     req.Description,
	}
	if err := s.taxes.Create(ctx, &tax); err != nil {
		return TaxResponse{}, fmt.Errorf("failed to create tax: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionCreateTax, tax.ID.String(), taxType.Name, req)

	return s.GetTax(ctx, tax.ID.String())
}

func (s *taxService) GetTax(ctx context.Context, id string) (TaxResponse, error) {
	tax, err := s.findTax(ctx, id)
	if err != nil {
		return TaxResponse{}, err
	}
	return s.toTaxResponse(*tax), nil
}

func (s *taxService) ListTaxes(ctx context.Context, filter TaxListFilter) ([]TaxResponse, int64, error) {
	repoFilter := repository.TaxFilter{
		Status: workflow.Status(filter.Status),
		Page:   filter.Page,
		Limit:  filter.Limit,
	}

	if filter.UserID != "" {
		id, err := uuid.Parse(filter.UserID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid user id: %w", err)
		}
		repoFilter.UserID = &id
	}
	if filter.ChargeStationID != "" {
		id, err := uuid.Parse(filter.ChargeStationID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid charge_station_id: %w", err)
		}
		repoFilter.ChargeStationID = &id
	}
	if filter.TaxTypeID != "" {
		id, err := uuid.Parse(filter.TaxTypeID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid tax_type_id: %w", err)
		}
		repoFilter.TaxTypeID = &id
	}

	taxes, total, err := s.taxes.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch taxes: %w", err)
	}

	res := make([]TaxResponse, 0, len(taxes))
	for _, tax := range taxes {
		res = append(res, s.toTaxResponse(tax))
	}

	return res, total, nil
}

func (s *taxService) UpdateTax(ctx context.Context, id string, req UpdateTaxRequest, userID string) (TaxResponse, error) {
	tax, err := s.findTax(ctx, id)
	if err != nil {
		return TaxResponse{}, err
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return TaxResponse{}, fmt.Errorf("invalid amount: %w", err)
	}
	if !amount.IsPositive() {
		return TaxResponse{}, errors.New("amount must be positive")
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return TaxResponse{}, fmt.Errorf("invalid due_date format (expected YYYY-MM-DD): %w", err)
	}

	tax.Amount = amount
	tax.DueDate = dueDate
	tax.Description = req.Description
	if err := s.taxes.Update(ctx, tax); err != nil {
		return TaxResponse{}, fmt.Errorf("failed to update tax: %w", err)
	}

	return s.GetTax(ctx, id)
}

func (s *taxService) DeleteTax(ctx context.Context, id string, userID string) error {
	tax, err := s.findTax(ctx, id)
	if err != nil {
		return err
	}

	if err := s.taxes.Delete(ctx, tax.ID); err != nil {
		return fmt.Errorf("failed to delete tax: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionDeleteTax, id, taxTypeName(tax), map[string]string{"deleted_id": id})

	return nil
}

func (s *taxService) TransitionStatus(ctx context.Context, id string, target workflow.Status, userID string) (TaxResponse, error) {
	tax, err := s.findTax(ctx, id)
	if err != nil {
		return TaxResponse{}, err
	}

	return s.applyTransition(ctx, tax, target, userID)
}

func (s *taxService) AdvanceStatus(ctx context.Context, id string, userID string) (TaxResponse, error) {
	tax, err := s.findTax(ctx, id)
	if err != nil {
		return TaxResponse{}, err
	}

	next, ok := workflow.NextStatus(tax.Status, s.categoryOf(tax))
	if !ok {
		return TaxResponse{}, ErrNoForwardStep
	}

	return s.applyTransition(ctx, tax, next, userID)
}

// applyTransition is the single mutation path for stored status: gate via
// the workflow tables, then write status and paid_date atomically with the
// read status as the compare-and-swap guard. A rejected or conflicting
// transition leaves the record untouched.
func (s *taxService) applyTransition(ctx context.Context, tax *model.Tax, target workflow.Status, userID string) (TaxResponse, error) {
	category := s.categoryOf(tax)

	if !workflow.CanTransition(tax.Status, target, category) {
		return TaxResponse{}, ErrTransitionNotAllowed
	}

	// paid_date is set exactly while the record is completed. The date is
	// the local calendar day, not the UTC day the wall clock happens to
	// fall in.
	var paidDate *time.Time
	if target == workflow.StatusCompleted {
		now := time.Now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		paidDate = &today
	}

	ok, err := s.taxes.UpdateStatus(ctx, tax.ID, tax.Status, target, paidDate)
	if err != nil {
		return TaxResponse{}, fmt.Errorf("failed to update tax status: %w", err)
	}
	if !ok {
		return TaxResponse{}, ErrStatusConflict
	}

	s.audit.Record(ctx, userID, model.ActionTransitionTax, tax.ID.String(), taxTypeName(tax), map[string]string{
		"from": string(tax.Status),
		"to":   string(target),
	})

	if s.notifier != nil {
		s.notifier.BroadcastEvent(EventTaxStatusChanged, map[string]string{
			"tax_id": tax.ID.String(),
			"from":   string(tax.Status),
			"to":     string(target),
		})
	}

	return s.GetTax(ctx, tax.ID.String())
}

// --- Helpers ---

func (s *taxService) findTax(ctx context.Context, id string) (*model.Tax, error) {
	taxID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid tax id: %w", err)
	}

	tax, err := s.taxes.GetByID(ctx, taxID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaxNotFound
		}
		return nil, fmt.Errorf("failed to fetch tax: %w", err)
	}

	if !workflow.KnownStatus(tax.Status) {
		// Deliberate fail-safe: the engine routes unknown values back to
		// the machine's start state, but drift between stored data and
		// the status enum must stay visible to operators.
		s.logger.Warn("unrecognized stored tax status",
			zap.String("tax_id", tax.ID.String()),
			zap.String("status", string(tax.Status)))
	}

	return tax, nil
}

func (s *taxService) categoryOf(tax *model.Tax) workflow.Category {
	if tax.TaxType != nil {
		return tax.TaxType.Category
	}
	taxType, err := s.types.GetByID(context.Background(), tax.TaxTypeID)
	if err != nil {
		return workflow.CategoryStandard
	}
	return taxType.Category
}

func taxTypeName(tax *model.Tax) string {
	if tax.TaxType != nil {
		return tax.TaxType.Name
	}
	return ""
}

func (s *taxService) toTaxResponse(tax model.Tax) TaxResponse {
	now := time.Now()
	category := s.categoryOf(&tax)
	display := workflow.DisplayStatus(tax.Status, tax.DueDate, now)

	res := TaxResponse{
		ID:              tax.ID.String(),
		ChargeStationID: tax.ChargeStationID.String(),
		TaxTypeID:       tax.TaxTypeID.String(),
		Category:        string(category),
		Amount:          tax.Amount.StringFixed(2),
		DueDate:         tax.DueDate.Format("2006-01-02"),
		Status:          string(tax.Status),
		DisplayStatus:   string(display),
		StatusLabel:     workflow.StatusLabel(display),
		Overdue:         workflow.IsOverdue(tax.Status, tax.DueDate, now),
		Description:     tax.Description,
		CreatedAt:       tax.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	if tax.ChargeStation != nil {
		res.StationName = tax.ChargeStation.Name
	}
	if tax.TaxType != nil {
		res.TaxTypeName = tax.TaxType.Name
	}
	if tax.PaidDate != nil {
		paid := tax.PaidDate.Format("2006-01-02")
		res.PaidDate = &paid
	}

	if next, ok := workflow.NextStatus(tax.Status, category); ok {
		n := string(next)
		res.NextStatus = &n
	}
	for _, target := range workflow.LegalTargets(tax.Status, category) {
		res.LegalTargets = append(res.LegalTargets, string(target))
	}

	return res
}
