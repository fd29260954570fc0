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
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateReminderRequest struct {
	TaxID        string `json:"tax_id" binding:"omitempty,uuid"`
	Title        string `json:"title" binding:"required"`
	Message      string `json:"message"`
	ReminderDate string `json:"reminder_date" binding:"required"` // RFC 3339
}

type UpdateReminderRequest struct {
	TaxID        string `json:"tax_id" binding:"omitempty,uuid"`
	Title        string `json:"title" binding:"required"`
	Message      string `json:"message"`
	ReminderDate string `json:"reminder_date" binding:"required"`
}

// AutoCreateRemindersRequest schedules reminders for the selected pending
// taxes a number of days before each due date, at the given local time.
type AutoCreateRemindersRequest struct {
	TaxIDs     []string `json:"tax_ids" binding:"required,min=1"`
	DaysBefore int      `json:"days_before" binding:"omitempty,min=0,max=60"`
	TimeOfDay  string   `json:"time_of_day"` // HH:MM, defaults to 09:00
}

type ReminderTaxInfo struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
	StatusLabel string `json:"status_label"`
	TaxTypeName string `json:"tax_type_name"`
	StationName string `json:"station_name"`
}

type ReminderResponse struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	ReminderDate string           `json:"reminder_date"`
	Status       string           `json:"status"`
	Type         string           `json:"type"`
	Tax          *ReminderTaxInfo `json:"tax,omitempty"`
	CreatedAt    string           `json:"created_at"`
}

var ErrReminderNotFound = errors.New("reminder not found")

// --- Interface ---

type ReminderService interface {
	CreateReminder(ctx context.Context, req CreateReminderRequest, userID string) (ReminderResponse, error)
	GetReminder(ctx context.Context, id string, userID string) (ReminderResponse, error)
	ListReminders(ctx context.Context, userID, status string, page, limit int) ([]ReminderResponse, int64, error)
	UpdateReminder(ctx context.Context, id string, req UpdateReminderRequest, userID string) (ReminderResponse, error)
	DismissReminder(ctx context.Context, id string, userID string) (ReminderResponse, error)
	DeleteReminder(ctx context.Context, id string, userID string) error

	// AutoCreateReminders creates one reminder per selected tax, skipping
	// taxes that already have one. The batch is transactional: a failure
	// part-way creates nothing. Returns created count.
	AutoCreateReminders(ctx context.Context, req AutoCreateRemindersRequest, userID string) (int, error)
	// ListAvailableTaxes returns pending, not yet due taxes without a
	// reminder — the candidates for auto-creation.
	ListAvailableTaxes(ctx context.Context) ([]ReminderTaxInfo, error)
}

type reminderService struct {
	reminders repository.ReminderRepository
	taxes     repository.TaxRepository
	txManager repository.TransactionManager
}

func NewReminderService(reminders repository.ReminderRepository, taxes repository.TaxRepository, txManager repository.TransactionManager) ReminderService {
	return &reminderService{reminders: reminders, taxes: taxes, txManager: txManager}
}

// --- Implementation ---

func toReminderTaxInfo(tax *model.Tax) *ReminderTaxInfo {
	if tax == nil {
		return nil
	}
	display := workflow.DisplayStatus(tax.Status, tax.DueDate, time.Now())
	info := &ReminderTaxInfo{
		ID:          tax.ID.String(),
		Amount:      tax.Amount.StringFixed(2),
		DueDate:     tax.DueDate.Format("2006-01-02"),
		Status:      string(tax.Status),
		StatusLabel: workflow.StatusLabel(display),
	}
	if tax.TaxType != nil {
		info.TaxTypeName = tax.TaxType.Name
	}
	if tax.ChargeStation != nil {
		info.StationName = tax.ChargeStation.Name
	}
	return info
}

func toReminderResponse(r model.Reminder) ReminderResponse {
	return ReminderResponse{
		ID:           r.ID.String(),
		Title:        r.Title,
		Message:      r.Message,
		ReminderDate: r.ReminderDate.Format(time.RFC3339),
		Status:       r.Status,
		Type:         r.Type,
		Tax:          toReminderTaxInfo(r.Tax),
		CreatedAt:    r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *reminderService) CreateReminder(ctx context.Context, req CreateReminderRequest, userID string) (ReminderResponse, error) {
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		return ReminderResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	reminderDate, err := time.Parse(time.RFC3339, req.ReminderDate)
	if err != nil {
		return ReminderResponse{}, fmt.Errorf("invalid reminder_date (expected RFC 3339): %w", err)
	}

	reminder := model.Reminder{
		UserID:       ownerID,
		Title:        req.Title,
		Message:      req.Message,
		ReminderDate: reminderDate,
		Status:       model.ReminderActive,
		Type:         model.ReminderTypeManual,
	}
	if req.TaxID != "" {
		taxID, err := uuid.Parse(req.TaxID)
		if err != nil {
			return ReminderResponse{}, fmt.Errorf("invalid tax_id: %w", err)
		}
		if _, err := s.taxes.GetByID(ctx, taxID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ReminderResponse{}, ErrTaxNotFound
			}
			return ReminderResponse{}, fmt.Errorf("failed to fetch tax: %w", err)
		}
		reminder.TaxID = &taxID
	}

	if err := s.reminders.Create(ctx, &reminder); err != nil {
		return ReminderResponse{}, fmt.Errorf("failed to create reminder: %w", err)
	}

	return s.GetReminder(ctx, reminder.ID.String(), userID)
}

func (s *reminderService) GetReminder(ctx context.Context, id string, userID string) (ReminderResponse, error) {
	reminder, err := s.findOwned(ctx, id, userID)
	if err != nil {
		return ReminderResponse{}, err
	}
	return toReminderResponse(*reminder), nil
}

func (s *reminderService) ListReminders(ctx context.Context, userID, status string, page, limit int) ([]ReminderResponse, int64, error) {
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid user id: %w", err)
	}

	reminders, total, err := s.reminders.ListByUser(ctx, ownerID, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch reminders: %w", err)
	}

	res := make([]ReminderResponse, 0, len(reminders))
	for _, r := range reminders {
		res = append(res, toReminderResponse(r))
	}

	return res, total, nil
}

func (s *reminderService) UpdateReminder(ctx context.Context, id string, req UpdateReminderRequest, userID string) (ReminderResponse, error) {
	reminder, err := s.findOwned(ctx, id, userID)
	if err != nil {
		return ReminderResponse{}, err
	}

	reminderDate, err := time.Parse(time.RFC3339, req.ReminderDate)
	if err != nil {
		return ReminderResponse{}, fmt.Errorf("invalid reminder_date (expected RFC 3339): %w", err)
	}

	reminder.Title = req.Title
	reminder.Message = req.Message
	reminder.ReminderDate = reminderDate
	if req.TaxID != "" {
		taxID, err := uuid.Parse(req.TaxID)
		if err != nil {
			return ReminderResponse{}, fmt.Errorf("invalid tax_id: %w", err)
		}
		reminder.TaxID = &taxID
	} else {
		reminder.TaxID = nil
	}

	if err := s.reminders.Update(ctx, reminder); err != nil {
		return ReminderResponse{}, fmt.Errorf("failed to update reminder: %w", err)
	}

	return s.GetReminder(ctx, id, userID)
}

func (s *reminderService) DismissReminder(ctx context.Context, id string, userID string) (ReminderResponse, error) {
	reminder, err := s.findOwned(ctx, id, userID)
	if err != nil {
		return ReminderResponse{}, err
	}

	reminder.Status = model.ReminderDismissed
	if err := s.reminders.Update(ctx, reminder); err != nil {
		return ReminderResponse{}, fmt.Errorf("failed to dismiss reminder: %w", err)
	}

	return toReminderResponse(*reminder), nil
}

func (s *reminderService) DeleteReminder(ctx context.Context, id string, userID string) error {
	reminder, err := s.findOwned(ctx, id, userID)
	if err != nil {
		return err
	}
	return s.reminders.Delete(ctx, reminder.ID)
}

func (s *reminderService) AutoCreateReminders(ctx context.Context, req AutoCreateRemindersRequest, userID string) (int, error) {
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		return 0, fmt.Errorf("invalid user id: %w", err)
	}

	daysBefore := req.DaysBefore
	if daysBefore == 0 {
		daysBefore = 3
	}
	timeOfDay := req.TimeOfDay
	if timeOfDay == "" {
		timeOfDay = "09:00"
	}
	clock, err := time.Parse("15:04", timeOfDay)
	if err != nil {
		return 0, fmt.Errorf("invalid time_of_day (expected HH:MM): %w", err)
	}

	// The whole batch runs in one transaction: the exists-check and the
	// insert must see the same state, and a mid-batch failure leaves
	// nothing behind.
	created := 0
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, rawID := range req.TaxIDs {
			taxID, err := uuid.Parse(rawID)
			if err != nil {
				return fmt.Errorf("invalid tax id %q: %w", rawID, err)
			}

			exists, err := s.reminders.ExistsForTax(txCtx, taxID)
			if err != nil {
				return fmt.Errorf("failed to check existing reminders: %w", err)
			}
			if exists {
				continue
			}

			tax, err := s.taxes.GetByID(txCtx, taxID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return fmt.Errorf("failed to fetch tax: %w", err)
			}

			due := tax.DueDate
			reminderDate := time.Date(due.Year(), due.Month(), due.Day(), clock.Hour(), clock.Minute(), 0, 0, due.Location()).
				AddDate(0, 0, -daysBefore)

			reminder := model.Reminder{
				TaxID:        &tax.ID,
				UserID:       ownerID,
				Title:        fmt.Sprintf("세금 납부 예정: %s", taxTypeName(tax)),
				Message:      fmt.Sprintf("%s 납부 기한이 %d일 남았습니다.", taxTypeName(tax), daysBefore),
				ReminderDate: reminderDate,
				Status:       model.ReminderActive,
				Type:         model.ReminderTypeManual,
			}
			if err := s.reminders.Create(txCtx, &reminder); err != nil {
				return fmt.Errorf("failed to create reminder: %w", err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return created, nil
}

func (s *reminderService) ListAvailableTaxes(ctx context.Context) ([]ReminderTaxInfo, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	taxes, err := s.taxes.ListPendingWithoutReminder(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidate taxes: %w", err)
	}

	res := make([]ReminderTaxInfo, 0, len(taxes))
	for i := range taxes {
		res = append(res, *toReminderTaxInfo(&taxes[i]))
	}

	return res, nil
}

func (s *reminderService) findOwned(ctx context.Context, id string, userID string) (*model.Reminder, error) {
	reminderID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder id: %w", err)
	}

	reminder, err := s.reminders.GetByID(ctx, reminderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("failed to fetch reminder: %w", err)
	}

	// Reminders are private to their owner
	if reminder.UserID.String() != userID {
		return nil, ErrReminderNotFound
	}

	return reminder, nil
}
