package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taxmanager/internal/email"
	"taxmanager/internal/model"
	"taxmanager/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- DTOs ---

type SendResultResponse struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

var ErrOwnerEmailMissing = errors.New("tax owner has no email address")

// Mailer delivers a rendered subject/html/text triple. Implemented by the
// SendGrid client.
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// --- Interface ---

// NotificationService sends payment notices by email and records each
// delivery as a sent reminder.
type NotificationService interface {
	SendTaxReminder(ctx context.Context, taxID string, actorID string) error
	SendBulkTaxReminders(ctx context.Context, taxIDs []string, actorID string) (SendResultResponse, error)
	SendOverdueReminders(ctx context.Context, actorID string) (SendResultResponse, error)
}

type notificationService struct {
	taxes     repository.TaxRepository
	reminders repository.ReminderRepository
	mailer    Mailer
	audit     AuditService
	notifier  Notifier
	logger    *zap.Logger
}

func NewNotificationService(
	taxes repository.TaxRepository,
	reminders repository.ReminderRepository,
	mailer Mailer,
	audit AuditService,
	notifier Notifier,
	logger *zap.Logger,
) NotificationService {
	return &notificationService{
		taxes:     taxes,
		reminders: reminders,
		mailer:    mailer,
		audit:     audit,
		notifier:  notifier,
		logger:    logger,
	}
}

// --- Implementation ---

func (s *notificationService) SendTaxReminder(ctx context.Context, taxID string, actorID string) error {
	id, err := uuid.Parse(taxID)
	if err != nil {
		return fmt.Errorf("invalid tax id: %w", err)
	}

	tax, err := s.taxes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaxNotFound
		}
		return fmt.Errorf("failed to fetch tax: %w", err)
	}

	if err := s.sendReminderEmail(ctx, tax, false, 0); err != nil {
		return err
	}

	s.audit.Record(ctx, actorID, model.ActionSendTaxReminder, taxID, taxTypeName(tax), nil)

	return nil
}

func (s *notificationService) SendBulkTaxReminders(ctx context.Context, taxIDs []string, actorID string) (SendResultResponse, error) {
	var result SendResultResponse
	for _, taxID := range taxIDs {
		if err := s.SendTaxReminder(ctx, taxID, actorID); err != nil {
			s.logger.Warn("bulk reminder send failed",
				zap.String("tax_id", taxID),
				zap.Error(err))
			result.Failed++
			continue
		}
		result.Sent++
	}
	return result, nil
}

func (s *notificationService) SendOverdueReminders(ctx context.Context, actorID string) (SendResultResponse, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	overdue, err := s.taxes.ListOverdue(ctx, today)
	if err != nil {
		return SendResultResponse{}, fmt.Errorf("failed to fetch overdue taxes: %w", err)
	}

	var result SendResultResponse
	for i := range overdue {
		tax := &overdue[i]
		daysPastDue := int(today.Sub(tax.DueDate).Hours() / 24)

		if err := s.sendReminderEmail(ctx, tax, true, daysPastDue); err != nil {
			s.logger.Warn("overdue reminder send failed",
				zap.String("tax_id", tax.ID.String()),
				zap.Error(err))
			result.Failed++
			continue
		}
		result.Sent++
	}

	s.audit.Record(ctx, actorID, model.ActionSendOverdue, "", "", result)

	return result, nil
}

// sendReminderEmail renders the notice, delivers it, and records a sent
// reminder for the owner. The reminder row is best-effort once the mail
// is out.
func (s *notificationService) sendReminderEmail(ctx context.Context, tax *model.Tax, overdue bool, daysPastDue int) error {
	if tax.ChargeStation == nil || tax.ChargeStation.User == nil || tax.ChargeStation.User.Email == "" {
		return ErrOwnerEmailMissing
	}
	owner := tax.ChargeStation.User

	info := email.TaxInfo{
		TaxTypeName: taxTypeName(tax),
		StationName: tax.ChargeStation.Name,
		Amount:      tax.Amount,
		DueDate:     tax.DueDate,
	}

	var tpl email.Template
	var title, message string
	if overdue {
		tpl = email.OverdueReminderTemplate(info, daysPastDue)
		title = fmt.Sprintf("연체 알림: %s", info.TaxTypeName)
		message = fmt.Sprintf("%s의 %s 연체 알림이 이메일로 전송되었습니다. (%d일 연체)", info.StationName, info.TaxTypeName, daysPastDue)
	} else {
		tpl = email.TaxReminderTemplate(info)
		title = fmt.Sprintf("세금 납부 알림: %s", info.TaxTypeName)
		message = fmt.Sprintf("%s의 %s 납부 알림이 이메일로 전송되었습니다.", info.StationName, info.TaxTypeName)
	}

	if err := s.mailer.Send(ctx, owner.Email, tpl.Subject, tpl.HTML, tpl.Text); err != nil {
		return err
	}

	reminder := model.Reminder{
		TaxID:        &tax.ID,
		UserID:       owner.ID,
		Title:        title,
		Message:      message,
		ReminderDate: time.Now(),
		Status:       model.ReminderSent,
		Type:         model.ReminderTypeEmail,
	}
	if err := s.reminders.Create(ctx, &reminder); err != nil {
		s.logger.Warn("failed to record sent reminder",
			zap.String("tax_id", tax.ID.String()),
			zap.Error(err))
	}

	if s.notifier != nil {
		s.notifier.BroadcastEvent(EventReminderSent, map[string]string{
			"tax_id": tax.ID.String(),
			"title":  title,
		})
	}

	return nil
}
