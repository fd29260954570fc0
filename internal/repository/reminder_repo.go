package repository

import (
	"context"

	"taxmanager/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReminderRepository defines data access for Reminder entities
type ReminderRepository interface {
	Create(ctx context.Context, reminder *model.Reminder) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Reminder, error)
	ListByUser(ctx context.Context, userID uuid.UUID, status string, page, limit int) ([]model.Reminder, int64, error)
	Update(ctx context.Context, reminder *model.Reminder) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsForTax(ctx context.Context, taxID uuid.UUID) (bool, error)
}

type reminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *model.Reminder) error {
	return GetDB(ctx, r.db).Create(reminder).Error
}

func (r *reminderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Reminder, error) {
	var reminder model.Reminder
	err := GetDB(ctx, r.db).
		Preload("Tax").
		Preload("Tax.ChargeStation").
		Preload("Tax.TaxType").
		First(&reminder, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (r *reminderRepository) ListByUser(ctx context.Context, userID uuid.UUID, status string, page, limit int) ([]model.Reminder, int64, error) {
	var reminders []model.Reminder
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Reminder{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.
		Preload("Tax").
		Preload("Tax.ChargeStation").
		Preload("Tax.TaxType").
		Order("reminder_date asc").
		Offset(offset).Limit(limit).
		Find(&reminders).Error
	if err != nil {
		return nil, 0, err
	}

	return reminders, total, nil
}

func (r *reminderRepository) Update(ctx context.Context, reminder *model.Reminder) error {
	return GetDB(ctx, r.db).Save(reminder).Error
}

func (r *reminderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Reminder{}).Error
}

func (r *reminderRepository) ExistsForTax(ctx context.Context, taxID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Reminder{}).Where("tax_id = ?", taxID).Count(&count).Error
	return count > 0, err
}
