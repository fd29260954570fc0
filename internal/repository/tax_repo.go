package repository

import (
	"context"
	"time"

	"taxmanager/internal/model"
	"taxmanager/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaxFilter narrows List results. Zero values mean "no filter".
type TaxFilter struct {
	UserID          *uuid.UUID // scope to taxes of stations owned by this user
	ChargeStationID *uuid.UUID
	TaxTypeID       *uuid.UUID
	Status          workflow.Status
	Page            int
	Limit           int
}

// TaxRepository defines data access for Tax entities. Status writes go
// through UpdateStatus exclusively so the read-validate-write discipline
// of the workflow gate cannot be bypassed by a broad Save.
type TaxRepository interface {
	Create(ctx context.Context, tax *model.Tax) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Tax, error)
	List(ctx context.Context, filter TaxFilter) ([]model.Tax, int64, error)
	Update(ctx context.Context, tax *model.Tax) error
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateStatus writes status and paid_date in a single conditional
	// update (compare-and-swap on the previously read status). It returns
	// false when the row was concurrently modified and nothing was written.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to workflow.Status, paidDate *time.Time) (bool, error)

	// ListOverdue returns unpaid taxes whose due date is strictly before
	// the given day, with owner/station/type preloaded for notifications.
	ListOverdue(ctx context.Context, before time.Time) ([]model.Tax, error)

	// ListPendingWithoutReminder returns pending taxes due on/after the
	// given day that have no reminder attached yet.
	ListPendingWithoutReminder(ctx context.Context, from time.Time) ([]model.Tax, error)
}

type taxRepository struct {
	db *gorm.DB
}

func NewTaxRepository(db *gorm.DB) TaxRepository {
	return &taxRepository{db: db}
}

func (r *taxRepository) Create(ctx context.Context, tax *model.Tax) error {
	return GetDB(ctx, r.db).Create(tax).Error
}

func (r *taxRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Tax, error) {
	var tax model.Tax
	err := GetDB(ctx, r.db).
		Preload("ChargeStation").
		Preload("ChargeStation.User").
		Preload("TaxType").
		First(&tax, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &tax, nil
}

func (r *taxRepository) List(ctx context.Context, filter TaxFilter) ([]model.Tax, int64, error) {
	var taxes []model.Tax
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Tax{})
	if filter.UserID != nil {
		query = query.
			Joins("JOIN charge_stations ON charge_stations.id = taxes.charge_station_id").
			Where("charge_stations.user_id = ?", *filter.UserID)
	}
	if filter.ChargeStationID != nil {
		query = query.Where("taxes.charge_station_id = ?", *filter.ChargeStationID)
	}
	if filter.TaxTypeID != nil {
		query = query.Where("taxes.tax_type_id = ?", *filter.TaxTypeID)
	}
	if filter.Status != "" {
		query = query.Where("taxes.status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	offset := (filter.Page - 1) * filter.Limit

	err := query.
		Preload("ChargeStation").
		Preload("TaxType").
		Order("taxes.due_date asc").
		Offset(offset).Limit(filter.Limit).
		Find(&taxes).Error
	if err != nil {
		return nil, 0, err
	}

	return taxes, total, nil
}

func (r *taxRepository) Update(ctx context.Context, tax *model.Tax) error {
	// Status is deliberately excluded: transitions go through UpdateStatus
	return GetDB(ctx, r.db).Model(tax).
		Select("Amount", "DueDate", "Description", "ChargeStationID", "TaxTypeID").
		Updates(tax).Error
}

func (r *taxRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Tax{}).Error
}

func (r *taxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to workflow.Status, paidDate *time.Time) (bool, error) {
	result := GetDB(ctx, r.db).Model(&model.Tax{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":    to,
			"paid_date": paidDate,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *taxRepository) ListOverdue(ctx context.Context, before time.Time) ([]model.Tax, error) {
	var taxes []model.Tax
	err := GetDB(ctx, r.db).
		Preload("ChargeStation").
		Preload("ChargeStation.User").
		Preload("TaxType").
		Where("status = ? AND due_date < ?", workflow.StatusPending, before).
		Order("due_date asc").
		Find(&taxes).Error
	return taxes, err
}

func (r *taxRepository) ListPendingWithoutReminder(ctx context.Context, from time.Time) ([]model.Tax, error) {
	var taxes []model.Tax
	err := GetDB(ctx, r.db).
		Preload("ChargeStation").
		Preload("TaxType").
		Where("status = ? AND due_date >= ?", workflow.StatusPending, from).
		Where("NOT EXISTS (SELECT 1 FROM reminders WHERE reminders.tax_id = taxes.id)").
		Order("due_date asc").
		Find(&taxes).Error
	return taxes, err
}
