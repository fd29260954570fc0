package repository

import (
	"context"

	"taxmanager/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StationRepository defines data access for ChargeStation entities
type StationRepository interface {
	Create(ctx context.Context, station *model.ChargeStation) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ChargeStation, error)
	List(ctx context.Context, userID *uuid.UUID, page, limit int) ([]model.ChargeStation, int64, error)
	Update(ctx context.Context, station *model.ChargeStation) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type stationRepository struct {
	db *gorm.DB
}

func NewStationRepository(db *gorm.DB) StationRepository {
	return &stationRepository{db: db}
}

func (r *stationRepository) Create(ctx context.Context, station *model.ChargeStation) error {
	return GetDB(ctx, r.db).Create(station).Error
}

func (r *stationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ChargeStation, error) {
	var station model.ChargeStation
	if err := GetDB(ctx, r.db).Preload("User").First(&station, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &station, nil
}

// List returns stations, scoped to an owner when userID is non-nil.
func (r *stationRepository) List(ctx context.Context, userID *uuid.UUID, page, limit int) ([]model.ChargeStation, int64, error) {
	var stations []model.ChargeStation
	var total int64

	query := GetDB(ctx, r.db).Model(&model.ChargeStation{})
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&stations).Error; err != nil {
		return nil, 0, err
	}

	return stations, total, nil
}

func (r *stationRepository) Update(ctx context.Context, station *model.ChargeStation) error {
	return GetDB(ctx, r.db).Save(station).Error
}

func (r *stationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ChargeStation{}).Error
}
