package repository

import (
	"context"

	"taxmanager/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaxTypeRepository defines data access for TaxType entities
type TaxTypeRepository interface {
	Create(ctx context.Context, taxType *model.TaxType) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.TaxType, error)
	List(ctx context.Context) ([]model.TaxType, error)
	Update(ctx context.Context, taxType *model.TaxType) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountTaxes(ctx context.Context, id uuid.UUID) (int64, error)
}

type taxTypeRepository struct {
	db *gorm.DB
}

func NewTaxTypeRepository(db *gorm.DB) TaxTypeRepository {
	return &taxTypeRepository{db: db}
}

func (r *taxTypeRepository) Create(ctx context.Context, taxType *model.TaxType) error {
	return GetDB(ctx, r.db).Create(taxType).Error
}

func (r *taxTypeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TaxType, error) {
	var taxType model.TaxType
	if err := GetDB(ctx, r.db).First(&taxType, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &taxType, nil
}

func (r *taxTypeRepository) List(ctx context.Context) ([]model.TaxType, error) {
	var taxTypes []model.TaxType
	if err := GetDB(ctx, r.db).Order("name asc").Find(&taxTypes).Error; err != nil {
		return nil, err
	}
	return taxTypes, nil
}

func (r *taxTypeRepository) Update(ctx context.Context, taxType *model.TaxType) error {
	return GetDB(ctx, r.db).Save(taxType).Error
}

func (r *taxTypeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.TaxType{}).Error
}

// CountTaxes returns the number of tax records referencing the type,
// used to refuse deleting a type still in use.
func (r *taxTypeRepository) CountTaxes(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Tax{}).Where("tax_type_id = ?", id).Count(&count).Error
	return count, err
}
