package model

import (
	"time"

	"taxmanager/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxType classifies tax records (acquisition tax, property tax, VAT, ...).
// Category selects the workflow variant and is recomputed from the name on
// every create/edit unless the administrator sets it explicitly.
type TaxType struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string            `gorm:"type:varchar(255);not null" json:"name"`
	Description string            `gorm:"type:text" json:"description"`
	Rate        decimal.Decimal   `gorm:"type:decimal(10,4);not null;default:0" json:"rate"` // fraction, e.g. 0.10 = 10%
	Category    workflow.Category `gorm:"type:varchar(20);not null;default:'standard';index" json:"category"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}
