package model

import (
	"time"

	"taxmanager/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tax is the workflow-bearing entity: one obligation tied to a charge
// station and a tax type. Status is only ever written through the workflow
// engine's gate; PaidDate is set if and only if Status is completed.
type Tax struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ChargeStationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"charge_station_id"`
	ChargeStation   *ChargeStation  `gorm:"foreignKey:ChargeStationID" json:"charge_station,omitempty"`
	TaxTypeID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"tax_type_id"`
	TaxType         *TaxType        `gorm:"foreignKey:TaxTypeID" json:"tax_type,omitempty"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	DueDate         time.Time       `gorm:"type:date;not null;index" json:"due_date"`
	Status          workflow.Status `gorm:"type:varchar(30);not null;index" json:"status"`
	PaidDate        *time.Time      `gorm:"type:date" json:"paid_date"`
	Description     string          `gorm:"type:text" json:"description"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
