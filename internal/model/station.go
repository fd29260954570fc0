package model

import (
	"time"

	"github.com/google/uuid"
)

// ChargeStation status enum constants
const (
	StationActive      = "active"
	StationInactive    = "inactive"
	StationMaintenance = "maintenance"
)

// ChargeStation is an EV charging site owned by a user. Every tax record
// belongs to exactly one station.
type ChargeStation struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Location  string    `gorm:"type:varchar(255);not null" json:"location"`
	Status    string    `gorm:"type:varchar(20);not null;default:'active'" json:"status"` // active, inactive, maintenance
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
