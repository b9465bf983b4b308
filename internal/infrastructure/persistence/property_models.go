package persistence

import (
	"time"

	"github.com/google/uuid"
)

// PropertyModel is the GORM model for properties. The property subsystem owns
// these rows; the billing engine only joins against them for descriptions.
type PropertyModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID `gorm:"type:uuid;index;not null"`
	Name      string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (PropertyModel) TableName() string {
	return "properties"
}

// UnitModel is the GORM model for rentable units within a property
type UnitModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID `gorm:"type:uuid;index;not null"`
	PropertyID uuid.UUID `gorm:"type:uuid;index;not null"`
	Label      string    `gorm:"type:varchar(50);not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (UnitModel) TableName() string {
	return "units"
}
