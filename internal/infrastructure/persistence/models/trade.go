package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/varejo/backend/internal/domain/trade"
)

// SaleModel is the persistence model for the Sale source document.
type SaleModel struct {
	BaseModel
	CompanyID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleNumber string          `gorm:"type:varchar(50);not null"`
	Total      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	SoldAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale.
func (m *SaleModel) ToDomain() *trade.Sale {
	return &trade.Sale{
		BaseEntity: m.BaseModel.ToDomain(),
		CompanyID:  m.CompanyID,
		CustomerID: m.CustomerID,
		SaleNumber: m.SaleNumber,
		Total:      m.Total,
		SoldAt:     m.SoldAt,
	}
}
