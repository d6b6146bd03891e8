package models

import (
	"github.com/google/uuid"

	"github.com/varejo/backend/internal/domain/partner"
)

// CustomerModel is the persistence model for the Customer read model.
type CustomerModel struct {
	BaseModel
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(200);not null"`
	Phone     string    `gorm:"type:varchar(30)"`
	Email     string    `gorm:"type:varchar(200)"`
	IsActive  bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseEntity: m.BaseModel.ToDomain(),
		CompanyID:  m.CompanyID,
		Name:       m.Name,
		Phone:      m.Phone,
		Email:      m.Email,
		IsActive:   m.IsActive,
	}
}
