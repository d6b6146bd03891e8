package models

import (
	"github.com/varejo/backend/internal/domain/identity"
)

// CompanyModel is the persistence model for the Company tenant.
type CompanyModel struct {
	BaseModel
	Name               string `gorm:"type:varchar(200);not null"`
	Document           string `gorm:"type:varchar(20)"`
	IsActive           bool   `gorm:"not null;default:true;index"`
	AutoMessageEnabled bool   `gorm:"not null;default:false"`
	AutoMessageAllowed bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "companies"
}

// ToDomain converts the persistence model to a domain Company.
func (m *CompanyModel) ToDomain() *identity.Company {
	return &identity.Company{
		BaseEntity:         m.BaseModel.ToDomain(),
		Name:               m.Name,
		Document:           m.Document,
		IsActive:           m.IsActive,
		AutoMessageEnabled: m.AutoMessageEnabled,
		AutoMessageAllowed: m.AutoMessageAllowed,
	}
}
