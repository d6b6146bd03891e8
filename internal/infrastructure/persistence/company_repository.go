package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/varejo/backend/internal/domain/identity"
	"github.com/varejo/backend/internal/infrastructure/persistence/models"
)

// GormCompanyRepository implements CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// FindActiveWithAutoMessaging returns the tenants the dunning engine sweeps
func (r *GormCompanyRepository) FindActiveWithAutoMessaging(ctx context.Context) ([]identity.Company, error) {
	var companyModels []models.CompanyModel
	if err := r.db.WithContext(ctx).
		Where("is_active = true AND auto_message_enabled = true AND auto_message_allowed = true").
		Order("name ASC").
		Find(&companyModels).Error; err != nil {
		return nil, err
	}
	companies := make([]identity.Company, len(companyModels))
	for i, model := range companyModels {
		companies[i] = *model.ToDomain()
	}
	return companies, nil
}

// Ensure GormCompanyRepository implements CompanyRepository
var _ identity.CompanyRepository = (*GormCompanyRepository)(nil)
