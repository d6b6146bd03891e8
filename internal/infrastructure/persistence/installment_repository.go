package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/varejo/backend/internal/domain/billing"
	"github.com/varejo/backend/internal/domain/shared"
	"github.com/varejo/backend/internal/infrastructure/persistence/models"
)

// GormInstallmentRepository implements InstallmentRepository using GORM
type GormInstallmentRepository struct {
	db *gorm.DB
}

// NewGormInstallmentRepository creates a new GormInstallmentRepository
func NewGormInstallmentRepository(db *gorm.DB) *GormInstallmentRepository {
	return &GormInstallmentRepository{db: db}
}

// FindByID finds an installment by its ID without tenant scoping
func (r *GormInstallmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Installment, error) {
	var model models.InstallmentModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForCompany finds an installment by ID for a specific company
func (r *GormInstallmentRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*billing.Installment, error) {
	var model models.InstallmentModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForCompany finds all installments for a company with filtering
func (r *GormInstallmentRepository) FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter billing.InstallmentFilter) ([]billing.Installment, error) {
	var installmentModels []models.InstallmentModel
	query := r.db.WithContext(ctx).Model(&models.InstallmentModel{}).
		Where("company_id = ?", companyID)
	query = applyInstallmentFilter(query, filter)

	if err := query.Find(&installmentModels).Error; err != nil {
		return nil, err
	}
	return toDomainInstallments(installmentModels), nil
}

// CountForCompany counts the installments matching a filter, ignoring its
// pagination
func (r *GormInstallmentRepository) CountForCompany(ctx context.Context, companyID uuid.UUID, filter billing.InstallmentFilter) (int64, error) {
	var total int64
	query := r.db.WithContext(ctx).Model(&models.InstallmentModel{}).
		Where("company_id = ?", companyID)
	query = applyInstallmentConditions(query, filter)

	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// FindUnpaidByCustomer finds the open installments of one customer ordered
// by due date, oldest first
func (r *GormInstallmentRepository) FindUnpaidByCustomer(ctx context.Context, companyID, customerID uuid.UUID) ([]billing.Installment, error) {
	var installmentModels []models.InstallmentModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND customer_id = ? AND is_paid = false", companyID, customerID).
		Order("due_date ASC, installment_number ASC").
		Find(&installmentModels).Error; err != nil {
		return nil, err
	}
	return toDomainInstallments(installmentModels), nil
}

// FindUnpaidByIDs finds the open installments among an explicit selection
func (r *GormInstallmentRepository) FindUnpaidByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]billing.Installment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var installmentModels []models.InstallmentModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id IN ? AND is_paid = false", companyID, ids).
		Order("due_date ASC, installment_number ASC").
		Find(&installmentModels).Error; err != nil {
		return nil, err
	}
	return toDomainInstallments(installmentModels), nil
}

// FindUnpaidByCompany finds every open installment of one company, the
// working set of a dunning sweep
func (r *GormInstallmentRepository) FindUnpaidByCompany(ctx context.Context, companyID uuid.UUID) ([]billing.Installment, error) {
	var installmentModels []models.InstallmentModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND is_paid = false", companyID).
		Order("due_date ASC").
		Find(&installmentModels).Error; err != nil {
		return nil, err
	}
	return toDomainInstallments(installmentModels), nil
}

// Save creates or updates an installment
func (r *GormInstallmentRepository) Save(ctx context.Context, installment *billing.Installment) error {
	model := models.InstallmentModelFromDomain(installment)
	return r.db.WithContext(ctx).Omit("Payments").Save(model).Error
}

// SaveWithLock saves with optimistic locking. The aggregate already
// incremented its version; the write only lands if the row still carries
// the previous one.
func (r *GormInstallmentRepository) SaveWithLock(ctx context.Context, installment *billing.Installment) error {
	model := models.InstallmentModelFromDomain(installment)
	// Select("*") forces zero-valued columns (remaining_amount hitting 0,
	// is_paid flipping back) to be written as well.
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", installment.ID, installment.Version-1).
		Select("*").
		Omit("id", "created_at", "Payments").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete removes an installment for a company
func (r *GormInstallmentRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Delete(&models.InstallmentModel{}, "company_id = ? AND id = ?", companyID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GetCompanyStats aggregates the receivable position of one company in a
// single query
func (r *GormInstallmentRepository) GetCompanyStats(ctx context.Context, companyID uuid.UUID, today time.Time) (*billing.CompanyStats, error) {
	var stats billing.CompanyStats
	startOfDay := shared.StartOfDay(today)
	if err := r.db.WithContext(ctx).
		Model(&models.InstallmentModel{}).
		Select(`
			COUNT(*) AS total_count,
			COUNT(*) FILTER (WHERE is_paid) AS paid_count,
			COUNT(*) FILTER (WHERE NOT is_paid) AS pending_count,
			COUNT(*) FILTER (WHERE NOT is_paid AND due_date < ?) AS overdue_count,
			COALESCE(SUM(remaining_amount) FILTER (WHERE NOT is_paid), 0) AS total_receivable,
			COALESCE(SUM(remaining_amount) FILTER (WHERE NOT is_paid AND due_date < ?), 0) AS overdue_amount`,
			startOfDay, startOfDay).
		Where("company_id = ?", companyID).
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func toDomainInstallments(installmentModels []models.InstallmentModel) []billing.Installment {
	installments := make([]billing.Installment, len(installmentModels))
	for i, model := range installmentModels {
		installments[i] = *model.ToDomain()
	}
	return installments
}

// applyInstallmentConditions applies the WHERE side of a filter
func applyInstallmentConditions(query *gorm.DB, filter billing.InstallmentFilter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.SaleID != nil {
		query = query.Where("sale_id = ?", *filter.SaleID)
	}
	if filter.IsPaid != nil {
		query = query.Where("is_paid = ?", *filter.IsPaid)
	}
	if filter.Overdue != nil && *filter.Overdue {
		query = query.Where("is_paid = false AND due_date < ?", shared.StartOfDay(time.Now()))
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	return query
}

// applyInstallmentFilter applies conditions, ordering and pagination
func applyInstallmentFilter(query *gorm.DB, filter billing.InstallmentFilter) *gorm.DB {
	query = applyInstallmentConditions(query, filter)

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("due_date ASC")
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query
}

// Ensure GormInstallmentRepository implements InstallmentRepository
var _ billing.InstallmentRepository = (*GormInstallmentRepository)(nil)
