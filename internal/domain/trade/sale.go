package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/varejo/backend/internal/domain/shared"
)

// Sale is the source-document read model for the installment ledger.
// The sales workflow itself (cart, items, fiscal emission) lives outside
// this subsystem; installments only need proof a sale exists and belongs
// to the calling company.
type Sale struct {
	shared.BaseEntity
	CompanyID  uuid.UUID       `json:"company_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	SaleNumber string          `json:"sale_number"`
	Total      decimal.Decimal `json:"total"`
	SoldAt     time.Time       `json:"sold_at"`
}

// SaleRepository is the tenant-scoped ownership lookup collaborator
type SaleRepository interface {
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Sale, error)
}
