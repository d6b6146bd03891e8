package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/varejo/backend/internal/domain/shared"
)

// InstallmentFilter represents query filter options for installments
type InstallmentFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	SaleID     *uuid.UUID
	IsPaid     *bool
	Overdue    *bool
	DueFrom    *time.Time
	DueTo      *time.Time
}

// CompanyStats aggregates the receivable position of one company
type CompanyStats struct {
	TotalCount      int64           `json:"total_count"`
	PaidCount       int64           `json:"paid_count"`
	PendingCount    int64           `json:"pending_count"`
	OverdueCount    int64           `json:"overdue_count"`
	TotalReceivable decimal.Decimal `json:"total_receivable"`
	OverdueAmount   decimal.Decimal `json:"overdue_amount"`
}

// CustomerDebtSummary aggregates the unpaid installments of one customer
type CustomerDebtSummary struct {
	CustomerID     uuid.UUID       `json:"customer_id"`
	TotalRemaining decimal.Decimal `json:"total_remaining"`
	OpenCount      int             `json:"open_count"`
	OverdueCount   int             `json:"overdue_count"`
	OverdueAmount  decimal.Decimal `json:"overdue_amount"`
}

// InstallmentRepository is the persistence port for the installment ledger.
// Every read is scoped by company ID; writes use optimistic locking so two
// concurrent payments against the same installment cannot both win.
type InstallmentRepository interface {
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Installment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Installment, error)
	FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter InstallmentFilter) ([]Installment, error)
	CountForCompany(ctx context.Context, companyID uuid.UUID, filter InstallmentFilter) (int64, error)
	FindUnpaidByCustomer(ctx context.Context, companyID, customerID uuid.UUID) ([]Installment, error)
	FindUnpaidByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]Installment, error)
	FindUnpaidByCompany(ctx context.Context, companyID uuid.UUID) ([]Installment, error)
	Save(ctx context.Context, installment *Installment) error
	SaveWithLock(ctx context.Context, installment *Installment) error
	Delete(ctx context.Context, companyID, id uuid.UUID) error
	GetCompanyStats(ctx context.Context, companyID uuid.UUID, today time.Time) (*CompanyStats, error)
}

// PaymentRepository is the persistence port for the append-only payment log
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	FindByInstallment(ctx context.Context, companyID, installmentID uuid.UUID) ([]Payment, error)
	SumByInstallment(ctx context.Context, companyID, installmentID uuid.UUID) (decimal.Decimal, error)
}

// LedgerTx runs payment-insert plus installment-update as one atomic unit.
// fn receives repositories bound to the same database transaction.
type LedgerTx interface {
	InTransaction(ctx context.Context, fn func(installments InstallmentRepository, payments PaymentRepository) error) error
}
