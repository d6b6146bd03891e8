package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/varejo/backend/internal/domain/billing"
)

// GormLedgerTx implements LedgerTx on a GORM transaction: the callback gets
// installment and payment repositories bound to the same database
// transaction, so the payment insert and the installment update commit or
// roll back together.
type GormLedgerTx struct {
	db *gorm.DB
}

// NewGormLedgerTx creates a new GormLedgerTx
func NewGormLedgerTx(db *gorm.DB) *GormLedgerTx {
	return &GormLedgerTx{db: db}
}

// InTransaction implements billing.LedgerTx
func (t *GormLedgerTx) InTransaction(ctx context.Context, fn func(installments billing.InstallmentRepository, payments billing.PaymentRepository) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormInstallmentRepository(tx), NewGormPaymentRepository(tx))
	})
}

// Ensure GormLedgerTx implements LedgerTx
var _ billing.LedgerTx = (*GormLedgerTx)(nil)
