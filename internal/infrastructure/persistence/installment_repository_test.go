package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/varejo/backend/internal/domain/billing"
	"github.com/varejo/backend/internal/domain/shared"
	"github.com/varejo/backend/internal/domain/shared/valueobject"
)

// newMockInstallmentRepository creates a GormInstallmentRepository with a mocked SQL connection
func newMockInstallmentRepository(t *testing.T) (*GormInstallmentRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormInstallmentRepository(gormDB), mock, mockDB
}

func installmentRows(id, companyID, customerID, saleID uuid.UUID) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "version", "company_id",
		"customer_id", "sale_id", "installment_number", "total_installments",
		"amount", "remaining_amount", "due_date", "is_paid",
		"paid_at", "last_message_sent_at", "message_count", "description",
	}).AddRow(
		id, now, now, 1, companyID,
		customerID, saleID, 1, 3,
		decimal.NewFromInt(300), decimal.NewFromInt(200), now, false,
		nil, nil, 0, "Geladeira",
	)
}

func TestGormInstallmentRepository_FindByIDForCompany(t *testing.T) {
	t.Run("finds installment within company", func(t *testing.T) {
		repo, mock, mockDB := newMockInstallmentRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		companyID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "installments" WHERE company_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(companyID, id, 1).
			WillReturnRows(installmentRows(id, companyID, uuid.New(), uuid.New()))

		inst, err := repo.FindByIDForCompany(context.Background(), companyID, id)

		assert.NoError(t, err)
		require.NotNil(t, inst)
		assert.Equal(t, id, inst.ID)
		assert.Equal(t, companyID, inst.CompanyID)
		assert.True(t, inst.RemainingAmount.Equal(decimal.NewFromInt(200)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when row is missing", func(t *testing.T) {
		repo, mock, mockDB := newMockInstallmentRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		companyID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "installments" WHERE company_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(companyID, id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		inst, err := repo.FindByIDForCompany(context.Background(), companyID, id)

		assert.Nil(t, inst)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("does not leak rows of another company", func(t *testing.T) {
		repo, mock, mockDB := newMockInstallmentRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		otherCompany := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "installments" WHERE company_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(otherCompany, id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		inst, err := repo.FindByIDForCompany(context.Background(), otherCompany, id)

		assert.Nil(t, inst)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInstallmentRepository_FindUnpaidByCustomer(t *testing.T) {
	repo, mock, mockDB := newMockInstallmentRepository(t)
	defer mockDB.Close()

	companyID := uuid.New()
	customerID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "installments" WHERE company_id = \$1 AND customer_id = \$2 AND is_paid = false ORDER BY due_date ASC, installment_number ASC`).
		WithArgs(companyID, customerID).
		WillReturnRows(installmentRows(uuid.New(), companyID, customerID, uuid.New()))

	installments, err := repo.FindUnpaidByCustomer(context.Background(), companyID, customerID)

	assert.NoError(t, err)
	assert.Len(t, installments, 1)
	assert.False(t, installments[0].IsPaid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormInstallmentRepository_CountForCompany(t *testing.T) {
	repo, mock, mockDB := newMockInstallmentRepository(t)
	defer mockDB.Close()

	companyID := uuid.New()
	customerID := uuid.New()
	unpaid := false

	mock.ExpectQuery(`SELECT count\(\*\) FROM "installments" WHERE company_id = \$1 AND customer_id = \$2 AND is_paid = \$3`).
		WithArgs(companyID, customerID, unpaid).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	total, err := repo.CountForCompany(context.Background(), companyID, billing.InstallmentFilter{
		// pagination must not leak into the count
		Filter:     shared.Filter{Page: 3, PageSize: 2},
		CustomerID: &customerID,
		IsPaid:     &unpaid,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(7), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormInstallmentRepository_SaveWithLock(t *testing.T) {
	newInstallment := func(t *testing.T) *billing.Installment {
		inst, err := billing.NewInstallment(
			uuid.New(), uuid.New(), uuid.New(), 1, 3,
			valueobject.NewMoneyBRLFromFloat(300),
			time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), "")
		require.NoError(t, err)
		return inst
	}

	t.Run("writes when version matches", func(t *testing.T) {
		repo, mock, mockDB := newMockInstallmentRepository(t)
		defer mockDB.Close()

		inst := newInstallment(t)
		_, err := inst.ApplyPayment(valueobject.NewMoneyBRLFromFloat(100),
			billing.PaymentMethodPix, "", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Equal(t, 2, inst.Version)

		mock.ExpectExec(`UPDATE "installments" SET .* WHERE \(id = \$\d+ AND version = \$\d+\).*`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.SaveWithLock(context.Background(), inst)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects stale version", func(t *testing.T) {
		repo, mock, mockDB := newMockInstallmentRepository(t)
		defer mockDB.Close()

		inst := newInstallment(t)
		_, err := inst.ApplyPayment(valueobject.NewMoneyBRLFromFloat(100),
			billing.PaymentMethodPix, "", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "installments" SET .* WHERE \(id = \$\d+ AND version = \$\d+\).*`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.SaveWithLock(context.Background(), inst)

		assert.Equal(t, shared.ErrConcurrencyConflict, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInstallmentRepository_GetCompanyStats(t *testing.T) {
	repo, mock, mockDB := newMockInstallmentRepository(t)
	defer mockDB.Close()

	companyID := uuid.New()

	rows := sqlmock.NewRows([]string{
		"total_count", "paid_count", "pending_count", "overdue_count",
		"total_receivable", "overdue_amount",
	}).AddRow(10, 4, 6, 2, decimal.NewFromInt(1500), decimal.NewFromInt(400))

	mock.ExpectQuery(`SELECT .*COUNT\(\*\) AS total_count.* FROM "installments" WHERE company_id = \$\d+`).
		WillReturnRows(rows)

	stats, err := repo.GetCompanyStats(context.Background(), companyID, time.Now())

	assert.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, int64(10), stats.TotalCount)
	assert.Equal(t, int64(2), stats.OverdueCount)
	assert.True(t, stats.TotalReceivable.Equal(decimal.NewFromInt(1500)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
