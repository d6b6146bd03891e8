package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varejo/backend/internal/domain/shared"
	"github.com/varejo/backend/internal/domain/shared/valueobject"
)

// Test helpers

func createTestInstallment(t *testing.T, amount float64, dueDate time.Time) *Installment {
	t.Helper()
	inst, err := NewInstallment(
		uuid.New(),
		uuid.New(),
		uuid.New(),
		1,
		3,
		valueobject.NewMoneyBRLFromFloat(amount),
		dueDate,
		"",
	)
	require.NoError(t, err)
	return inst
}

func mustDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sumPayments(payments []*Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

func TestNewInstallment_Validation(t *testing.T) {
	companyID := uuid.New()
	customerID := uuid.New()
	saleID := uuid.New()
	due := mustDay(2024, 1, 10)
	amount := valueobject.NewMoneyBRLFromFloat(100)

	tests := []struct {
		name    string
		run     func() (*Installment, error)
		errCode string
	}{
		{
			name: "valid",
			run: func() (*Installment, error) {
				return NewInstallment(companyID, customerID, saleID, 2, 6, amount, due, "tv parcelada")
			},
		},
		{
			name: "nil company",
			run: func() (*Installment, error) {
				return NewInstallment(uuid.Nil, customerID, saleID, 1, 1, amount, due, "")
			},
			errCode: "INVALID_COMPANY",
		},
		{
			name: "number above total",
			run: func() (*Installment, error) {
				return NewInstallment(companyID, customerID, saleID, 4, 3, amount, due, "")
			},
			errCode: "INVALID_INSTALLMENT_NUMBER",
		},
		{
			name: "number below one",
			run: func() (*Installment, error) {
				return NewInstallment(companyID, customerID, saleID, 0, 3, amount, due, "")
			},
			errCode: "INVALID_INSTALLMENT_NUMBER",
		},
		{
			name: "zero amount",
			run: func() (*Installment, error) {
				return NewInstallment(companyID, customerID, saleID, 1, 3, valueobject.ZeroBRL(), due, "")
			},
		},
		{
			name: "negative amount",
			run: func() (*Installment, error) {
				return NewInstallment(companyID, customerID, saleID, 1, 3, valueobject.NewMoneyBRLFromFloat(-5), due, "")
			},
			errCode: "INVALID_AMOUNT",
		},
		{
			name: "zero due date",
			run: func() (*Installment, error) {
				return NewInstallment(companyID, customerID, saleID, 1, 3, amount, time.Time{}, "")
			},
			errCode: "INVALID_DUE_DATE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := tt.run()
			if tt.errCode == "" {
				require.NoError(t, err)
				assert.False(t, inst.IsPaid)
				assert.True(t, inst.Amount.Equal(inst.RemainingAmount))
				assert.Len(t, inst.GetDomainEvents(), 1)
				return
			}
			require.Error(t, err)
			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tt.errCode, domainErr.Code)
		})
	}
}

func TestInstallment_ApplyPayment_PartialRollsDueDateForward(t *testing.T) {
	// Installment of 300.00 due 2024-01-10, partial payment on 2024-01-05:
	// the reference for the rollover is the due date since it is later.
	inst := createTestInstallment(t, 300.00, mustDay(2024, 1, 10))
	now := mustDay(2024, 1, 5)

	outcome, err := inst.ApplyPayment(valueobject.NewMoneyBRLFromFloat(100), PaymentMethodPix, "", now)
	require.NoError(t, err)

	assert.Equal(t, "200.00", outcome.Remaining.StringFixed(2))
	assert.False(t, outcome.IsPaid)
	assert.Equal(t, mustDay(2024, 2, 10), inst.DueDate)
	assert.Nil(t, inst.PaidAt)
	assert.Contains(t, outcome.Message, "200.00 remaining")
	assert.Contains(t, outcome.Message, "2024-02-10")
}

func TestInstallment_ApplyPayment_PartialPastDueUsesNow(t *testing.T) {
	// Due date already behind: rollover references now, not the stale date.
	inst := createTestInstallment(t, 300.00, mustDay(2024, 1, 1))
	now := mustDay(2024, 1, 5)

	outcome, err := inst.ApplyPayment(valueobject.NewMoneyBRLFromFloat(100), PaymentMethodPix, "", now)
	require.NoError(t, err)

	assert.Equal(t, mustDay(2024, 2, 5), inst.DueDate)
	assert.Equal(t, mustDay(2024, 2, 5), outcome.NextDueDate)
}

func TestInstallment_ApplyPayment_ExactSettlementKeepsDueDate(t *testing.T) {
	inst := createTestInstallment(t, 300.00, mustDay(2024, 1, 1))

	_, err := inst.ApplyPayment(valueobject.NewMoneyBRLFromFloat(100), PaymentMethodPix, "", mustDay(2024, 1, 5))
	require.NoError(t, err)
	require.Equal(t, mustDay(2024, 2, 5), inst.DueDate)

	settledAt := mustDay(2024, 1, 20)
	outcome, err := inst.ApplyPayment(valueobject.NewMoneyBRLFromFloat(200), PaymentMethodPix, "", settledAt)
	require.NoError(t, err)

	assert.True(t, outcome.IsPaid)
	assert.Equal(t, "0.00", outcome.Remaining.StringFixed(2))
	require.NotNil(t, inst.PaidAt)
	assert.Equal(t, settledAt, *inst.PaidAt)
	// Settlement leaves the due date untouched.
	assert.Equal(t, mustDay(2024, 2, 5), inst.DueDate)
	assert.Contains(t, outcome.Message, "settled in full")
}

func TestInstallment_ApplyPayment_ResidualCentCountsAsSettled(t *testing.T) {
	inst := createTestInstallment(t, 100.00, mustDay(2024, 1, 10))

	outcome, err := inst.ApplyPayment(valueobject.NewMoneyBRLFromFloat(99.99), PaymentMethodCash, "", mustDay(2024, 1, 8))
	require.NoError(t, err)

	assert.True(t, outcome.IsPaid, "one cent residual is settled")
	assert.NotNil(t, inst.PaidAt)
}

func TestInstallment_ApplyPayment_Rejections(t *testing.T) {
	t.Run("zero amount", func(t *testing.T) {
		inst := createTestInstallment(t, 100, mustDay(2024, 1, 10))
		_, err := inst.ApplyPayment(valueobject.ZeroBRL(), PaymentMethodPix, "", mustDay(2024, 1, 5))
		require.Error(t, err)
	})

	t.Run("negative amount", func(t *testing.T) {
		inst := createTestInstallment(t, 100, mustDay(2024, 1, 10))
		_, err := inst.ApplyPayment(valueobject.NewMoneyBRLFromFloat(-10), PaymentMethodPix, "", mustDay(2024, 1, 5))
		require.Error(t, err)
	})

	t.Run("exceeds remaining carries both values", func(t *testing.T) {
		inst := createTestInstallment(t, 100, mustDay(2024, 1, 10))
		_, err := inst.ApplyPayment(valueobject.NewMoneyBRLFromFloat(150), PaymentMethodPix, "", mustDay(2024, 1, 5))
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "AMOUNT_EXCEEDS_REMAINING", domainErr.Code)
		assert.Contains(t, domainErr.Message, "150.00")
		assert.Contains(t, domainErr.Message, "100.00")
	})

	t.Run("already paid", func(t *testing.T) {
		inst := createTestInstallment(t, 100, mustDay(2024, 1, 10))
		_, err := inst.ApplyPayment(valueobject.NewMoneyBRLFromFloat(100), PaymentMethodPix, "", mustDay(2024, 1, 5))
		require.NoError(t, err)

		_, err = inst.ApplyPayment(valueobject.NewMoneyBRLFromFloat(1), PaymentMethodPix, "", mustDay(2024, 1, 6))
		assert.ErrorIs(t, err, ErrAlreadyPaid)
	})
}

func TestInstallment_LedgerInvariantAcrossPayments(t *testing.T) {
	// amount == remaining + sum(payments) within 0.01, and remaining never
	// increases.
	inst := createTestInstallment(t, 500.00, mustDay(2024, 1, 10))
	var payments []*Payment
	prevRemaining := inst.RemainingAmount

	steps := []float64{120.50, 79.49, 200.01, 100.00}
	day := mustDay(2024, 1, 11)
	for _, amount := range steps {
		outcome, err := inst.ApplyPayment(valueobject.NewMoneyBRLFromFloat(amount), PaymentMethodCash, "", day)
		require.NoError(t, err)
		payments = append(payments, outcome.Payment)

		assert.True(t, inst.RemainingAmount.LessThanOrEqual(prevRemaining),
			"remaining must be monotonically non-increasing")
		prevRemaining = inst.RemainingAmount

		diff := inst.Amount.Sub(inst.RemainingAmount.Add(sumPayments(payments))).Abs()
		assert.True(t, diff.LessThanOrEqual(decimal.NewFromFloat(0.01)),
			"invariant violated: diff=%s", diff)

		day = day.AddDate(0, 0, 1)
	}

	assert.True(t, inst.IsPaid)
}

func TestInstallment_MarkReminderSent(t *testing.T) {
	inst := createTestInstallment(t, 100, mustDay(2024, 1, 10))
	require.Nil(t, inst.LastMessageSentAt)
	require.Zero(t, inst.MessageCount)

	now := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	inst.MarkReminderSent(now)

	require.NotNil(t, inst.LastMessageSentAt)
	assert.Equal(t, now, *inst.LastMessageSentAt)
	assert.Equal(t, 1, inst.MessageCount)
	// Balance fields stay untouched.
	assert.True(t, inst.Amount.Equal(inst.RemainingAmount))
	assert.False(t, inst.IsPaid)
}

func TestInstallment_OverdueHelpers(t *testing.T) {
	inst := createTestInstallment(t, 100, mustDay(2024, 1, 10))

	assert.False(t, inst.IsOverdue(mustDay(2024, 1, 10)))
	assert.Zero(t, inst.DaysOverdue(mustDay(2024, 1, 10)))
	assert.True(t, inst.IsOverdue(mustDay(2024, 1, 13)))
	assert.Equal(t, 3, inst.DaysOverdue(mustDay(2024, 1, 13)))

	_, err := inst.ApplyPayment(valueobject.NewMoneyBRLFromFloat(100), PaymentMethodPix, "", mustDay(2024, 1, 20))
	require.NoError(t, err)
	assert.False(t, inst.IsOverdue(mustDay(2024, 2, 20)), "paid installments are never overdue")
}
