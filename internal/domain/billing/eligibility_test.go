package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varejo/backend/internal/domain/shared/valueobject"
)

func TestEvaluateReminder_DueToday(t *testing.T) {
	today := mustDay(2024, 3, 15)

	t.Run("never messaged fires", func(t *testing.T) {
		inst := createTestInstallment(t, 100, today)
		assert.Equal(t, ReminderDueToday, EvaluateReminder(inst, today))
	})

	t.Run("already messaged today does not fire again", func(t *testing.T) {
		inst := createTestInstallment(t, 100, today)
		sentAt := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
		inst.LastMessageSentAt = &sentAt
		assert.Equal(t, ReminderNone, EvaluateReminder(inst, today))
	})

	t.Run("messaged yesterday fires", func(t *testing.T) {
		inst := createTestInstallment(t, 100, today)
		sentAt := mustDay(2024, 3, 14)
		inst.LastMessageSentAt = &sentAt
		assert.Equal(t, ReminderDueToday, EvaluateReminder(inst, today))
	})
}

func TestEvaluateReminder_OverdueCadence(t *testing.T) {
	today := mustDay(2024, 3, 15)
	dueDate := mustDay(2024, 3, 12) // 3 days overdue

	tests := []struct {
		name     string
		lastSent *time.Time
		want     ReminderKind
	}{
		{"never messaged", nil, ReminderOverdue},
		{"messaged 1 day ago", ptrTime(mustDay(2024, 3, 14)), ReminderNone},
		{"messaged 2 days ago", ptrTime(mustDay(2024, 3, 13)), ReminderNone},
		{"messaged exactly 3 days ago", ptrTime(mustDay(2024, 3, 12)), ReminderOverdue},
		{"messaged 5 days ago", ptrTime(mustDay(2024, 3, 10)), ReminderOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := createTestInstallment(t, 100, dueDate)
			inst.LastMessageSentAt = tt.lastSent
			assert.Equal(t, tt.want, EvaluateReminder(inst, today))
		})
	}
}

func TestEvaluateReminder_NeverFires(t *testing.T) {
	today := mustDay(2024, 3, 15)

	t.Run("future due date", func(t *testing.T) {
		inst := createTestInstallment(t, 100, mustDay(2024, 3, 20))
		assert.Equal(t, ReminderNone, EvaluateReminder(inst, today))
	})

	t.Run("paid installment", func(t *testing.T) {
		inst := createTestInstallment(t, 100, today)
		_, err := inst.ApplyPayment(valueobject.NewMoneyBRLFromFloat(100), PaymentMethodPix, "", today)
		require.NoError(t, err)
		assert.Equal(t, ReminderNone, EvaluateReminder(inst, today))
	})
}

func TestEvaluateReminder_SingleFirePerDayAfterSend(t *testing.T) {
	// Eligible in the morning, a send is recorded, re-evaluating the same
	// day must be a no-op.
	today := mustDay(2024, 3, 15)
	inst := createTestInstallment(t, 100, today)

	require.Equal(t, ReminderDueToday, EvaluateReminder(inst, today))
	inst.MarkReminderSent(time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, ReminderNone, EvaluateReminder(inst, today))
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
