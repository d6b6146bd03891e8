package billing

import (
	"time"

	"github.com/varejo/backend/internal/domain/shared"
)

// OverdueReminderIntervalDays is the minimum gap between repeated overdue
// reminders for the same installment.
const OverdueReminderIntervalDays = 3

// ReminderKind classifies which reminder, if any, an installment should
// trigger today.
type ReminderKind string

const (
	ReminderNone     ReminderKind = "NONE"
	ReminderDueToday ReminderKind = "DUE_TODAY"
	ReminderOverdue  ReminderKind = "OVERDUE"
)

// EvaluateReminder is the pure dunning eligibility decision. It reads the
// installment and the current day and never mutates state:
//
//   - due today: remind at most once per calendar day
//   - overdue: remind when at least OverdueReminderIntervalDays whole days
//     passed since the last message (or none was ever sent)
//   - future due date or already paid: never remind
func EvaluateReminder(i *Installment, today time.Time) ReminderKind {
	if i.IsPaid {
		return ReminderNone
	}

	switch days := shared.DaysBetween(i.DueDate, today); {
	case days == 0:
		if i.LastMessageSentAt == nil || !shared.SameCalendarDay(*i.LastMessageSentAt, today) {
			return ReminderDueToday
		}
		return ReminderNone
	case days > 0:
		if i.LastMessageSentAt == nil || shared.DaysBetween(*i.LastMessageSentAt, today) >= OverdueReminderIntervalDays {
			return ReminderOverdue
		}
		return ReminderNone
	default:
		return ReminderNone
	}
}
