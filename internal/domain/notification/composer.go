package notification

import (
	"fmt"

	"github.com/varejo/backend/internal/domain/shared/valueobject"
)

// Reminder carries everything the message templates need. The composer is
// deliberately dumb: eligibility and state live with the caller.
type Reminder struct {
	CustomerName     string
	InstallmentLabel string // "N/M" position within the payment plan
	AmountDue        valueobject.Money
	DueDate          string // formatted calendar date
	DaysOverdue      int    // 0 for due-today reminders
	SaleDescription  string
}

// ComposeDueToday renders the reminder sent on the due date itself
func ComposeDueToday(r Reminder) string {
	msg := fmt.Sprintf(
		"Hello %s! Friendly reminder: installment %s of R$ %s is due today (%s).",
		r.CustomerName, r.InstallmentLabel, r.AmountDue.StringFixed(2), r.DueDate,
	)
	if r.SaleDescription != "" {
		msg += fmt.Sprintf(" Purchase: %s.", r.SaleDescription)
	}
	msg += " Please disregard if already paid."
	return msg
}

// ComposeOverdue renders the repeated reminder for a past-due installment
func ComposeOverdue(r Reminder) string {
	dayWord := "days"
	if r.DaysOverdue == 1 {
		dayWord = "day"
	}
	msg := fmt.Sprintf(
		"Hello %s! Installment %s of R$ %s was due on %s and is %d %s overdue.",
		r.CustomerName, r.InstallmentLabel, r.AmountDue.StringFixed(2), r.DueDate, r.DaysOverdue, dayWord,
	)
	if r.SaleDescription != "" {
		msg += fmt.Sprintf(" Purchase: %s.", r.SaleDescription)
	}
	msg += " Please contact us to settle your balance."
	return msg
}
