package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/varejo/backend/internal/domain/shared"
	"github.com/varejo/backend/internal/domain/shared/valueobject"
)

// Billing-specific domain errors
var (
	// ErrAlreadyPaid is returned when a payment targets a settled installment
	ErrAlreadyPaid = shared.NewDomainError("ALREADY_PAID", "Installment is already fully paid")
	// ErrNoInstallmentsSelected is returned when a bulk payment selects nothing
	ErrNoInstallmentsSelected = shared.NewDomainError("NO_INSTALLMENTS_SELECTED", "Select installments to pay or use pay_all")
)

// NewAmountExceedsRemainingError builds the overpayment rejection carrying
// both values for user display.
func NewAmountExceedsRemainingError(amount, remaining valueobject.Money) *shared.DomainError {
	return shared.NewDomainError(
		"AMOUNT_EXCEEDS_REMAINING",
		fmt.Sprintf("Payment amount %s exceeds remaining amount %s", amount.StringFixed(2), remaining.StringFixed(2)),
	)
}

// NewBulkAmountExceedsRemainingError is the bulk-payment variant: it also
// names the installment so the failing line of a batch is identifiable.
func NewBulkAmountExceedsRemainingError(installmentID uuid.UUID, amount, remaining valueobject.Money) *shared.DomainError {
	return shared.NewDomainError(
		"AMOUNT_EXCEEDS_REMAINING",
		fmt.Sprintf("Payment amount %s for installment %s exceeds remaining amount %s",
			amount.StringFixed(2), installmentID, remaining.StringFixed(2)),
	)
}

// Installment is one scheduled slice of a multi-payment debt tied to a sale
// and customer. It is the aggregate root of the installment ledger: the
// original amount never changes, the remaining balance only decreases, and
// the paid flag is derived from the remaining balance alone.
type Installment struct {
	shared.CompanyAggregateRoot
	CustomerID        uuid.UUID       `json:"customer_id"`
	SaleID            uuid.UUID       `json:"sale_id"`
	InstallmentNumber int             `json:"installment_number"`
	TotalInstallments int             `json:"total_installments"`
	Amount            decimal.Decimal `json:"amount"`
	RemainingAmount   decimal.Decimal `json:"remaining_amount"`
	DueDate           time.Time       `json:"due_date"`
	IsPaid            bool            `json:"is_paid"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	LastMessageSentAt *time.Time      `json:"last_message_sent_at,omitempty"`
	MessageCount      int             `json:"message_count"`
	Description       string          `json:"description,omitempty"`
}

// NewInstallment creates an installment with the full amount still owed
func NewInstallment(
	companyID uuid.UUID,
	customerID uuid.UUID,
	saleID uuid.UUID,
	installmentNumber int,
	totalInstallments int,
	amount valueobject.Money,
	dueDate time.Time,
	description string,
) (*Installment, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if saleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SALE", "Sale ID cannot be empty")
	}
	if totalInstallments < 1 {
		return nil, shared.NewDomainError("INVALID_INSTALLMENT_NUMBER", "Total installments must be at least 1")
	}
	if installmentNumber < 1 || installmentNumber > totalInstallments {
		return nil, shared.NewDomainError("INVALID_INSTALLMENT_NUMBER",
			fmt.Sprintf("Installment number must be between 1 and %d", totalInstallments))
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Installment amount cannot be negative")
	}
	if dueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date is required")
	}

	rounded := amount.Round2()
	inst := &Installment{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		CustomerID:           customerID,
		SaleID:               saleID,
		InstallmentNumber:    installmentNumber,
		TotalInstallments:    totalInstallments,
		Amount:               rounded.Amount(),
		RemainingAmount:      rounded.Amount(),
		DueDate:              dueDate,
		IsPaid:               false,
		Description:          description,
	}

	inst.AddDomainEvent(NewInstallmentCreatedEvent(inst))

	return inst, nil
}

// PaymentOutcome describes the ledger state after a payment was applied
type PaymentOutcome struct {
	Payment     *Payment
	Remaining   valueobject.Money
	IsPaid      bool
	NextDueDate time.Time
	Message     string
}

// ApplyPayment settles part or all of the remaining balance. On a partial
// payment the due date rolls forward one calendar month from max(due, now);
// on full settlement the due date stays put and PaidAt is recorded. The
// caller persists payment and installment in one transaction.
func (i *Installment) ApplyPayment(amount valueobject.Money, method PaymentMethod, notes string, now time.Time) (*PaymentOutcome, error) {
	if i.IsPaid {
		return nil, ErrAlreadyPaid
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	remaining := i.GetRemainingMoney()
	if exceeds, err := amount.GreaterThan(remaining); err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", err.Error())
	} else if exceeds {
		return nil, NewAmountExceedsRemainingError(amount, remaining)
	}

	payment, err := NewPayment(i.ID, i.CompanyID, amount, method, notes, now)
	if err != nil {
		return nil, err
	}

	newRemaining := remaining.MustSubtract(amount).Round2().FlooredAtZero()
	i.RemainingAmount = newRemaining.Amount()
	i.IsPaid = newRemaining.IsSettled()

	outcome := &PaymentOutcome{
		Payment:   payment,
		Remaining: newRemaining,
		IsPaid:    i.IsPaid,
	}

	if i.IsPaid {
		paidAt := now
		i.PaidAt = &paidAt
		outcome.NextDueDate = i.DueDate
		outcome.Message = fmt.Sprintf("Installment %d/%d settled in full", i.InstallmentNumber, i.TotalInstallments)
		i.AddDomainEvent(NewInstallmentSettledEvent(i, payment))
	} else {
		// A partial payment restructures the next charge instead of leaving
		// a stale past due date.
		reference := i.DueDate
		if now.After(reference) {
			reference = now
		}
		i.DueDate = shared.AddCalendarMonth(reference)
		outcome.NextDueDate = i.DueDate
		outcome.Message = fmt.Sprintf("%s remaining, next due date %s",
			newRemaining.StringFixed(2), i.DueDate.Format("2006-01-02"))
		i.AddDomainEvent(NewInstallmentPaymentAppliedEvent(i, payment))
	}

	i.UpdatedAt = now
	i.IncrementVersion()

	return outcome, nil
}

// MarkReminderSent records a dunning message against the installment.
// This is the only write path the dunning engine owns; it never touches
// the balance fields.
func (i *Installment) MarkReminderSent(now time.Time) {
	sentAt := now
	i.LastMessageSentAt = &sentAt
	i.MessageCount++
	i.UpdatedAt = now
	i.IncrementVersion()
	i.AddDomainEvent(NewInstallmentReminderSentEvent(i))
}

// GetAmountMoney returns the original slice amount as Money
func (i *Installment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(i.Amount)
}

// GetRemainingMoney returns the unpaid balance as Money
func (i *Installment) GetRemainingMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(i.RemainingAmount)
}

// IsOverdue reports whether the installment is unpaid and past due on the
// given day
func (i *Installment) IsOverdue(today time.Time) bool {
	if i.IsPaid {
		return false
	}
	return shared.DaysBetween(i.DueDate, today) > 0
}

// DaysOverdue returns the number of whole days past due (0 if not overdue)
func (i *Installment) DaysOverdue(today time.Time) int {
	if !i.IsOverdue(today) {
		return 0
	}
	return shared.DaysBetween(i.DueDate, today)
}

// Label returns the "N/M" position of the slice within its payment plan
func (i *Installment) Label() string {
	return fmt.Sprintf("%d/%d", i.InstallmentNumber, i.TotalInstallments)
}
