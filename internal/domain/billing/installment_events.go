package billing

import (
	"github.com/shopspring/decimal"

	"github.com/varejo/backend/internal/domain/shared"
)

// Event type constants for the installment ledger
const (
	EventTypeInstallmentCreated      = "billing.installment.created"
	EventTypeInstallmentPayment      = "billing.installment.payment_applied"
	EventTypeInstallmentSettled      = "billing.installment.settled"
	EventTypeInstallmentReminderSent = "billing.installment.reminder_sent"
)

const aggregateTypeInstallment = "Installment"

// InstallmentCreatedEvent is raised when a sale is split into a payment plan
type InstallmentCreatedEvent struct {
	shared.BaseDomainEvent
	CustomerID        string          `json:"customer_id"`
	SaleID            string          `json:"sale_id"`
	InstallmentNumber int             `json:"installment_number"`
	TotalInstallments int             `json:"total_installments"`
	Amount            decimal.Decimal `json:"amount"`
	DueDate           string          `json:"due_date"`
}

// NewInstallmentCreatedEvent creates a new InstallmentCreatedEvent
func NewInstallmentCreatedEvent(i *Installment) *InstallmentCreatedEvent {
	return &InstallmentCreatedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeInstallmentCreated, aggregateTypeInstallment, i.ID, i.CompanyID),
		CustomerID:        i.CustomerID.String(),
		SaleID:            i.SaleID.String(),
		InstallmentNumber: i.InstallmentNumber,
		TotalInstallments: i.TotalInstallments,
		Amount:            i.Amount,
		DueDate:           i.DueDate.Format("2006-01-02"),
	}
}

// InstallmentPaymentAppliedEvent is raised on a partial payment
type InstallmentPaymentAppliedEvent struct {
	shared.BaseDomainEvent
	PaymentID       string          `json:"payment_id"`
	PaymentMethod   string          `json:"payment_method"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	NextDueDate     string          `json:"next_due_date"`
}

// NewInstallmentPaymentAppliedEvent creates a new InstallmentPaymentAppliedEvent
func NewInstallmentPaymentAppliedEvent(i *Installment, p *Payment) *InstallmentPaymentAppliedEvent {
	return &InstallmentPaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentPayment, aggregateTypeInstallment, i.ID, i.CompanyID),
		PaymentID:       p.ID.String(),
		PaymentMethod:   p.PaymentMethod.String(),
		PaidAmount:      p.Amount,
		RemainingAmount: i.RemainingAmount,
		NextDueDate:     i.DueDate.Format("2006-01-02"),
	}
}

// InstallmentSettledEvent is raised when the remaining balance reaches zero
type InstallmentSettledEvent struct {
	shared.BaseDomainEvent
	PaymentID     string          `json:"payment_id"`
	PaymentMethod string          `json:"payment_method"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
}

// NewInstallmentSettledEvent creates a new InstallmentSettledEvent
func NewInstallmentSettledEvent(i *Installment, p *Payment) *InstallmentSettledEvent {
	return &InstallmentSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentSettled, aggregateTypeInstallment, i.ID, i.CompanyID),
		PaymentID:       p.ID.String(),
		PaymentMethod:   p.PaymentMethod.String(),
		PaidAmount:      p.Amount,
	}
}

// InstallmentReminderSentEvent is raised when a dunning message went out
type InstallmentReminderSentEvent struct {
	shared.BaseDomainEvent
	CustomerID   string `json:"customer_id"`
	MessageCount int    `json:"message_count"`
}

// NewInstallmentReminderSentEvent creates a new InstallmentReminderSentEvent
func NewInstallmentReminderSentEvent(i *Installment) *InstallmentReminderSentEvent {
	return &InstallmentReminderSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentReminderSent, aggregateTypeInstallment, i.ID, i.CompanyID),
		CustomerID:      i.CustomerID.String(),
		MessageCount:    i.MessageCount,
	}
}
