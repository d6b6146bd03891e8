package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/varejo/backend/internal/domain/shared"
	"github.com/varejo/backend/internal/domain/shared/valueobject"
)

// PaymentMethod represents how a payment was settled
type PaymentMethod string

const (
	PaymentMethodPix        PaymentMethod = "PIX"
	PaymentMethodCash       PaymentMethod = "CASH"
	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentMethodTransfer   PaymentMethod = "TRANSFER"
	PaymentMethodOther      PaymentMethod = "OTHER"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodPix, PaymentMethodCash, PaymentMethodCreditCard,
		PaymentMethodDebitCard, PaymentMethodTransfer, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// Payment records a single settlement event against an installment.
// Payments are append-only: corrections are made by recording new payments,
// never by editing history.
type Payment struct {
	shared.BaseEntity
	InstallmentID uuid.UUID       `json:"installment_id"`
	CompanyID     uuid.UUID       `json:"company_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Notes         string          `json:"notes,omitempty"`
	PaymentDate   time.Time       `json:"payment_date"`
}

// NewPayment creates a new payment record
func NewPayment(installmentID, companyID uuid.UUID, amount valueobject.Money, method PaymentMethod, notes string, paymentDate time.Time) (*Payment, error) {
	if installmentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INSTALLMENT", "Installment ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}

	return &Payment{
		BaseEntity:    shared.NewBaseEntity(),
		InstallmentID: installmentID,
		CompanyID:     companyID,
		Amount:        amount.Amount(),
		PaymentMethod: method,
		Notes:         notes,
		PaymentDate:   paymentDate,
	}, nil
}

// GetAmountMoney returns the amount as Money value object
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(p.Amount)
}
