package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/varejo/backend/internal/domain/billing"
)

// InstallmentModel is the persistence model for the Installment aggregate root.
type InstallmentModel struct {
	CompanyAggregateModel
	CustomerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	InstallmentNumber int             `gorm:"not null"`
	TotalInstallments int             `gorm:"not null"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	RemainingAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null;index"`
	DueDate           time.Time       `gorm:"not null;index"`
	IsPaid            bool            `gorm:"not null;default:false;index"`
	PaidAt            *time.Time
	LastMessageSentAt *time.Time
	MessageCount      int            `gorm:"not null;default:0"`
	Description       string         `gorm:"type:text"`
	Payments          []PaymentModel `gorm:"foreignKey:InstallmentID;references:ID"`
}

// TableName returns the table name for GORM
func (InstallmentModel) TableName() string {
	return "installments"
}

// ToDomain converts the persistence model to a domain Installment.
func (m *InstallmentModel) ToDomain() *billing.Installment {
	inst := &billing.Installment{
		CustomerID:        m.CustomerID,
		SaleID:            m.SaleID,
		InstallmentNumber: m.InstallmentNumber,
		TotalInstallments: m.TotalInstallments,
		Amount:            m.Amount,
		RemainingAmount:   m.RemainingAmount,
		DueDate:           m.DueDate,
		IsPaid:            m.IsPaid,
		PaidAt:            m.PaidAt,
		LastMessageSentAt: m.LastMessageSentAt,
		MessageCount:      m.MessageCount,
		Description:       m.Description,
	}
	m.PopulateCompanyAggregateRoot(&inst.CompanyAggregateRoot)
	return inst
}

// FromDomain populates the persistence model from a domain Installment.
func (m *InstallmentModel) FromDomain(inst *billing.Installment) {
	m.FromDomainCompanyAggregateRoot(inst.CompanyAggregateRoot)
	m.CustomerID = inst.CustomerID
	m.SaleID = inst.SaleID
	m.InstallmentNumber = inst.InstallmentNumber
	m.TotalInstallments = inst.TotalInstallments
	m.Amount = inst.Amount
	m.RemainingAmount = inst.RemainingAmount
	m.DueDate = inst.DueDate
	m.IsPaid = inst.IsPaid
	m.PaidAt = inst.PaidAt
	m.LastMessageSentAt = inst.LastMessageSentAt
	m.MessageCount = inst.MessageCount
	m.Description = inst.Description
}

// InstallmentModelFromDomain creates a new persistence model from a domain Installment.
func InstallmentModelFromDomain(inst *billing.Installment) *InstallmentModel {
	m := &InstallmentModel{}
	m.FromDomain(inst)
	return m
}

// PaymentModel is the persistence model for the append-only payment log.
type PaymentModel struct {
	BaseModel
	InstallmentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	CompanyID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaymentMethod string          `gorm:"type:varchar(20);not null"`
	Notes         string          `gorm:"type:text"`
	PaymentDate   time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "installment_payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *billing.Payment {
	return &billing.Payment{
		BaseEntity:    m.BaseModel.ToDomain(),
		InstallmentID: m.InstallmentID,
		CompanyID:     m.CompanyID,
		Amount:        m.Amount,
		PaymentMethod: billing.PaymentMethod(m.PaymentMethod),
		Notes:         m.Notes,
		PaymentDate:   m.PaymentDate,
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{
		InstallmentID: p.InstallmentID,
		CompanyID:     p.CompanyID,
		Amount:        p.Amount,
		PaymentMethod: string(p.PaymentMethod),
		Notes:         p.Notes,
		PaymentDate:   p.PaymentDate,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
