package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appbilling "github.com/varejo/backend/internal/application/billing"
	"github.com/varejo/backend/internal/domain/billing"
)

// CreateInstallmentRequest is the payload for creating one installment
type CreateInstallmentRequest struct {
	CustomerID        string  `json:"customer_id" binding:"required,uuid"`
	SaleID            string  `json:"sale_id" binding:"required,uuid"`
	InstallmentNumber int     `json:"installment_number" binding:"required,min=1"`
	TotalInstallments int     `json:"total_installments" binding:"required,min=1"`
	Amount            float64 `json:"amount" binding:"required,gt=0"`
	DueDate           string  `json:"due_date" binding:"required,datetime=2006-01-02"`
	Description       string  `json:"description" binding:"omitempty,max=500"`
}

// PayInstallmentRequest is the payload for a single payment
type PayInstallmentRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" binding:"required,paymentmethod"`
	Notes         string  `json:"notes" binding:"omitempty,max=500"`
}

// BulkPaymentItemRequest selects one installment in a bulk payment
type BulkPaymentItemRequest struct {
	InstallmentID string   `json:"installment_id" binding:"required,uuid"`
	Amount        *float64 `json:"amount" binding:"omitempty,gt=0"`
}

// BulkPaymentRequest is the payload for paying several installments at once
type BulkPaymentRequest struct {
	PayAll        bool                     `json:"pay_all"`
	Installments  []BulkPaymentItemRequest `json:"installments" binding:"omitempty,dive"`
	PaymentMethod string                   `json:"payment_method" binding:"required,paymentmethod"`
	Notes         string                   `json:"notes" binding:"omitempty,max=500"`
}

// ListInstallmentsRequest carries the list filter query parameters
type ListInstallmentsRequest struct {
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	SaleID     string `form:"sale_id" binding:"omitempty,uuid"`
	IsPaid     *bool  `form:"is_paid"`
	Overdue    *bool  `form:"overdue"`
	OrderBy    string `form:"order_by" binding:"omitempty,oneof=due_date created_at remaining_amount"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InstallmentResponse is the API view of one installment
type InstallmentResponse struct {
	ID                uuid.UUID  `json:"id"`
	CompanyID         uuid.UUID  `json:"company_id"`
	CustomerID        uuid.UUID  `json:"customer_id"`
	SaleID            uuid.UUID  `json:"sale_id"`
	Label             string     `json:"label"`
	InstallmentNumber int        `json:"installment_number"`
	TotalInstallments int        `json:"total_installments"`
	Amount            string     `json:"amount"`
	RemainingAmount   string     `json:"remaining_amount"`
	DueDate           string     `json:"due_date"`
	IsPaid            bool       `json:"is_paid"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	MessageCount      int        `json:"message_count"`
	Description       string     `json:"description,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// PaymentResponse is the API view of one payment record
type PaymentResponse struct {
	ID            uuid.UUID `json:"id"`
	InstallmentID uuid.UUID `json:"installment_id"`
	Amount        string    `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	Notes         string    `json:"notes,omitempty"`
	PaymentDate   time.Time `json:"payment_date"`
}

// PayInstallmentResponse reports a single payment outcome
type PayInstallmentResponse struct {
	Installment InstallmentResponse `json:"installment"`
	Payment     PaymentResponse     `json:"payment"`
	Message     string              `json:"message"`
}

// BulkPaymentOutcomeResponse is one line of a bulk payment result
type BulkPaymentOutcomeResponse struct {
	InstallmentID uuid.UUID `json:"installment_id"`
	AmountPaid    string    `json:"amount_paid"`
	Remaining     string    `json:"remaining"`
	IsPaid        bool      `json:"is_paid"`
	NextDueDate   string    `json:"next_due_date"`
	Message       string    `json:"message"`
}

// BulkPaymentResponse reports a bulk payment outcome
type BulkPaymentResponse struct {
	TotalPaid string                       `json:"total_paid"`
	Results   []BulkPaymentOutcomeResponse `json:"results"`
}

func toInstallmentResponse(inst *billing.Installment) InstallmentResponse {
	return InstallmentResponse{
		ID:                inst.ID,
		CompanyID:         inst.CompanyID,
		CustomerID:        inst.CustomerID,
		SaleID:            inst.SaleID,
		Label:             inst.Label(),
		InstallmentNumber: inst.InstallmentNumber,
		TotalInstallments: inst.TotalInstallments,
		Amount:            inst.Amount.StringFixed(2),
		RemainingAmount:   inst.RemainingAmount.StringFixed(2),
		DueDate:           inst.DueDate.Format("2006-01-02"),
		IsPaid:            inst.IsPaid,
		PaidAt:            inst.PaidAt,
		MessageCount:      inst.MessageCount,
		Description:       inst.Description,
		CreatedAt:         inst.CreatedAt,
		UpdatedAt:         inst.UpdatedAt,
	}
}

func toPaymentResponse(p *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		InstallmentID: p.InstallmentID,
		Amount:        p.Amount.StringFixed(2),
		PaymentMethod: string(p.PaymentMethod),
		Notes:         p.Notes,
		PaymentDate:   p.PaymentDate,
	}
}

func toBulkPaymentResponse(result *appbilling.BulkPaymentResult) BulkPaymentResponse {
	resp := BulkPaymentResponse{
		TotalPaid: result.TotalPaid.StringFixed(2),
		Results:   make([]BulkPaymentOutcomeResponse, len(result.Results)),
	}
	for i, outcome := range result.Results {
		resp.Results[i] = BulkPaymentOutcomeResponse{
			InstallmentID: outcome.InstallmentID,
			AmountPaid:    outcome.AmountPaid.StringFixed(2),
			Remaining:     outcome.Remaining.StringFixed(2),
			IsPaid:        outcome.IsPaid,
			NextDueDate:   outcome.NextDueDate.Format("2006-01-02"),
			Message:       outcome.Message,
		}
	}
	return resp
}

func decimalFromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}
