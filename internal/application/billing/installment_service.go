package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/varejo/backend/internal/domain/billing"
	"github.com/varejo/backend/internal/domain/partner"
	"github.com/varejo/backend/internal/domain/shared"
	"github.com/varejo/backend/internal/domain/shared/valueobject"
	"github.com/varejo/backend/internal/domain/trade"
)

// bulkAmountTolerance absorbs float noise in caller-supplied bulk amounts:
// anything up to this much above the remaining balance is clamped instead
// of rejected.
var bulkAmountTolerance = decimal.NewFromFloat(0.0001)

// InstallmentService orchestrates the installment ledger: creation with
// tenant-scoped ownership checks, payment allocation (single and bulk) and
// the read-side aggregations.
type InstallmentService struct {
	installmentRepo billing.InstallmentRepository
	paymentRepo     billing.PaymentRepository
	ledgerTx        billing.LedgerTx
	customerRepo    partner.CustomerRepository
	saleRepo        trade.SaleRepository
	logger          *zap.Logger
	now             func() time.Time
}

// NewInstallmentService creates a new InstallmentService
func NewInstallmentService(
	installmentRepo billing.InstallmentRepository,
	paymentRepo billing.PaymentRepository,
	ledgerTx billing.LedgerTx,
	customerRepo partner.CustomerRepository,
	saleRepo trade.SaleRepository,
	logger *zap.Logger,
) *InstallmentService {
	return &InstallmentService{
		installmentRepo: installmentRepo,
		paymentRepo:     paymentRepo,
		ledgerTx:        ledgerTx,
		customerRepo:    customerRepo,
		saleRepo:        saleRepo,
		logger:          logger,
		now:             time.Now,
	}
}

// CreateInstallmentRequest carries the inputs to split one slice of a sale
type CreateInstallmentRequest struct {
	CompanyID         uuid.UUID
	CustomerID        uuid.UUID
	SaleID            uuid.UUID
	InstallmentNumber int
	TotalInstallments int
	Amount            decimal.Decimal
	DueDate           time.Time
	Description       string
}

// CreateInstallment creates one installment after proving the sale and
// customer exist and belong to the calling company.
func (s *InstallmentService) CreateInstallment(ctx context.Context, req CreateInstallmentRequest) (*billing.Installment, error) {
	sale, err := s.saleRepo.FindByIDForCompany(ctx, req.CompanyID, req.SaleID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify sale: %w", err)
	}
	customer, err := s.customerRepo.FindByIDForCompany(ctx, req.CompanyID, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify customer: %w", err)
	}
	if sale.CustomerID != customer.ID {
		return nil, shared.NewDomainError("NOT_FOUND", "Sale does not belong to the given customer")
	}

	inst, err := billing.NewInstallment(
		req.CompanyID,
		req.CustomerID,
		req.SaleID,
		req.InstallmentNumber,
		req.TotalInstallments,
		valueobject.NewMoneyBRL(req.Amount),
		req.DueDate,
		req.Description,
	)
	if err != nil {
		return nil, err
	}

	if err := s.installmentRepo.Save(ctx, inst); err != nil {
		return nil, fmt.Errorf("failed to save installment: %w", err)
	}

	s.logger.Info("Installment created",
		zap.String("installment_id", inst.ID.String()),
		zap.String("company_id", req.CompanyID.String()),
		zap.String("sale_id", req.SaleID.String()),
		zap.String("position", inst.Label()),
		zap.String("amount", inst.Amount.StringFixed(2)),
	)

	return inst, nil
}

// PayInstallmentRequest carries the inputs for a single payment
type PayInstallmentRequest struct {
	// CompanyID scopes the lookup when set; uuid.Nil skips tenant scoping
	// (internal callers only).
	CompanyID     uuid.UUID
	InstallmentID uuid.UUID
	Amount        decimal.Decimal
	PaymentMethod billing.PaymentMethod
	Notes         string
}

// PayInstallmentResult reports the ledger state after a payment
type PayInstallmentResult struct {
	Installment *billing.Installment `json:"installment"`
	Payment     *billing.Payment     `json:"payment"`
	Message     string               `json:"message"`
}

// PayInstallment applies one payment to one installment. Payment insert and
// installment update run in a single transaction, and the installment write
// uses an optimistic version check so concurrent payments cannot both
// subtract from the same snapshot.
func (s *InstallmentService) PayInstallment(ctx context.Context, req PayInstallmentRequest) (*PayInstallmentResult, error) {
	inst, err := s.findInstallment(ctx, req.CompanyID, req.InstallmentID)
	if err != nil {
		return nil, err
	}

	outcome, err := inst.ApplyPayment(valueobject.NewMoneyBRL(req.Amount), req.PaymentMethod, req.Notes, s.now())
	if err != nil {
		return nil, err
	}

	err = s.ledgerTx.InTransaction(ctx, func(installments billing.InstallmentRepository, payments billing.PaymentRepository) error {
		if err := payments.Create(ctx, outcome.Payment); err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}
		if err := installments.SaveWithLock(ctx, inst); err != nil {
			return fmt.Errorf("failed to update installment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment applied",
		zap.String("installment_id", inst.ID.String()),
		zap.String("payment_id", outcome.Payment.ID.String()),
		zap.String("amount", outcome.Payment.Amount.StringFixed(2)),
		zap.String("remaining", inst.RemainingAmount.StringFixed(2)),
		zap.Bool("is_paid", inst.IsPaid),
	)

	return &PayInstallmentResult{
		Installment: inst,
		Payment:     outcome.Payment,
		Message:     outcome.Message,
	}, nil
}

// BulkPaymentItem selects one installment in an explicit bulk payment.
// A nil Amount means "pay the full remaining balance".
type BulkPaymentItem struct {
	InstallmentID uuid.UUID
	Amount        *decimal.Decimal
}

// BulkPaymentRequest carries the inputs for a bulk payment
type BulkPaymentRequest struct {
	CompanyID     uuid.UUID
	CustomerID    uuid.UUID
	PayAll        bool
	Items         []BulkPaymentItem
	PaymentMethod billing.PaymentMethod
	Notes         string
}

// BulkPaymentResult reports the total and the per-installment outcomes
type BulkPaymentResult struct {
	TotalPaid decimal.Decimal      `json:"total_paid"`
	Results   []BulkPaymentOutcome `json:"results"`
}

// BulkPaymentOutcome is one settled line of a bulk payment
type BulkPaymentOutcome struct {
	InstallmentID uuid.UUID       `json:"installment_id"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Remaining     decimal.Decimal `json:"remaining"`
	IsPaid        bool            `json:"is_paid"`
	NextDueDate   time.Time       `json:"next_due_date"`
	Message       string          `json:"message"`
}

// PayCustomerInstallments settles several installments of one customer in a
// single call, either all unpaid ones or an explicit selection.
//
// Installments are settled sequentially and independently: a failure partway
// leaves earlier settlements in place. Callers see which installments were
// touched through the returned outcomes of the previous successful call and
// through the error naming the failing installment.
func (s *InstallmentService) PayCustomerInstallments(ctx context.Context, req BulkPaymentRequest) (*BulkPaymentResult, error) {
	if !req.PaymentMethod.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}
	if !req.PayAll && len(req.Items) == 0 {
		return nil, billing.ErrNoInstallmentsSelected
	}

	targets, explicitAmounts, err := s.resolveBulkTargets(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &BulkPaymentResult{TotalPaid: decimal.Zero}
	for idx := range targets {
		inst := &targets[idx]
		amountToPay, err := s.bulkAmountFor(inst, explicitAmounts)
		if err != nil {
			return nil, err
		}

		payResult, err := s.PayInstallment(ctx, PayInstallmentRequest{
			CompanyID:     req.CompanyID,
			InstallmentID: inst.ID,
			Amount:        amountToPay,
			PaymentMethod: req.PaymentMethod,
			Notes:         req.Notes,
		})
		if err != nil {
			return nil, fmt.Errorf("installment %s: %w", inst.ID, err)
		}

		result.TotalPaid = result.TotalPaid.Add(amountToPay).Round(2)
		result.Results = append(result.Results, BulkPaymentOutcome{
			InstallmentID: inst.ID,
			AmountPaid:    amountToPay,
			Remaining:     payResult.Installment.RemainingAmount,
			IsPaid:        payResult.Installment.IsPaid,
			NextDueDate:   payResult.Installment.DueDate,
			Message:       payResult.Message,
		})
	}

	s.logger.Info("Bulk payment completed",
		zap.String("customer_id", req.CustomerID.String()),
		zap.Int("installments", len(result.Results)),
		zap.String("total_paid", result.TotalPaid.StringFixed(2)),
	)

	return result, nil
}

// resolveBulkTargets fetches the unpaid installments a bulk payment targets
func (s *InstallmentService) resolveBulkTargets(ctx context.Context, req BulkPaymentRequest) ([]billing.Installment, map[uuid.UUID]decimal.Decimal, error) {
	if req.PayAll {
		targets, err := s.installmentRepo.FindUnpaidByCustomer(ctx, req.CompanyID, req.CustomerID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch unpaid installments: %w", err)
		}
		if len(targets) == 0 {
			return nil, nil, shared.NewDomainError("NOT_FOUND", "Customer has no unpaid installments")
		}
		return targets, nil, nil
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	explicitAmounts := make(map[uuid.UUID]decimal.Decimal)
	for _, item := range req.Items {
		ids = append(ids, item.InstallmentID)
		if item.Amount != nil {
			explicitAmounts[item.InstallmentID] = *item.Amount
		}
	}

	targets, err := s.installmentRepo.FindUnpaidByIDs(ctx, req.CompanyID, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch selected installments: %w", err)
	}
	if len(targets) != len(ids) {
		return nil, nil, shared.NewDomainError("NOT_FOUND",
			fmt.Sprintf("Installments not found or already settled: %s", strings.Join(missingIDs(ids, targets), ", ")))
	}
	return targets, explicitAmounts, nil
}

// bulkAmountFor decides how much to pay one installment in a bulk call
func (s *InstallmentService) bulkAmountFor(inst *billing.Installment, explicitAmounts map[uuid.UUID]decimal.Decimal) (decimal.Decimal, error) {
	amountToPay := inst.RemainingAmount
	if explicit, ok := explicitAmounts[inst.ID]; ok {
		amountToPay = explicit
	}

	if amountToPay.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.NewDomainError("INVALID_AMOUNT",
			fmt.Sprintf("Payment amount for installment %s must be positive", inst.ID))
	}
	if amountToPay.GreaterThan(inst.RemainingAmount.Add(bulkAmountTolerance)) {
		return decimal.Zero, billing.NewBulkAmountExceedsRemainingError(
			inst.ID, valueobject.NewMoneyBRL(amountToPay), inst.GetRemainingMoney())
	}
	// Within tolerance: clamp to what is actually owed.
	if amountToPay.GreaterThan(inst.RemainingAmount) {
		amountToPay = inst.RemainingAmount
	}
	return amountToPay.Round(2), nil
}

// GetCustomerDebtSummary aggregates the unpaid installments of one customer
func (s *InstallmentService) GetCustomerDebtSummary(ctx context.Context, companyID, customerID uuid.UUID) (*billing.CustomerDebtSummary, error) {
	unpaid, err := s.installmentRepo.FindUnpaidByCustomer(ctx, companyID, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unpaid installments: %w", err)
	}

	today := s.now()
	summary := &billing.CustomerDebtSummary{
		CustomerID:     customerID,
		TotalRemaining: decimal.Zero,
		OverdueAmount:  decimal.Zero,
	}
	for i := range unpaid {
		inst := &unpaid[i]
		summary.OpenCount++
		summary.TotalRemaining = summary.TotalRemaining.Add(inst.RemainingAmount)
		if inst.IsOverdue(today) {
			summary.OverdueCount++
			summary.OverdueAmount = summary.OverdueAmount.Add(inst.RemainingAmount)
		}
	}
	summary.TotalRemaining = summary.TotalRemaining.Round(2)
	summary.OverdueAmount = summary.OverdueAmount.Round(2)
	return summary, nil
}

// GetCompanyStats aggregates the receivable position of one company
func (s *InstallmentService) GetCompanyStats(ctx context.Context, companyID uuid.UUID) (*billing.CompanyStats, error) {
	stats, err := s.installmentRepo.GetCompanyStats(ctx, companyID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate company stats: %w", err)
	}
	return stats, nil
}

// GetInstallment fetches one installment scoped to the calling company
func (s *InstallmentService) GetInstallment(ctx context.Context, companyID, id uuid.UUID) (*billing.Installment, error) {
	return s.findInstallment(ctx, companyID, id)
}

// ListInstallments lists installments for the calling company with
// pagination metadata
func (s *InstallmentService) ListInstallments(ctx context.Context, companyID uuid.UUID, filter billing.InstallmentFilter) (shared.Paginated[billing.Installment], error) {
	def := shared.DefaultFilter()
	if filter.Page < 1 {
		filter.Page = def.Page
	}
	if filter.PageSize < 1 {
		filter.PageSize = def.PageSize
	}

	items, err := s.installmentRepo.FindAllForCompany(ctx, companyID, filter)
	if err != nil {
		return shared.Paginated[billing.Installment]{}, fmt.Errorf("failed to list installments: %w", err)
	}
	total, err := s.installmentRepo.CountForCompany(ctx, companyID, filter)
	if err != nil {
		return shared.Paginated[billing.Installment]{}, fmt.Errorf("failed to count installments: %w", err)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// ListPayments lists the payment history of one installment
func (s *InstallmentService) ListPayments(ctx context.Context, companyID, installmentID uuid.UUID) ([]billing.Payment, error) {
	if _, err := s.findInstallment(ctx, companyID, installmentID); err != nil {
		return nil, err
	}
	return s.paymentRepo.FindByInstallment(ctx, companyID, installmentID)
}

// RemoveInstallment is the administrative escape hatch; the ledger state
// machine itself never deletes.
func (s *InstallmentService) RemoveInstallment(ctx context.Context, companyID, id uuid.UUID) error {
	if err := s.installmentRepo.Delete(ctx, companyID, id); err != nil {
		return err
	}
	s.logger.Warn("Installment removed",
		zap.String("installment_id", id.String()),
		zap.String("company_id", companyID.String()),
	)
	return nil
}

func (s *InstallmentService) findInstallment(ctx context.Context, companyID, id uuid.UUID) (*billing.Installment, error) {
	if companyID == uuid.Nil {
		return s.installmentRepo.FindByID(ctx, id)
	}
	return s.installmentRepo.FindByIDForCompany(ctx, companyID, id)
}

func missingIDs(requested []uuid.UUID, found []billing.Installment) []string {
	present := make(map[uuid.UUID]struct{}, len(found))
	for i := range found {
		present[found[i].ID] = struct{}{}
	}
	var missing []string
	for _, id := range requested {
		if _, ok := present[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	return missing
}
