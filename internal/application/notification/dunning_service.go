package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/varejo/backend/internal/domain/billing"
	"github.com/varejo/backend/internal/domain/identity"
	"github.com/varejo/backend/internal/domain/notification"
	"github.com/varejo/backend/internal/domain/partner"
	"github.com/varejo/backend/internal/domain/shared"
	"github.com/varejo/backend/internal/domain/shared/valueobject"
)

// DunningService walks every company's open installments once a day and
// sends the reminders the eligibility rules call for. Per-installment
// failures are logged and counted, never fatal: one bad phone number must
// not silence the rest of the run.
type DunningService struct {
	companyRepo     identity.CompanyRepository
	installmentRepo billing.InstallmentRepository
	customerRepo    partner.CustomerRepository
	sender          notification.MessageSender
	limiter         notification.SendLimiter
	logger          *zap.Logger
	now             func() time.Time
}

// NewDunningService creates a new DunningService
func NewDunningService(
	companyRepo identity.CompanyRepository,
	installmentRepo billing.InstallmentRepository,
	customerRepo partner.CustomerRepository,
	sender notification.MessageSender,
	limiter notification.SendLimiter,
	logger *zap.Logger,
) *DunningService {
	return &DunningService{
		companyRepo:     companyRepo,
		installmentRepo: installmentRepo,
		customerRepo:    customerRepo,
		sender:          sender,
		limiter:         limiter,
		logger:          logger,
		now:             time.Now,
	}
}

// RunReport summarizes one dunning sweep
type RunReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Companies  int       `json:"companies"`
	Eligible   int       `json:"eligible"`
	Sent       int       `json:"sent"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
}

// RunDaily sweeps all companies with automated messaging enabled. It only
// fails outright when the company list itself cannot be fetched; everything
// below that is counted in the report and logged.
func (s *DunningService) RunDaily(ctx context.Context) (*RunReport, error) {
	report := &RunReport{StartedAt: s.now()}

	companies, err := s.companyRepo.FindActiveWithAutoMessaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies for dunning: %w", err)
	}

	s.logger.Info("Dunning run started", zap.Int("companies", len(companies)))

	for i := range companies {
		company := &companies[i]
		if !company.CanAutoMessage() {
			continue
		}
		report.Companies++
		s.processCompany(ctx, company, report)
	}

	report.FinishedAt = s.now()
	s.logger.Info("Dunning run finished",
		zap.Int("companies", report.Companies),
		zap.Int("eligible", report.Eligible),
		zap.Int("sent", report.Sent),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)

	return report, nil
}

func (s *DunningService) processCompany(ctx context.Context, company *identity.Company, report *RunReport) {
	log := s.logger.With(zap.String("company_id", company.ID.String()))

	allowed, err := s.limiter.CanSend(ctx, company.ID)
	if err != nil {
		log.Error("Rate limiter check failed, skipping company", zap.Error(err))
		report.Failed++
		return
	}
	if !allowed {
		log.Warn("Company message quota exhausted, skipping company")
		report.Skipped++
		return
	}

	unpaid, err := s.installmentRepo.FindUnpaidByCompany(ctx, company.ID)
	if err != nil {
		log.Error("Failed to fetch unpaid installments", zap.Error(err))
		report.Failed++
		return
	}

	today := s.now()
	for i := range unpaid {
		inst := &unpaid[i]
		kind := billing.EvaluateReminder(inst, today)
		if kind == billing.ReminderNone {
			continue
		}
		report.Eligible++

		// The quota may have run out mid-company; remaining eligible
		// installments wait for the next day's run.
		allowed, err := s.limiter.CanSend(ctx, company.ID)
		if err != nil {
			log.Error("Rate limiter check failed mid-run", zap.Error(err))
			report.Failed++
			return
		}
		if !allowed {
			log.Warn("Company message quota exhausted mid-run",
				zap.Int("remaining_unprocessed", len(unpaid)-i))
			report.Skipped += countEligible(unpaid[i:], today)
			return
		}

		if s.sendReminder(ctx, inst, kind, today, log) {
			report.Sent++
		} else {
			report.Failed++
		}
	}
}

// sendReminder delivers one reminder and records the send on success only,
// so a failed delivery stays eligible for the next run.
func (s *DunningService) sendReminder(ctx context.Context, inst *billing.Installment, kind billing.ReminderKind, today time.Time, log *zap.Logger) bool {
	log = log.With(zap.String("installment_id", inst.ID.String()), zap.String("kind", string(kind)))

	customer, err := s.customerRepo.FindByIDForCompany(ctx, inst.CompanyID, inst.CustomerID)
	if err != nil {
		log.Error("Failed to fetch customer for reminder", zap.Error(err))
		return false
	}
	if !customer.HasPhone() || !s.sender.ValidatePhone(customer.Phone) {
		log.Warn("Customer has no deliverable phone number",
			zap.String("customer_id", customer.ID.String()))
		return false
	}

	text := s.composeFor(inst, customer.Name, kind, today)
	phone := s.sender.FormatPhone(customer.Phone)

	delivered, err := s.sender.Send(ctx, phone, text)
	if err != nil {
		log.Error("Failed to send reminder", zap.Error(err))
		return false
	}
	if !delivered {
		log.Warn("Provider rejected reminder")
		return false
	}

	inst.MarkReminderSent(today)
	if err := s.installmentRepo.SaveWithLock(ctx, inst); err != nil {
		// The message went out but the marker write lost; worst case the
		// customer gets a duplicate tomorrow.
		log.Error("Failed to record reminder on installment", zap.Error(err))
	}
	if err := s.limiter.RecordSend(ctx, inst.CompanyID); err != nil {
		log.Error("Failed to record send against quota", zap.Error(err))
	}

	log.Info("Reminder sent", zap.Int("message_count", inst.MessageCount))
	return true
}

// SendTestMessage sends one reminder on demand, skipping the eligibility
// rules but still going through the same composition, quota and delivery
// path as the daily run.
func (s *DunningService) SendTestMessage(ctx context.Context, companyID, installmentID uuid.UUID) error {
	inst, err := s.installmentRepo.FindByIDForCompany(ctx, companyID, installmentID)
	if err != nil {
		return err
	}
	if inst.IsPaid {
		return billing.ErrAlreadyPaid
	}

	allowed, err := s.limiter.CanSend(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to check message quota: %w", err)
	}
	if !allowed {
		return shared.NewDomainError("RATE_LIMITED", "Company message quota exhausted for the current window")
	}

	today := s.now()
	kind := billing.ReminderDueToday
	if inst.IsOverdue(today) {
		kind = billing.ReminderOverdue
	}

	if !s.sendReminder(ctx, inst, kind, today, s.logger.With(zap.String("company_id", companyID.String()))) {
		return shared.NewDomainError("SEND_FAILED", "Reminder could not be delivered")
	}
	return nil
}

func (s *DunningService) composeFor(inst *billing.Installment, customerName string, kind billing.ReminderKind, today time.Time) string {
	r := notification.Reminder{
		CustomerName:     customerName,
		InstallmentLabel: inst.Label(),
		AmountDue:        valueobject.NewMoneyBRL(inst.RemainingAmount),
		DueDate:          inst.DueDate.Format("2006-01-02"),
		DaysOverdue:      inst.DaysOverdue(today),
		SaleDescription:  inst.Description,
	}
	if kind == billing.ReminderOverdue {
		return notification.ComposeOverdue(r)
	}
	return notification.ComposeDueToday(r)
}

func countEligible(installments []billing.Installment, today time.Time) int {
	n := 0
	for i := range installments {
		if billing.EvaluateReminder(&installments[i], today) != billing.ReminderNone {
			n++
		}
	}
	return n
}
