package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appbilling "github.com/varejo/backend/internal/application/billing"
	"github.com/varejo/backend/internal/domain/billing"
	"github.com/varejo/backend/internal/domain/shared"
	"github.com/varejo/backend/internal/interfaces/http/dto"
)

// InstallmentHandler handles the installment ledger endpoints
type InstallmentHandler struct {
	BaseHandler
	installmentService *appbilling.InstallmentService
}

// NewInstallmentHandler creates a new InstallmentHandler
func NewInstallmentHandler(installmentService *appbilling.InstallmentService) *InstallmentHandler {
	return &InstallmentHandler{
		installmentService: installmentService,
	}
}

// Create creates one installment of a sale
func (h *InstallmentHandler) Create(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	var req CreateInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer_id")
		return
	}
	saleID, err := uuid.Parse(req.SaleID)
	if err != nil {
		h.BadRequest(c, "Invalid sale_id")
		return
	}
	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		h.BadRequest(c, "due_date must be in YYYY-MM-DD format")
		return
	}

	inst, err := h.installmentService.CreateInstallment(c.Request.Context(), appbilling.CreateInstallmentRequest{
		CompanyID:         companyID,
		CustomerID:        customerID,
		SaleID:            saleID,
		InstallmentNumber: req.InstallmentNumber,
		TotalInstallments: req.TotalInstallments,
		Amount:            decimalFromFloat(req.Amount),
		DueDate:           dueDate,
		Description:       req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toInstallmentResponse(inst))
}

// Get fetches one installment
func (h *InstallmentHandler) Get(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	id, ok := h.bindID(c)
	if !ok {
		return
	}

	inst, err := h.installmentService.GetInstallment(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInstallmentResponse(inst))
}

// List lists installments with optional filters
func (h *InstallmentHandler) List(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	var req ListInstallmentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := billing.InstallmentFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
		},
		IsPaid:  req.IsPaid,
		Overdue: req.Overdue,
	}
	if req.CustomerID != "" {
		id, err := uuid.Parse(req.CustomerID)
		if err != nil {
			h.BadRequest(c, "Invalid customer_id")
			return
		}
		filter.CustomerID = &id
	}
	if req.SaleID != "" {
		id, err := uuid.Parse(req.SaleID)
		if err != nil {
			h.BadRequest(c, "Invalid sale_id")
			return
		}
		filter.SaleID = &id
	}

	result, err := h.installmentService.ListInstallments(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]InstallmentResponse, len(result.Items))
	for i := range result.Items {
		items[i] = toInstallmentResponse(&result.Items[i])
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(items, result.Page, result.PageSize, int(result.Total)))
}

// Pay applies one payment to one installment
func (h *InstallmentHandler) Pay(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req PayInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.installmentService.PayInstallment(c.Request.Context(), appbilling.PayInstallmentRequest{
		CompanyID:     companyID,
		InstallmentID: id,
		Amount:        decimalFromFloat(req.Amount),
		PaymentMethod: billing.PaymentMethod(req.PaymentMethod),
		Notes:         req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, PayInstallmentResponse{
		Installment: toInstallmentResponse(result.Installment),
		Payment:     toPaymentResponse(result.Payment),
		Message:     result.Message,
	})
}

// PayBulk settles several installments of one customer in a single call
func (h *InstallmentHandler) PayBulk(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	customerID, ok := h.bindID(c)
	if !ok {
		return
	}

	var req BulkPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.PayAll && len(req.Installments) > 0 {
		h.BadRequest(c, "pay_all and an explicit installment list are mutually exclusive")
		return
	}

	items := make([]appbilling.BulkPaymentItem, len(req.Installments))
	for i, item := range req.Installments {
		installmentID, err := uuid.Parse(item.InstallmentID)
		if err != nil {
			h.BadRequest(c, "Invalid installment_id")
			return
		}
		items[i] = appbilling.BulkPaymentItem{InstallmentID: installmentID}
		if item.Amount != nil {
			amount := decimalFromFloat(*item.Amount)
			items[i].Amount = &amount
		}
	}

	result, err := h.installmentService.PayCustomerInstallments(c.Request.Context(), appbilling.BulkPaymentRequest{
		CompanyID:     companyID,
		CustomerID:    customerID,
		PayAll:        req.PayAll,
		Items:         items,
		PaymentMethod: billing.PaymentMethod(req.PaymentMethod),
		Notes:         req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toBulkPaymentResponse(result))
}

// ListPayments lists the payment history of one installment
func (h *InstallmentHandler) ListPayments(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	id, ok := h.bindID(c)
	if !ok {
		return
	}

	payments, err := h.installmentService.ListPayments(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]PaymentResponse, len(payments))
	for i := range payments {
		items[i] = toPaymentResponse(&payments[i])
	}
	h.Success(c, items)
}

// DebtSummary aggregates the unpaid installments of one customer
func (h *InstallmentHandler) DebtSummary(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	customerID, ok := h.bindID(c)
	if !ok {
		return
	}

	summary, err := h.installmentService.GetCustomerDebtSummary(c.Request.Context(), companyID, customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// Stats aggregates the receivable position of the calling company
func (h *InstallmentHandler) Stats(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	stats, err := h.installmentService.GetCompanyStats(c.Request.Context(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// Delete removes one installment
func (h *InstallmentHandler) Delete(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	id, ok := h.bindID(c)
	if !ok {
		return
	}

	if err := h.installmentService.RemoveInstallment(c.Request.Context(), companyID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
