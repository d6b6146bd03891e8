package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appnotification "github.com/varejo/backend/internal/application/notification"
	"github.com/varejo/backend/internal/infrastructure/scheduler"
	"github.com/varejo/backend/internal/interfaces/http/dto"
)

// DunningHandler handles the dunning sweep endpoints
type DunningHandler struct {
	BaseHandler
	dunningService *appnotification.DunningService
	cronScheduler  *scheduler.DunningCronScheduler
}

// NewDunningHandler creates a new DunningHandler
func NewDunningHandler(dunningService *appnotification.DunningService, cronScheduler *scheduler.DunningCronScheduler) *DunningHandler {
	return &DunningHandler{
		dunningService: dunningService,
		cronScheduler:  cronScheduler,
	}
}

// TriggerRun starts a dunning sweep outside the daily schedule
func (h *DunningHandler) TriggerRun(c *gin.Context) {
	if h.cronScheduler == nil {
		c.JSON(http.StatusServiceUnavailable,
			dto.NewErrorResponse("SCHEDULER_DISABLED", "Dunning scheduler is not enabled", getRequestID(c)))
		return
	}

	err := h.cronScheduler.TriggerManualRun()
	switch {
	case errors.Is(err, scheduler.ErrSchedulerNotRunning):
		c.JSON(http.StatusServiceUnavailable,
			dto.NewErrorResponse("SCHEDULER_DISABLED", "Dunning scheduler is not running", getRequestID(c)))
	case errors.Is(err, scheduler.ErrRunInProgress):
		c.JSON(http.StatusConflict,
			dto.NewErrorResponse("RUN_IN_PROGRESS", "A dunning sweep is already in progress", getRequestID(c)))
	case err != nil:
		h.HandleError(c, err)
	default:
		c.JSON(http.StatusAccepted, dto.NewSuccessResponse(gin.H{"message": "Dunning sweep started"}))
	}
}

// Status reports the scheduler state
func (h *DunningHandler) Status(c *gin.Context) {
	if h.cronScheduler == nil {
		h.Success(c, gin.H{"enabled": false})
		return
	}
	h.Success(c, h.cronScheduler.GetStatus())
}

// SendTestMessageRequest selects the installment to send a reminder for
type SendTestMessageRequest struct {
	InstallmentID string `json:"installment_id" binding:"required,uuid"`
}

// SendTestMessage sends one reminder immediately, bypassing the schedule
// but not the hourly quota.
func (h *DunningHandler) SendTestMessage(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	var req SendTestMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	installmentID, err := uuid.Parse(req.InstallmentID)
	if err != nil {
		h.BadRequest(c, "Invalid installment_id")
		return
	}

	if err := h.dunningService.SendTestMessage(c.Request.Context(), companyID, installmentID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"message": "Reminder sent"})
}
