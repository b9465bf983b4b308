package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/leaseledger/backend/internal/application/billing"
	"github.com/leaseledger/backend/internal/domain/lease"
	"github.com/leaseledger/backend/internal/domain/ledger"
	"github.com/leaseledger/backend/internal/domain/shared"
	"github.com/leaseledger/backend/internal/interfaces/http/dto"
)

// RentBillingService is the billing surface the handler exposes
type RentBillingService interface {
	GenerateUnpaidTransactions(ctx context.Context, now time.Time) (*billing.RunResult, error)
	OverdueForLease(ctx context.Context, leaseID uuid.UUID, now time.Time) (*lease.OverdueSummary, error)
}

// PaymentTotalsReader reads the payment totals projection
type PaymentTotalsReader interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*ledger.PaymentTotals, error)
}

// BillingHandler serves the admin billing endpoints
type BillingHandler struct {
	service RentBillingService
	totals  PaymentTotalsReader
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(service RentBillingService, totals PaymentTotalsReader) *BillingHandler {
	return &BillingHandler{service: service, totals: totals}
}

// RegisterRoutes registers billing routes on the API group
func (h *BillingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/jobs/rent-billing/run", h.RunRentBilling)
	rg.GET("/leases/:id/overdue", h.LeaseOverdue)
	rg.GET("/organizations/:id/payment-totals", h.PaymentTotals)
}

// RunRentBilling triggers a billing run immediately and returns its result
func (h *BillingHandler) RunRentBilling(c *gin.Context) {
	result, err := h.service.GenerateUnpaidTransactions(c.Request.Context(), time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}

// overdueResponse is the wire shape of an overdue summary
type overdueResponse struct {
	LeaseID       string     `json:"lease_id"`
	TotalOverdue  string     `json:"total_overdue"`
	MissedPeriods int        `json:"missed_periods"`
	NextDueDate   *time.Time `json:"next_due_date,omitempty"`
}

// LeaseOverdue returns the informational overdue summary for one lease
func (h *BillingHandler) LeaseOverdue(c *gin.Context) {
	leaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, "invalid lease id"))
		return
	}

	summary, err := h.service.OverdueForLease(c.Request.Context(), leaseID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, "lease not found"))
			return
		}
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			c.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponse(domainErr.Code, domainErr.Message))
			return
		}
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeInternal, err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(overdueResponse{
		LeaseID:       leaseID.String(),
		TotalOverdue:  summary.TotalOverdue.String(),
		MissedPeriods: summary.MissedPeriods,
		NextDueDate:   summary.NextDueDate,
	}))
}

// totalsResponse is the wire shape of the payment totals projection
type totalsResponse struct {
	TenantID    string    `json:"tenant_id"`
	TotalPaid   string    `json:"total_paid"`
	TotalUnpaid string    `json:"total_unpaid"`
	PaidCount   int64     `json:"paid_count"`
	UnpaidCount int64     `json:"unpaid_count"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// PaymentTotals returns the payment totals projection for one organization
func (h *BillingHandler) PaymentTotals(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, "invalid organization id"))
		return
	}

	totals, err := h.totals.Get(c.Request.Context(), tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, "no totals for organization"))
			return
		}
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeInternal, err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(totalsResponse{
		TenantID:    totals.TenantID.String(),
		TotalPaid:   totals.TotalPaid.String(),
		TotalUnpaid: totals.TotalUnpaid.String(),
		PaidCount:   totals.PaidCount,
		UnpaidCount: totals.UnpaidCount,
		RefreshedAt: totals.RefreshedAt,
	}))
}
