package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	paymentapp "github.com/travelops/backend/internal/application/payment"
	"github.com/travelops/backend/internal/domain/party"
	"github.com/travelops/backend/internal/domain/payment"
	"github.com/travelops/backend/internal/domain/shared"
	"github.com/travelops/backend/internal/domain/shared/valueobject"
	"github.com/travelops/backend/internal/interfaces/http/dto"
)

// PaymentHandler handles payment API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *paymentapp.Service
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *paymentapp.Service) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RegisterRoutes registers payment routes on the given group
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("", h.Create)
		payments.GET("", h.List)
		payments.GET("/:id", h.GetByID)
		payments.PUT("/:id", h.Update)
		payments.DELETE("/:id", h.Delete)
		payments.POST("/:id/allocations", h.Allocate)
	}
}

// InitialAllocationRequest is one creation-time allocation
type InitialAllocationRequest struct {
	QuotationID uuid.UUID       `json:"quotation_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Remark      string          `json:"remark" binding:"max=500"`
}

// CreatePaymentRequest is the request body for recording a payment
type CreatePaymentRequest struct {
	Type        string                     `json:"type" binding:"required,oneof=customer vendor"`
	PartyID     uuid.UUID                  `json:"party_id" binding:"required"`
	Amount      decimal.Decimal            `json:"amount" binding:"required"`
	Currency    string                     `json:"currency" binding:"omitempty,len=3"`
	EntryType   string                     `json:"entry_type" binding:"required,oneof=debit credit"`
	Method      string                     `json:"method" binding:"required,oneof=cash bank_transfer card cheque other"`
	Reference   string                     `json:"reference" binding:"max=100"`
	PaymentDate time.Time                  `json:"payment_date" binding:"required"`
	Remark      string                     `json:"remark" binding:"max=1000"`
	Allocations []InitialAllocationRequest `json:"allocations" binding:"omitempty,dive"`
}

// UpdatePaymentRequest is the request body for updating a payment.
// Amounts and allocations cannot be edited after the fact.
type UpdatePaymentRequest struct {
	Reference *string `json:"reference" binding:"omitempty,max=100"`
	Remark    *string `json:"remark" binding:"omitempty,max=1000"`
}

// PaymentListRequest is the query for listing payments
type PaymentListRequest struct {
	dto.ListRequest
	Type           string     `form:"type" binding:"omitempty,oneof=customer vendor"`
	PartyID        *uuid.UUID `form:"party_id"`
	HasUnallocated *bool      `form:"has_unallocated"`
}

// AllocateRequest applies one slice of this payment to one quotation
type AllocateRequest struct {
	QuotationID uuid.UUID       `json:"quotation_id" binding:"required"`
	Type        string          `json:"type" binding:"required,oneof=customer vendor"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Remark      string          `json:"remark" binding:"max=500"`
}

// Create handles POST /payments
func (h *PaymentHandler) Create(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	initial := make([]paymentapp.InitialAllocationRequest, 0, len(req.Allocations))
	for _, ia := range req.Allocations {
		initial = append(initial, paymentapp.InitialAllocationRequest{
			QuotationID: ia.QuotationID,
			Amount:      ia.Amount,
			Remark:      ia.Remark,
		})
	}

	p, err := h.paymentService.CreatePayment(c.Request.Context(), tenant, paymentapp.CreatePaymentRequest{
		Role:        party.Role(req.Type),
		PartyID:     req.PartyID,
		Amount:      valueobject.NewMoney(req.Amount, currencyOrDefault(req.Currency)),
		EntryType:   valueobject.EntryType(req.EntryType),
		Method:      payment.Method(req.Method),
		Reference:   req.Reference,
		PaymentDate: req.PaymentDate,
		Remark:      req.Remark,
		Allocations: initial,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

// GetByID handles GET /payments/:id
func (h *PaymentHandler) GetByID(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	p, err := h.paymentService.GetPayment(c.Request.Context(), tenant, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// List handles GET /payments
func (h *PaymentHandler) List(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}

	var req PaymentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.ApplyDefaults()

	filter := payment.Filter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
			Search:   req.Search,
		},
		PartyID:        req.PartyID,
		HasUnallocated: req.HasUnallocated,
	}
	if req.Type != "" {
		role := party.Role(req.Type)
		filter.PartyRole = &role
	}

	page, err := h.paymentService.ListPayments(c.Request.Context(), tenant, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, req.Page, req.PageSize)
}

// Update handles PUT /payments/:id
func (h *PaymentHandler) Update(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	p, err := h.paymentService.UpdatePayment(c.Request.Context(), tenant, id, paymentapp.UpdatePaymentRequest{
		Reference: req.Reference,
		Remark:    req.Remark,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Delete handles DELETE /payments/:id
func (h *PaymentHandler) Delete(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	if err := h.paymentService.DeletePayment(c.Request.Context(), tenant, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Allocate handles POST /payments/:id/allocations. Clients may send an
// Idempotency-Key header to make the request safe to retry.
func (h *PaymentHandler) Allocate(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.paymentService.Allocate(c.Request.Context(), tenant, paymentapp.AllocateRequest{
		PaymentID:      id,
		QuotationID:    req.QuotationID,
		Role:           party.Role(req.Type),
		Amount:         req.Amount,
		Remark:         req.Remark,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
