package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	bookingapp "github.com/travelops/backend/internal/application/booking"
	paymentapp "github.com/travelops/backend/internal/application/payment"
	"github.com/travelops/backend/internal/domain/booking"
	"github.com/travelops/backend/internal/domain/party"
	"github.com/travelops/backend/internal/domain/shared"
	"github.com/travelops/backend/internal/domain/shared/valueobject"
	"github.com/travelops/backend/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader carries the client-chosen key that makes
// allocation requests safe to retry
const IdempotencyKeyHeader = "Idempotency-Key"

// QuotationHandler handles quotation API endpoints
type QuotationHandler struct {
	BaseHandler
	bookingService *bookingapp.Service
	paymentService *paymentapp.Service
}

// NewQuotationHandler creates a new QuotationHandler
func NewQuotationHandler(bookingService *bookingapp.Service, paymentService *paymentapp.Service) *QuotationHandler {
	return &QuotationHandler{
		bookingService: bookingService,
		paymentService: paymentService,
	}
}

// RegisterRoutes registers quotation routes on the given group
func (h *QuotationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	quotations := rg.Group("/quotations")
	{
		quotations.POST("", h.Create)
		quotations.GET("", h.List)
		quotations.GET("/:id", h.GetByID)
		quotations.PUT("/:id", h.Update)
		quotations.DELETE("/:id", h.Delete)
		quotations.POST("/:id/allocations", h.AllocateBatch)
	}
}

// CreateQuotationRequest is the request body for creating a quotation
type CreateQuotationRequest struct {
	Reference   string             `json:"reference" binding:"required,min=1,max=100"`
	CustomerID  *uuid.UUID         `json:"customer_id"`
	VendorID    *uuid.UUID         `json:"vendor_id"`
	Title       string             `json:"title" binding:"max=200"`
	TotalAmount decimal.Decimal    `json:"total_amount" binding:"required"`
	Currency    string             `json:"currency" binding:"omitempty,len=3"`
	FormFields  booking.FormFields `json:"form_fields"`
	TravelDate  *time.Time         `json:"travel_date"`
	Remark      string             `json:"remark" binding:"max=1000"`
}

// UpdateQuotationRequest is the request body for updating a quotation
type UpdateQuotationRequest struct {
	Title       *string            `json:"title" binding:"omitempty,max=200"`
	TotalAmount *decimal.Decimal   `json:"total_amount"`
	Currency    string             `json:"currency" binding:"omitempty,len=3"`
	FormFields  booking.FormFields `json:"form_fields"`
	TravelDate  *time.Time         `json:"travel_date"`
	Remark      *string            `json:"remark" binding:"omitempty,max=1000"`
}

// QuotationListRequest is the query for listing quotations
type QuotationListRequest struct {
	dto.ListRequest
	CustomerID *uuid.UUID `form:"customer_id"`
	VendorID   *uuid.UUID `form:"vendor_id"`
}

// BatchAllocationItem is one payment's share of a batch allocation
type BatchAllocationItem struct {
	PaymentID uuid.UUID       `json:"payment_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// BatchAllocateRequest applies several payments to one quotation
// atomically. The party role is always stated explicitly.
type BatchAllocateRequest struct {
	Type   string                `json:"type" binding:"required,oneof=customer vendor"`
	Items  []BatchAllocationItem `json:"items" binding:"required,min=1,dive"`
	Remark string                `json:"remark" binding:"max=500"`
}

// Create handles POST /quotations
func (h *QuotationHandler) Create(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}

	var req CreateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	q, err := h.bookingService.CreateQuotation(c.Request.Context(), tenant, bookingapp.CreateQuotationRequest{
		Reference:   req.Reference,
		CustomerID:  req.CustomerID,
		VendorID:    req.VendorID,
		Title:       req.Title,
		TotalAmount: valueobject.NewMoney(req.TotalAmount, currencyOrDefault(req.Currency)),
		FormFields:  req.FormFields,
		TravelDate:  req.TravelDate,
		Remark:      req.Remark,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, q)
}

// GetByID handles GET /quotations/:id
func (h *QuotationHandler) GetByID(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid quotation ID format")
		return
	}

	q, err := h.bookingService.GetQuotation(c.Request.Context(), tenant, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, q)
}

// List handles GET /quotations
func (h *QuotationHandler) List(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}

	var req QuotationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.ApplyDefaults()

	filter := booking.Filter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
			Search:   req.Search,
		},
		CustomerID: req.CustomerID,
		VendorID:   req.VendorID,
	}

	page, err := h.bookingService.ListQuotations(c.Request.Context(), tenant, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, req.Page, req.PageSize)
}

// Update handles PUT /quotations/:id
func (h *QuotationHandler) Update(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid quotation ID format")
		return
	}

	var req UpdateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := bookingapp.UpdateQuotationRequest{
		Title:      req.Title,
		FormFields: req.FormFields,
		TravelDate: req.TravelDate,
		Remark:     req.Remark,
	}
	if req.TotalAmount != nil {
		money := valueobject.NewMoney(*req.TotalAmount, currencyOrDefault(req.Currency))
		appReq.TotalAmount = &money
	}

	q, err := h.bookingService.UpdateQuotation(c.Request.Context(), tenant, id, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, q)
}

// Delete handles DELETE /quotations/:id
func (h *QuotationHandler) Delete(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid quotation ID format")
		return
	}

	if err := h.bookingService.DeleteQuotation(c.Request.Context(), tenant, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AllocateBatch handles POST /quotations/:id/allocations. All items
// apply or none do.
func (h *QuotationHandler) AllocateBatch(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid quotation ID format")
		return
	}

	var req BatchAllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items := make([]paymentapp.BatchItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, paymentapp.BatchItem{
			PaymentID: item.PaymentID,
			Amount:    item.Amount,
		})
	}

	result, err := h.paymentService.AllocateBatch(c.Request.Context(), tenant, paymentapp.AllocateBatchRequest{
		QuotationID:    id,
		Role:           party.Role(req.Type),
		Items:          items,
		Remark:         req.Remark,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func currencyOrDefault(code string) valueobject.Currency {
	if code == "" {
		return valueobject.DefaultCurrency
	}
	return valueobject.Currency(code)
}
