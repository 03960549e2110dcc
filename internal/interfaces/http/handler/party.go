package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	ledgerapp "github.com/travelops/backend/internal/application/ledger"
	partyapp "github.com/travelops/backend/internal/application/party"
	paymentapp "github.com/travelops/backend/internal/application/payment"
	"github.com/travelops/backend/internal/domain/party"
	"github.com/travelops/backend/internal/domain/shared"
	"github.com/travelops/backend/internal/domain/shared/valueobject"
	"github.com/travelops/backend/internal/interfaces/http/dto"
)

// PartyHandler handles customer and vendor API endpoints
type PartyHandler struct {
	BaseHandler
	partyService   *partyapp.Service
	ledgerService  *ledgerapp.Service
	paymentService *paymentapp.Service
}

// NewPartyHandler creates a new PartyHandler
func NewPartyHandler(partyService *partyapp.Service, ledgerService *ledgerapp.Service, paymentService *paymentapp.Service) *PartyHandler {
	return &PartyHandler{
		partyService:   partyService,
		ledgerService:  ledgerService,
		paymentService: paymentService,
	}
}

// RegisterRoutes registers party routes on the given group
func (h *PartyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	parties := rg.Group("/parties")
	{
		parties.POST("", h.Create)
		parties.GET("", h.List)
		parties.GET("/:id", h.GetByID)
		parties.PUT("/:id", h.Update)
		parties.DELETE("/:id", h.Delete)
		parties.GET("/:id/summary", h.Summary)
		parties.GET("/:id/ledger", h.Ledger)
		parties.GET("/:id/unsettled-quotations", h.UnsettledQuotations)
		parties.GET("/:id/unallocated-payments", h.UnallocatedPayments)
	}
}

// CreatePartyRequest is the request body for creating a party
type CreatePartyRequest struct {
	Type               string          `json:"type" binding:"required,oneof=customer vendor"`
	Name               string          `json:"name" binding:"required,min=1,max=200"`
	Email              string          `json:"email" binding:"omitempty,email,max=200"`
	Phone              string          `json:"phone" binding:"max=50"`
	OpeningBalance     decimal.Decimal `json:"opening_balance"`
	OpeningBalanceType string          `json:"opening_balance_type" binding:"omitempty,oneof=debit credit"`
	Remark             string          `json:"remark" binding:"max=1000"`
}

// UpdatePartyRequest is the request body for updating a party
type UpdatePartyRequest struct {
	Name               *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Email              *string          `json:"email" binding:"omitempty,email,max=200"`
	Phone              *string          `json:"phone" binding:"omitempty,max=50"`
	OpeningBalance     *decimal.Decimal `json:"opening_balance"`
	OpeningBalanceType *string          `json:"opening_balance_type" binding:"omitempty,oneof=debit credit"`
	Remark             *string          `json:"remark" binding:"omitempty,max=1000"`
}

// PartyListRequest is the query for listing parties
type PartyListRequest struct {
	dto.ListRequest
	Type string `form:"type" binding:"omitempty,oneof=customer vendor"`
}

// Create handles POST /parties
func (h *PartyHandler) Create(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}

	var req CreatePartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	balanceType := valueobject.EntryTypeDebit
	if req.OpeningBalanceType != "" {
		balanceType = valueobject.EntryType(req.OpeningBalanceType)
	}

	p, err := h.partyService.CreateParty(c.Request.Context(), tenant, partyapp.CreatePartyRequest{
		Role:               party.Role(req.Type),
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		OpeningBalance:     req.OpeningBalance,
		OpeningBalanceType: balanceType,
		Remark:             req.Remark,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, p)
}

// GetByID handles GET /parties/:id
func (h *PartyHandler) GetByID(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	p, err := h.partyService.GetParty(c.Request.Context(), tenant, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// List handles GET /parties
func (h *PartyHandler) List(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}

	var req PartyListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.ApplyDefaults()

	filter := party.Filter{Filter: shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}}
	if req.Type != "" {
		role := party.Role(req.Type)
		filter.Role = &role
	}

	page, err := h.partyService.ListParties(c.Request.Context(), tenant, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, req.Page, req.PageSize)
}

// Update handles PUT /parties/:id
func (h *PartyHandler) Update(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	var req UpdatePartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := partyapp.UpdatePartyRequest{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		OpeningBalance: req.OpeningBalance,
		Remark:         req.Remark,
	}
	if req.OpeningBalanceType != nil {
		balanceType := valueobject.EntryType(*req.OpeningBalanceType)
		appReq.OpeningBalanceType = &balanceType
	}

	p, err := h.partyService.UpdateParty(c.Request.Context(), tenant, id, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Delete handles DELETE /parties/:id
func (h *PartyHandler) Delete(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	if err := h.partyService.DeleteParty(c.Request.Context(), tenant, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Summary handles GET /parties/:id/summary
func (h *PartyHandler) Summary(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	summary, err := h.ledgerService.Summary(c.Request.Context(), tenant, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Ledger handles GET /parties/:id/ledger
func (h *PartyHandler) Ledger(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	statement, err := h.ledgerService.Statement(c.Request.Context(), tenant, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, statement)
}

// partyRoleQuery reads the mandatory explicit party role query parameter
func (h *PartyHandler) partyRoleQuery(c *gin.Context) (party.Role, bool) {
	role := party.Role(c.Query("type"))
	if !role.IsValid() {
		h.BadRequest(c, "Query parameter 'type' must be customer or vendor")
		return "", false
	}
	return role, true
}

// UnsettledQuotations handles GET /parties/:id/unsettled-quotations
func (h *PartyHandler) UnsettledQuotations(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}
	role, ok := h.partyRoleQuery(c)
	if !ok {
		return
	}

	quotations, err := h.paymentService.UnsettledQuotations(c.Request.Context(), tenant, role, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quotations)
}

// UnallocatedPayments handles GET /parties/:id/unallocated-payments
func (h *PartyHandler) UnallocatedPayments(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant")
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}
	role, ok := h.partyRoleQuery(c)
	if !ok {
		return
	}

	payments, err := h.paymentService.UnallocatedPayments(c.Request.Context(), tenant, role, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}
