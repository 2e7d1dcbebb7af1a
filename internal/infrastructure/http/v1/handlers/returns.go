package handlers

import (
	"github.com/gin-gonic/gin"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain/documents/returns"
	"tiendero/internal/domain/reports"
	"tiendero/internal/infrastructure/http/v1/dto"
)

// ReturnHandler handles return and exchange endpoints.
type ReturnHandler struct {
	*BaseHandler
	svc     *returns.Service
	reports *reports.Service
}

// NewReturnHandler creates a new return handler.
func NewReturnHandler(svc *returns.Service, reports *reports.Service) *ReturnHandler {
	return &ReturnHandler{BaseHandler: NewBaseHandler(), svc: svc, reports: reports}
}

// Create registers a pending return against a completed sale. The store
// and line prices are taken from the original sale.
// POST /api/v1/returns
func (h *ReturnHandler) Create(c *gin.Context) {
	var req dto.CreateReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	saleID, err := id.Parse(req.SaleID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid saleId").WithDetail("value", req.SaleID))
		return
	}

	doc := returns.NewReturn(id.Nil(), saleID, returns.Kind(req.Kind))
	doc.Notes = req.Notes

	for _, line := range req.Items {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId").WithDetail("value", line.ProductID))
			return
		}
		doc.AddLine(productID, types.Quantity(line.Quantity), types.ZeroMoney(), line.Reason)
	}
	for _, line := range req.ExchangeItems {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId").WithDetail("value", line.ProductID))
			return
		}
		price, ok := h.ParseMoney(c, "unitPrice", line.UnitPrice)
		if !ok {
			return
		}
		doc.AddExchangeLine(productID, types.Quantity(line.Quantity), price)
	}

	if err := h.svc.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, doc.ID)
}

// Approve moves a pending return to approved.
// POST /api/v1/returns/:id/approve
func (h *ReturnHandler) Approve(c *gin.Context) {
	returnID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.svc.Approve(c.Request.Context(), returnID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Reject declines a pending return with a reason.
// POST /api/v1/returns/:id/reject
func (h *ReturnHandler) Reject(c *gin.Context) {
	returnID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.RejectReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.svc.Reject(c.Request.Context(), returnID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Complete executes an approved return: restocks the returned goods
// and, for exchanges, hands out the replacement items.
// POST /api/v1/returns/:id/complete
func (h *ReturnHandler) Complete(c *gin.Context) {
	returnID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.svc.Complete(c.Request.Context(), returnID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.reports.InvalidateStore(c.Request.Context(), doc.StoreID)
	h.OK(c, doc)
}

// Get returns one return document.
// GET /api/v1/returns/:id
func (h *ReturnHandler) Get(c *gin.Context) {
	returnID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.svc.GetByID(c.Request.Context(), returnID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if !h.RequireStoreAccess(c, doc.StoreID) {
		return
	}

	h.OK(c, doc)
}

// List returns return documents.
// GET /api/v1/returns
func (h *ReturnHandler) List(c *gin.Context) {
	filter := returns.Filter{
		Status: returns.Status(c.Query("status")),
		Kind:   returns.Kind(c.Query("kind")),
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("storeId"); raw != "" {
		storeID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid storeId").WithDetail("value", raw))
			return
		}
		if !h.RequireStoreAccess(c, storeID) {
			return
		}
		filter.StoreID = storeID
	}
	if raw := c.Query("saleId"); raw != "" {
		saleID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid saleId").WithDetail("value", raw))
			return
		}
		filter.SaleID = saleID
	}

	result, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result))
}
