package handlers

import (
	"github.com/gin-gonic/gin"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain/inventory"
	"tiendero/internal/domain/reports"
	"tiendero/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles per-store inventory endpoints.
type InventoryHandler struct {
	*BaseHandler
	svc     *inventory.Service
	reports *reports.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(svc *inventory.Service, reports *reports.Service) *InventoryHandler {
	return &InventoryHandler{BaseHandler: NewBaseHandler(), svc: svc, reports: reports}
}

// Assign creates a ledger row for a product at a store.
// POST /api/v1/stores/:id/inventory
func (h *InventoryHandler) Assign(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AssignInventoryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId").WithDetail("value", req.ProductID))
		return
	}

	ledger := inventory.NewLedger(storeID, productID, types.Quantity(req.Quantity))
	if req.MinStock != nil {
		ledger.MinStock = types.Quantity(*req.MinStock)
	}
	if req.MaxStock != nil {
		ledger.MaxStock = types.Quantity(*req.MaxStock)
	}

	if err := h.svc.Assign(c.Request.Context(), ledger); err != nil {
		h.Error(c, err)
		return
	}

	h.reports.InvalidateStore(c.Request.Context(), storeID)
	h.Created(c, ledger.ID)
}

// List returns a store's ledger rows.
// GET /api/v1/stores/:id/inventory
func (h *InventoryHandler) List(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	result, err := h.svc.ListByStore(c.Request.Context(), storeID, req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result))
}

// LowStock returns rows at or below their reorder threshold.
// GET /api/v1/stores/:id/inventory/low-stock
func (h *InventoryHandler) LowStock(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	items, err := h.svc.ListLowStock(c.Request.Context(), storeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if items == nil {
		items = []*inventory.Ledger{}
	}

	h.OK(c, items)
}

// SetThresholds updates reorder thresholds for one product.
// PUT /api/v1/stores/:id/inventory/:productId/thresholds
func (h *InventoryHandler) SetThresholds(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	var req dto.SetThresholdsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	err := h.svc.SetThresholds(c.Request.Context(), storeID, productID,
		types.Quantity(req.MinStock), types.Quantity(req.MaxStock))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "thresholds updated")
}

// Adjust applies a signed manual stock correction.
// POST /api/v1/stores/:id/inventory/:productId/adjust
func (h *InventoryHandler) Adjust(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	var req dto.AdjustInventoryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	quantity, err := h.svc.Adjust(c.Request.Context(), storeID, productID,
		types.Quantity(req.Delta), inventory.ReasonAdjustment)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.reports.InvalidateStore(c.Request.Context(), storeID)
	h.OK(c, gin.H{"quantity": quantity})
}

// History returns the movement journal for a product.
// GET /api/v1/products/:id/movements
func (h *InventoryHandler) History(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	filter := inventory.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("storeId"); raw != "" {
		storeID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid storeId").WithDetail("value", raw))
			return
		}
		filter.StoreID = &storeID
	}
	if raw := c.Query("reason"); raw != "" {
		reason := inventory.Reason(raw)
		filter.Reason = &reason
	}
	from, ok := h.ParseDate(c, "from")
	if !ok {
		return
	}
	filter.FromDate = from
	to, ok := h.ParseDate(c, "to")
	if !ok {
		return
	}
	filter.ToDate = to

	movements, err := h.svc.History(c.Request.Context(), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	if movements == nil {
		movements = []inventory.Movement{}
	}

	h.OK(c, movements)
}
