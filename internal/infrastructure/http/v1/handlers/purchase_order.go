package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain/documents/purchaseorder"
	"tiendero/internal/domain/reports"
	"tiendero/internal/infrastructure/http/v1/dto"
)

// PurchaseOrderHandler handles supplier purchase order endpoints.
type PurchaseOrderHandler struct {
	*BaseHandler
	svc     *purchaseorder.Service
	reports *reports.Service
}

// NewPurchaseOrderHandler creates a new purchase order handler.
func NewPurchaseOrderHandler(svc *purchaseorder.Service, reports *reports.Service) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{BaseHandler: NewBaseHandler(), svc: svc, reports: reports}
}

// Create places an order with a supplier; no stock moves yet.
// POST /api/v1/purchase-orders
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	storeID, err := id.Parse(req.StoreID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid storeId").WithDetail("value", req.StoreID))
		return
	}
	supplierID, err := id.Parse(req.SupplierID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid supplierId").WithDetail("value", req.SupplierID))
		return
	}
	if !h.RequireStoreAccess(c, storeID) {
		return
	}

	doc := purchaseorder.NewPurchaseOrder(storeID, supplierID)
	doc.Notes = req.Notes

	tax, ok := h.ParseMoney(c, "tax", req.Tax)
	if !ok {
		return
	}
	doc.Tax = tax
	shipping, ok := h.ParseMoney(c, "shipping", req.Shipping)
	if !ok {
		return
	}
	doc.Shipping = shipping

	if req.ExpectedAt != nil {
		expected, err := time.Parse("2006-01-02", *req.ExpectedAt)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid expectedAt").WithDetail("value", *req.ExpectedAt))
			return
		}
		doc.ExpectedAt = &expected
	}

	for _, line := range req.Items {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId").WithDetail("value", line.ProductID))
			return
		}
		cost, ok := h.ParseMoney(c, "unitCost", line.UnitCost)
		if !ok {
			return
		}
		doc.AddLine(productID, types.Quantity(line.Quantity), cost)
	}

	if err := h.svc.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, doc.ID)
}

// Receive records a (possibly partial) delivery, incrementing stock.
// POST /api/v1/purchase-orders/:id/receive
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ReceivePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	receipts := make([]purchaseorder.Receipt, 0, len(req.Items))
	for _, line := range req.Items {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId").WithDetail("value", line.ProductID))
			return
		}
		receipts = append(receipts, purchaseorder.Receipt{
			ProductID: productID,
			Quantity:  types.Quantity(line.Quantity),
		})
	}

	doc, err := h.svc.Receive(c.Request.Context(), orderID, receipts)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.reports.InvalidateStore(c.Request.Context(), doc.StoreID)
	h.OK(c, doc)
}

// Cancel blocks further receipt against the order. Goods already
// received stay on hand.
// POST /api/v1/purchase-orders/:id/cancel
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CancelRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.svc.Cancel(c.Request.Context(), orderID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Get returns one purchase order.
// GET /api/v1/purchase-orders/:id
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.svc.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if !h.RequireStoreAccess(c, doc.StoreID) {
		return
	}

	h.OK(c, doc)
}

// List returns purchase orders.
// GET /api/v1/purchase-orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	filter := purchaseorder.Filter{
		Status: purchaseorder.Status(c.Query("status")),
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
	if raw := c.Query("supplierId"); raw != "" {
		supplierID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid supplierId").WithDetail("value", raw))
			return
		}
		filter.SupplierID = supplierID
	}

	result, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result))
}
