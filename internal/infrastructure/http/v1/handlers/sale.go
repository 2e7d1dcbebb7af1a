package handlers

import (
	"github.com/gin-gonic/gin"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain/documents/sale"
	"tiendero/internal/domain/reports"
	"tiendero/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles sale endpoints.
type SaleHandler struct {
	*BaseHandler
	svc     *sale.Service
	reports *reports.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(svc *sale.Service, reports *reports.Service) *SaleHandler {
	return &SaleHandler{BaseHandler: NewBaseHandler(), svc: svc, reports: reports}
}

// Create registers a sale, decrementing stock atomically.
// POST /api/v1/sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	storeID, err := id.Parse(req.StoreID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid storeId").WithDetail("value", req.StoreID))
		return
	}
	if !h.RequireStoreAccess(c, storeID) {
		return
	}

	doc := sale.NewSale(storeID, sale.PaymentMethod(req.PaymentMethod))
	doc.Notes = req.Notes

	tax, ok := h.ParseMoney(c, "tax", req.Tax)
	if !ok {
		return
	}
	doc.Tax = tax
	discount, ok := h.ParseMoney(c, "discount", req.Discount)
	if !ok {
		return
	}
	doc.Discount = discount

	for _, line := range req.Items {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId").WithDetail("value", line.ProductID))
			return
		}
		price, ok := h.ParseMoney(c, "unitPrice", line.UnitPrice)
		if !ok {
			return
		}
		doc.AddLine(productID, types.Quantity(line.Quantity), price)
	}

	if err := h.svc.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.reports.InvalidateStore(c.Request.Context(), storeID)
	h.Created(c, doc.ID)
}

// Get returns one sale.
// GET /api/v1/sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.svc.GetByID(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if !h.RequireStoreAccess(c, doc.StoreID) {
		return
	}

	h.OK(c, doc)
}

// Cancel voids a completed sale and restocks its items. Admin only.
// POST /api/v1/sales/:id/cancel
func (h *SaleHandler) Cancel(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CancelRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.svc.Cancel(c.Request.Context(), saleID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.reports.InvalidateStore(c.Request.Context(), doc.StoreID)
	h.OK(c, doc)
}

// List returns sales.
// GET /api/v1/sales
func (h *SaleHandler) List(c *gin.Context) {
	filter := sale.Filter{
		Status: sale.Status(c.Query("status")),
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

	result, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result))
}
