package handlers

import (
	"github.com/gin-gonic/gin"

	"tiendero/internal/core/apperror"
	appctx "tiendero/internal/core/context"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain/documents/transfer"
	"tiendero/internal/domain/reports"
	"tiendero/internal/infrastructure/http/v1/dto"
)

// TransferHandler handles inter-store transfer endpoints.
type TransferHandler struct {
	*BaseHandler
	svc     *transfer.Service
	reports *reports.Service
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(svc *transfer.Service, reports *reports.Service) *TransferHandler {
	return &TransferHandler{BaseHandler: NewBaseHandler(), svc: svc, reports: reports}
}

// Create registers a pending transfer; no stock moves yet.
// POST /api/v1/transfers
func (h *TransferHandler) Create(c *gin.Context) {
	var req dto.CreateTransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	fromStoreID, err := id.Parse(req.FromStoreID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid fromStoreId").WithDetail("value", req.FromStoreID))
		return
	}
	toStoreID, err := id.Parse(req.ToStoreID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid toStoreId").WithDetail("value", req.ToStoreID))
		return
	}
	if !h.RequireStoreAccess(c, fromStoreID) {
		return
	}

	doc := transfer.NewTransfer(fromStoreID, toStoreID)
	doc.Notes = req.Notes

	for _, line := range req.Items {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId").WithDetail("value", line.ProductID))
			return
		}
		doc.AddLine(productID, types.Quantity(line.Quantity))
	}

	if err := h.svc.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, doc.ID)
}

// Send dispatches a pending transfer; stock leaves the source.
// POST /api/v1/transfers/:id/send
func (h *TransferHandler) Send(c *gin.Context) {
	transferID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.svc.Send(c.Request.Context(), transferID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.reports.InvalidateStore(c.Request.Context(), doc.FromStoreID())
	h.OK(c, doc)
}

// Receive confirms receipt, possibly under-delivered; stock enters the
// destination.
// POST /api/v1/transfers/:id/receive
func (h *TransferHandler) Receive(c *gin.Context) {
	transferID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ReceiveTransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	receipts := make([]transfer.Receipt, 0, len(req.Items))
	for _, line := range req.Items {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId").WithDetail("value", line.ProductID))
			return
		}
		receipts = append(receipts, transfer.Receipt{
			ProductID: productID,
			Quantity:  types.Quantity(line.Quantity),
		})
	}

	doc, err := h.svc.Receive(c.Request.Context(), transferID, receipts)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.reports.InvalidateStore(c.Request.Context(), doc.ToStoreID)
	h.OK(c, doc)
}

// Cancel voids a pending or in-transit transfer, restocking the source
// when goods already left. Admin only.
// POST /api/v1/transfers/:id/cancel
func (h *TransferHandler) Cancel(c *gin.Context) {
	transferID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CancelRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.svc.Cancel(c.Request.Context(), transferID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.reports.InvalidateStore(c.Request.Context(), doc.FromStoreID())
	h.OK(c, doc)
}

// Get returns one transfer.
// GET /api/v1/transfers/:id
func (h *TransferHandler) Get(c *gin.Context) {
	transferID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.svc.GetByID(c.Request.Context(), transferID)
	if err != nil {
		h.Error(c, err)
		return
	}
	// Both ends of the transfer may look at it.
	ctx := c.Request.Context()
	if !appctx.HasStoreAccess(ctx, doc.FromStoreID().String()) &&
		!appctx.HasStoreAccess(ctx, doc.ToStoreID.String()) {
		h.Error(c, apperror.NewForbidden("no access to this transfer").
			WithDetail("transfer_id", doc.ID.String()))
		return
	}

	h.OK(c, doc)
}

// List returns transfers touching a store.
// GET /api/v1/transfers
func (h *TransferHandler) List(c *gin.Context) {
	filter := transfer.Filter{
		Status: transfer.Status(c.Query("status")),
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
	} else if u := appctx.GetUser(c.Request.Context()); u != nil && !u.IsAdmin {
		// Store users only see transfers touching their own store.
		storeID, err := id.Parse(u.StoreID)
		if err != nil {
			h.Error(c, apperror.NewForbidden("no store assigned"))
			return
		}
		filter.StoreID = storeID
	}

	result, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result))
}
