package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain/documents/credit"
	"tiendero/internal/domain/reports"
	"tiendero/internal/infrastructure/http/v1/dto"
)

// CreditHandler handles fiado/apartado credit endpoints.
type CreditHandler struct {
	*BaseHandler
	svc     *credit.Service
	reports *reports.Service
}

// NewCreditHandler creates a new credit handler.
func NewCreditHandler(svc *credit.Service, reports *reports.Service) *CreditHandler {
	return &CreditHandler{BaseHandler: NewBaseHandler(), svc: svc, reports: reports}
}

// Create opens a credit, optionally with an initial payment.
// POST /api/v1/credits
func (h *CreditHandler) Create(c *gin.Context) {
	var req dto.CreateCreditRequest
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

	doc := credit.NewCredit(storeID, credit.Kind(req.Kind), req.CustomerName)
	doc.CustomerPhone = req.CustomerPhone
	doc.CustomerDocument = req.CustomerDocument
	doc.Notes = req.Notes

	if req.DueDate != nil {
		due, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid dueDate").WithDetail("value", *req.DueDate))
			return
		}
		doc.DueDate = &due
	}

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

	var initial *credit.PaymentInput
	if req.InitialPayment != nil {
		in, ok := h.paymentInput(c, *req.InitialPayment)
		if !ok {
			return
		}
		initial = &in
	}

	if err := h.svc.Create(c.Request.Context(), doc, initial); err != nil {
		h.Error(c, err)
		return
	}

	h.reports.InvalidateStore(c.Request.Context(), storeID)
	h.Created(c, doc.ID)
}

// AddPayment records an installment against a credit.
// POST /api/v1/credits/:id/payments
func (h *CreditHandler) AddPayment(c *gin.Context) {
	creditID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, ok := h.paymentInput(c, req)
	if !ok {
		return
	}

	doc, err := h.svc.AddPayment(c.Request.Context(), creditID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	if !h.RequireStoreAccess(c, doc.StoreID) {
		return
	}

	h.reports.InvalidateStore(c.Request.Context(), doc.StoreID)
	h.OK(c, doc)
}

// Cancel voids a credit; fiado goods return to stock. Admin only.
// POST /api/v1/credits/:id/cancel
func (h *CreditHandler) Cancel(c *gin.Context) {
	creditID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CancelRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.svc.Cancel(c.Request.Context(), creditID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.reports.InvalidateStore(c.Request.Context(), doc.StoreID)
	h.OK(c, doc)
}

// Get returns one credit.
// GET /api/v1/credits/:id
func (h *CreditHandler) Get(c *gin.Context) {
	creditID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.svc.GetByID(c.Request.Context(), creditID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if !h.RequireStoreAccess(c, doc.StoreID) {
		return
	}

	h.OK(c, doc)
}

// List returns credits.
// GET /api/v1/credits
func (h *CreditHandler) List(c *gin.Context) {
	filter := credit.Filter{
		Kind:           credit.Kind(c.Query("kind")),
		Status:         credit.Status(c.Query("status")),
		CustomerSearch: c.Query("customer"),
		Limit:          h.ParseIntQuery(c, "limit", 50),
		Offset:         h.ParseIntQuery(c, "offset", 0),
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

	result, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result))
}

func (h *CreditHandler) paymentInput(c *gin.Context, req dto.PaymentRequest) (credit.PaymentInput, bool) {
	amount, ok := h.ParseMoney(c, "amount", req.Amount)
	if !ok {
		return credit.PaymentInput{}, false
	}
	return credit.PaymentInput{
		Amount: amount,
		Method: credit.PaymentMethod(req.Method),
		Notes:  req.Notes,
	}, true
}
