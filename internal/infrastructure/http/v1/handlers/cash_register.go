package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/domain/documents/cashregister"
	"tiendero/internal/infrastructure/http/v1/dto"
)

// CashRegisterHandler handles cash register session endpoints. All of
// them are nested under /stores/:id and rely on the store scope
// middleware for access control.
type CashRegisterHandler struct {
	*BaseHandler
	svc *cashregister.Service
}

// NewCashRegisterHandler creates a new cash register handler.
func NewCashRegisterHandler(svc *cashregister.Service) *CashRegisterHandler {
	return &CashRegisterHandler{BaseHandler: NewBaseHandler(), svc: svc}
}

// Open starts a session with a counted opening float.
// POST /api/v1/stores/:id/register/open
func (h *CashRegisterHandler) Open(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.OpenRegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}
	opening, ok := h.ParseMoney(c, "openingAmount", req.OpeningAmount)
	if !ok {
		return
	}

	session, err := h.svc.Open(c.Request.Context(), storeID, opening)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// AddMovement records a manual cash income or expense on the open
// session.
// POST /api/v1/stores/:id/register/movements
func (h *CashRegisterHandler) AddMovement(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CashMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	amount, ok := h.ParseMoney(c, "amount", req.Amount)
	if !ok {
		return
	}

	session, err := h.svc.AddMovement(c.Request.Context(), storeID,
		cashregister.MovementType(req.Type), amount, req.Description)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, session)
}

// Close settles the open session against the counted drawer amount.
// POST /api/v1/stores/:id/register/close
func (h *CashRegisterHandler) Close(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CloseRegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}
	counted, ok := h.ParseMoney(c, "countedAmount", req.CountedAmount)
	if !ok {
		return
	}

	summary, err := h.svc.Close(c.Request.Context(), storeID, counted)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}

// Current returns the store's open session, if any.
// GET /api/v1/stores/:id/register
func (h *CashRegisterHandler) Current(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	session, found, err := h.svc.Current(c.Request.Context(), storeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if !found {
		h.Error(c, apperror.NewNotFound("open cash session", storeID.String()))
		return
	}

	h.OK(c, session)
}

// Get returns one session by id.
// GET /api/v1/register-sessions/:id
func (h *CashRegisterHandler) Get(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	session, err := h.svc.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if !h.RequireStoreAccess(c, session.StoreID) {
		return
	}

	h.OK(c, session)
}

// List returns sessions, most recently opened first.
// GET /api/v1/register-sessions
func (h *CashRegisterHandler) List(c *gin.Context) {
	filter := cashregister.Filter{
		Status: cashregister.Status(c.Query("status")),
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
