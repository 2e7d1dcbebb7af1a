package handlers

import (
	"github.com/gin-gonic/gin"

	"tiendero/internal/domain/catalogs/store"
	"tiendero/internal/infrastructure/http/v1/dto"
)

// StoreHandler handles store catalog endpoints.
type StoreHandler struct {
	*BaseHandler
	svc *store.Service
}

// NewStoreHandler creates a new store handler.
func NewStoreHandler(svc *store.Service) *StoreHandler {
	return &StoreHandler{BaseHandler: NewBaseHandler(), svc: svc}
}

// Create creates a store. Admin only.
// POST /api/v1/stores
func (h *StoreHandler) Create(c *gin.Context) {
	var req dto.CreateStoreRequest
	if !h.BindJSON(c, &req) {
		return
	}

	st := store.NewStore(req.Code, req.Name)
	st.Address = req.Address
	st.Phone = req.Phone
	st.Email = req.Email

	if err := h.svc.Create(c.Request.Context(), st); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, st.ID)
}

// Get returns one store.
// GET /api/v1/stores/:id
func (h *StoreHandler) Get(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	st, err := h.svc.GetByID(c.Request.Context(), storeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, st)
}

// Update modifies a store. Admin only.
// PUT /api/v1/stores/:id
func (h *StoreHandler) Update(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateStoreRequest
	if !h.BindJSON(c, &req) {
		return
	}

	st, err := h.svc.GetByID(c.Request.Context(), storeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if req.Name != nil {
		st.Name = *req.Name
	}
	if req.Address != nil {
		st.Address = req.Address
	}
	if req.Phone != nil {
		st.Phone = req.Phone
	}
	if req.Email != nil {
		st.Email = req.Email
	}
	if req.IsActive != nil {
		st.IsActive = *req.IsActive
	}
	st.Version = req.Version

	if err := h.svc.Update(c.Request.Context(), st); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, st)
}

// Delete removes a store. Admin only.
// DELETE /api/v1/stores/:id
func (h *StoreHandler) Delete(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), storeID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List returns stores.
// GET /api/v1/stores
func (h *StoreHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	result, err := h.svc.List(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result))
}
