package handlers

import (
	"github.com/gin-gonic/gin"

	"tiendero/internal/domain/catalogs/supplier"
	"tiendero/internal/infrastructure/http/v1/dto"
)

// SupplierHandler handles supplier catalog endpoints.
type SupplierHandler struct {
	*BaseHandler
	svc *supplier.Service
}

// NewSupplierHandler creates a new supplier handler.
func NewSupplierHandler(svc *supplier.Service) *SupplierHandler {
	return &SupplierHandler{BaseHandler: NewBaseHandler(), svc: svc}
}

// Create creates a supplier.
// POST /api/v1/suppliers
func (h *SupplierHandler) Create(c *gin.Context) {
	var req dto.CreateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sup := supplier.NewSupplier(req.Code, req.Name)
	sup.ContactName = req.ContactName
	sup.Phone = req.Phone
	sup.Email = req.Email
	sup.Address = req.Address
	sup.TaxID = req.TaxID

	if err := h.svc.Create(c.Request.Context(), sup); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, sup.ID)
}

// Get returns one supplier.
// GET /api/v1/suppliers/:id
func (h *SupplierHandler) Get(c *gin.Context) {
	supplierID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	sup, err := h.svc.GetByID(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, sup)
}

// Update modifies a supplier.
// PUT /api/v1/suppliers/:id
func (h *SupplierHandler) Update(c *gin.Context) {
	supplierID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sup, err := h.svc.GetByID(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if req.Name != nil {
		sup.Name = *req.Name
	}
	if req.ContactName != nil {
		sup.ContactName = req.ContactName
	}
	if req.Phone != nil {
		sup.Phone = req.Phone
	}
	if req.Email != nil {
		sup.Email = req.Email
	}
	if req.Address != nil {
		sup.Address = req.Address
	}
	if req.TaxID != nil {
		sup.TaxID = req.TaxID
	}
	if req.IsActive != nil {
		sup.IsActive = *req.IsActive
	}
	sup.Version = req.Version

	if err := h.svc.Update(c.Request.Context(), sup); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, sup)
}

// Delete removes a supplier.
// DELETE /api/v1/suppliers/:id
func (h *SupplierHandler) Delete(c *gin.Context) {
	supplierID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), supplierID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List returns suppliers.
// GET /api/v1/suppliers
func (h *SupplierHandler) List(c *gin.Context) {
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
