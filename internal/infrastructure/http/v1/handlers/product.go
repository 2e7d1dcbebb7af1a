package handlers

import (
	"github.com/gin-gonic/gin"

	"tiendero/internal/domain/catalogs/product"
	"tiendero/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles product catalog endpoints.
type ProductHandler struct {
	*BaseHandler
	svc *product.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(svc *product.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: NewBaseHandler(), svc: svc}
}

// Create creates a product. Admin only.
// POST /api/v1/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	price, ok := h.ParseMoney(c, "price", req.Price)
	if !ok {
		return
	}
	cost, ok := h.ParseMoney(c, "cost", req.Cost)
	if !ok {
		return
	}

	p := product.NewProduct(req.SKU, req.Name, req.Category, price, cost)
	p.Barcode = req.Barcode
	p.Description = req.Description

	if err := h.svc.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p.ID)
}

// Get returns one product by ID.
// GET /api/v1/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// GetBySKU returns one product by SKU.
// GET /api/v1/products/sku/:sku
func (h *ProductHandler) GetBySKU(c *gin.Context) {
	p, err := h.svc.GetBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// GetByBarcode returns one product by barcode.
// GET /api/v1/products/barcode/:barcode
func (h *ProductHandler) GetByBarcode(c *gin.Context) {
	p, err := h.svc.GetByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// Update modifies a product. Admin only. Price changes go through
// SetPrice so the price history stays complete.
// PUT /api/v1/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.svc.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Barcode != nil {
		p.Barcode = req.Barcode
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	p.Version = req.Version

	if err := h.svc.Update(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// SetPrice changes price and cost, recording the previous values.
// PUT /api/v1/products/:id/price
func (h *ProductHandler) SetPrice(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetPriceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	price, ok := h.ParseMoney(c, "price", req.Price)
	if !ok {
		return
	}
	cost, ok := h.ParseMoney(c, "cost", req.Cost)
	if !ok {
		return
	}

	p, err := h.svc.SetPrice(c.Request.Context(), productID, price, cost)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// PriceHistory returns recent price changes.
// GET /api/v1/products/:id/price-history
func (h *ProductHandler) PriceHistory(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	limit := h.ParseIntQuery(c, "limit", 20)

	history, err := h.svc.PriceHistory(c.Request.Context(), productID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, history)
}

// Delete removes a product. Admin only.
// DELETE /api/v1/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), productID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List returns products.
// GET /api/v1/products
func (h *ProductHandler) List(c *gin.Context) {
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
