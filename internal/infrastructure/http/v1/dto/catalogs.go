package dto

// CreateStoreRequest for creating stores.
type CreateStoreRequest struct {
	Code    string  `json:"code"`
	Name    string  `json:"name" binding:"required"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
}

// UpdateStoreRequest for updating stores.
type UpdateStoreRequest struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	IsActive *bool   `json:"isActive"`
	Version  int     `json:"version" binding:"required,min=1"`
}

// CreateProductRequest for creating products.
type CreateProductRequest struct {
	SKU         string  `json:"sku" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Category    string  `json:"category"`
	Price       string  `json:"price" binding:"required"`
	Cost        string  `json:"cost" binding:"required"`
	Barcode     *string `json:"barcode"`
	Description *string `json:"description"`
}

// UpdateProductRequest for updating products.
type UpdateProductRequest struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Barcode     *string `json:"barcode"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
	Version     int     `json:"version" binding:"required,min=1"`
}

// SetPriceRequest changes a product's price and cost, journaled in the
// price history. Amounts travel as strings to keep decimal precision.
type SetPriceRequest struct {
	Price string `json:"price" binding:"required"`
	Cost  string `json:"cost" binding:"required"`
}

// CreateSupplierRequest for creating suppliers.
type CreateSupplierRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name" binding:"required"`
	ContactName *string `json:"contactName"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	TaxID       *string `json:"taxId"`
}

// UpdateSupplierRequest for updating suppliers.
type UpdateSupplierRequest struct {
	Name        *string `json:"name"`
	ContactName *string `json:"contactName"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	TaxID       *string `json:"taxId"`
	IsActive    *bool   `json:"isActive"`
	Version     int     `json:"version" binding:"required,min=1"`
}

// AssignInventoryRequest creates a ledger row for a product at a store.
type AssignInventoryRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"min=0"`
	MinStock  *int64 `json:"minStock"`
	MaxStock  *int64 `json:"maxStock"`
}

// SetThresholdsRequest updates reorder thresholds on a ledger row.
type SetThresholdsRequest struct {
	MinStock int64 `json:"minStock" binding:"min=0"`
	MaxStock int64 `json:"maxStock" binding:"required,min=1"`
}

// AdjustInventoryRequest applies a signed manual stock correction.
type AdjustInventoryRequest struct {
	Delta int64 `json:"delta" binding:"required"`
}
