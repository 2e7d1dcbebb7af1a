package dto

// --- Sales ---

// SaleLineRequest is one item on a sale or credit.
// A zero or omitted unitPrice means "use the catalog price".
type SaleLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
	UnitPrice string `json:"unitPrice"`
}

// CreateSaleRequest for creating sales.
type CreateSaleRequest struct {
	StoreID       string            `json:"storeId" binding:"required"`
	PaymentMethod string            `json:"paymentMethod" binding:"required"`
	Items         []SaleLineRequest `json:"items" binding:"required,min=1,dive"`
	Tax           string            `json:"tax"`
	Discount      string            `json:"discount"`
	Notes         string            `json:"notes"`
}

// --- Credits ---

// PaymentRequest is one installment against a credit.
type PaymentRequest struct {
	Amount string `json:"amount" binding:"required"`
	Method string `json:"method" binding:"required"`
	Notes  string `json:"notes"`
}

// CreateCreditRequest for creating fiado/apartado credits.
type CreateCreditRequest struct {
	StoreID        string            `json:"storeId" binding:"required"`
	Kind           string            `json:"kind" binding:"required"`
	CustomerName     string          `json:"customerName" binding:"required"`
	CustomerPhone    string          `json:"customerPhone"`
	CustomerDocument string          `json:"customerDocument"`
	DueDate          *string         `json:"dueDate"`
	Items          []SaleLineRequest `json:"items" binding:"required,min=1,dive"`
	InitialPayment *PaymentRequest   `json:"initialPayment"`
	Notes          string            `json:"notes"`
}

// --- Transfers ---

// TransferLineRequest is one item on a transfer.
type TransferLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
}

// CreateTransferRequest for creating transfers.
type CreateTransferRequest struct {
	FromStoreID string                `json:"fromStoreId" binding:"required"`
	ToStoreID   string                `json:"toStoreId" binding:"required"`
	Items       []TransferLineRequest `json:"items" binding:"required,min=1,dive"`
	Notes       string                `json:"notes"`
}

// ReceiptLineRequest reports a received quantity for one product.
type ReceiptLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"min=0"`
}

// ReceiveTransferRequest confirms receipt, possibly under-delivered.
// Omitted products default to the full sent quantity.
type ReceiveTransferRequest struct {
	Items []ReceiptLineRequest `json:"items" binding:"dive"`
}

// --- Purchase orders ---

// PurchaseOrderLineRequest is one ordered item.
// A zero or omitted unitCost means "use the catalog cost".
type PurchaseOrderLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
	UnitCost  string `json:"unitCost"`
}

// CreatePurchaseOrderRequest for ordering from a supplier.
type CreatePurchaseOrderRequest struct {
	StoreID    string                     `json:"storeId" binding:"required"`
	SupplierID string                     `json:"supplierId" binding:"required"`
	Items      []PurchaseOrderLineRequest `json:"items" binding:"required,min=1,dive"`
	Tax        string                     `json:"tax"`
	Shipping   string                     `json:"shipping"`
	ExpectedAt *string                    `json:"expectedAt"`
	Notes      string                     `json:"notes"`
}

// ReceivePurchaseOrderRequest records a (possibly partial) delivery.
type ReceivePurchaseOrderRequest struct {
	Items []ReceiptLineRequest `json:"items" binding:"required,min=1,dive"`
}

// --- Returns ---

// ReturnLineRequest is one returned item.
type ReturnLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
	Reason    string `json:"reason"`
}

// ExchangeLineRequest is one replacement item on an exchange.
type ExchangeLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
	UnitPrice string `json:"unitPrice"`
}

// CreateReturnRequest for returns and exchanges against a sale.
type CreateReturnRequest struct {
	SaleID        string                `json:"saleId" binding:"required"`
	Kind          string                `json:"kind" binding:"required"`
	Items         []ReturnLineRequest   `json:"items" binding:"required,min=1,dive"`
	ExchangeItems []ExchangeLineRequest `json:"exchangeItems" binding:"dive"`
	Notes         string                `json:"notes"`
}

// RejectReturnRequest carries the rejection reason.
type RejectReturnRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// --- Cash register ---

// OpenRegisterRequest opens a session with counted opening cash.
type OpenRegisterRequest struct {
	OpeningAmount string `json:"openingAmount" binding:"required"`
}

// CashMovementRequest records a manual cash in/out.
type CashMovementRequest struct {
	Type        string `json:"type" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// CloseRegisterRequest closes a session with counted cash.
type CloseRegisterRequest struct {
	CountedAmount string `json:"countedAmount" binding:"required"`
}
