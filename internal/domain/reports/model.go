// Package reports provides read-only reporting over sales and stock.
// Report payloads are cached best-effort with a short TTL; every
// stock- or sale-mutating endpoint invalidates the affected store's
// entries explicitly, so staleness is bounded by the TTL only for
// out-of-band writes.
package reports

import (
	"time"

	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
)

// SalesSummary aggregates completed sales for a store over a window.
type SalesSummary struct {
	StoreID id.ID     `json:"storeId"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`

	SaleCount     int64       `json:"saleCount"`
	Revenue       types.Money `json:"revenue"`
	Tax           types.Money `json:"tax"`
	Discount      types.Money `json:"discount"`
	AverageTicket types.Money `json:"averageTicket"`

	ByMethod []MethodTotal `json:"byMethod"`
	ByDay    []DayTotal    `json:"byDay"`

	TopProducts []ProductTotal `json:"topProducts"`
}

// MethodTotal is revenue per payment method.
type MethodTotal struct {
	Method  string      `db:"method" json:"method"`
	Count   int64       `db:"count" json:"count"`
	Revenue types.Money `db:"revenue" json:"revenue"`
}

// DayTotal is revenue per calendar day.
type DayTotal struct {
	Day     time.Time   `db:"day" json:"day"`
	Count   int64       `db:"count" json:"count"`
	Revenue types.Money `db:"revenue" json:"revenue"`
}

// ProductTotal is units and revenue per product.
type ProductTotal struct {
	ProductID id.ID       `db:"product_id" json:"productId"`
	Name      string      `db:"name" json:"name"`
	SKU       string      `db:"sku" json:"sku"`
	Units     int64       `db:"units" json:"units"`
	Revenue   types.Money `db:"revenue" json:"revenue"`
}

// InventoryValuation values a store's stock at cost and at retail.
type InventoryValuation struct {
	StoreID id.ID     `json:"storeId"`
	AsOf    time.Time `json:"asOf"`

	ProductCount int64       `json:"productCount"`
	TotalUnits   int64       `json:"totalUnits"`
	CostValue    types.Money `json:"costValue"`
	RetailValue  types.Money `json:"retailValue"`

	Lines []ValuationLine `json:"lines"`
}

// ValuationLine is one product's contribution to the valuation.
type ValuationLine struct {
	ProductID   id.ID       `db:"product_id" json:"productId"`
	Name        string      `db:"name" json:"name"`
	SKU         string      `db:"sku" json:"sku"`
	Quantity    int64       `db:"quantity" json:"quantity"`
	UnitCost    types.Money `db:"unit_cost" json:"unitCost"`
	UnitPrice   types.Money `db:"unit_price" json:"unitPrice"`
	CostValue   types.Money `db:"cost_value" json:"costValue"`
	RetailValue types.Money `db:"retail_value" json:"retailValue"`
}

// StoreDashboard is the at-a-glance view for one store: the day so
// far, the trailing thirty days of sales, the stock headline and open
// customer credit.
type StoreDashboard struct {
	StoreID id.ID     `json:"storeId"`
	AsOf    time.Time `json:"asOf"`

	Today     DayTotal            `json:"today"`
	Sales     *SalesSummary       `json:"sales"`
	Inventory InventoryCounts     `json:"inventory"`
	Credits   *CreditsOutstanding `json:"credits"`
}

// InventoryCounts is the stock headline for a store.
type InventoryCounts struct {
	ProductCount  int64 `db:"product_count" json:"productCount"`
	TotalUnits    int64 `db:"total_units" json:"totalUnits"`
	LowStockCount int64 `db:"low_stock_count" json:"lowStockCount"`
}

// CreditsOutstanding summarizes open customer credit for a store.
type CreditsOutstanding struct {
	StoreID id.ID     `json:"storeId"`
	AsOf    time.Time `json:"asOf"`

	OpenCount   int64       `json:"openCount"`
	TotalOwed   types.Money `json:"totalOwed"`
	FiadoOwed   types.Money `json:"fiadoOwed"`
	ApartadoOwed types.Money `json:"apartadoOwed"`
}
