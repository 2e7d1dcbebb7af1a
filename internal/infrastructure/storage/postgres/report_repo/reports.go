// Package report_repo runs the reporting aggregations in SQL. Reads go
// through the pool (or an ambient read-only transaction); nothing here
// mutates state.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain/documents/credit"
	"tiendero/internal/domain/documents/sale"
	"tiendero/internal/domain/reports"
	"tiendero/internal/infrastructure/storage/postgres"
)

const topProductLimit = 10

var _ reports.Repository = (*ReportRepo)(nil)

// ReportRepo is the PostgreSQL reporting repository.
type ReportRepo struct {
	txManager *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txManager: txManager}
}

func (r *ReportRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *ReportRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// SalesSummary aggregates completed sales for a store within [from, to).
func (r *ReportRepo) SalesSummary(ctx context.Context, storeID id.ID, from, to time.Time) (*reports.SalesSummary, error) {
	summary := &reports.SalesSummary{
		StoreID:       storeID,
		From:          from,
		To:            to,
		Revenue:       types.ZeroMoney(),
		Tax:           types.ZeroMoney(),
		Discount:      types.ZeroMoney(),
		AverageTicket: types.ZeroMoney(),
	}

	completed := func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		return q.
			Where(squirrel.Eq{"store_id": storeID}).
			Where(squirrel.Eq{"status": sale.StatusCompleted}).
			Where(squirrel.GtOrEq{"date": from}).
			Where(squirrel.Lt{"date": to})
	}

	sql, args, err := completed(r.builder().
		Select(
			"COUNT(*) AS sale_count",
			"COALESCE(SUM(final_total), 0) AS revenue",
			"COALESCE(SUM(tax), 0) AS tax",
			"COALESCE(SUM(discount), 0) AS discount",
		).
		From("doc_sales")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build totals query: %w", err)
	}

	var totals struct {
		SaleCount int64       `db:"sale_count"`
		Revenue   types.Money `db:"revenue"`
		Tax       types.Money `db:"tax"`
		Discount  types.Money `db:"discount"`
	}
	if err := pgxscan.Get(ctx, r.querier(ctx), &totals, sql, args...); err != nil {
		return nil, fmt.Errorf("sales totals: %w", err)
	}
	summary.SaleCount = totals.SaleCount
	summary.Revenue = totals.Revenue
	summary.Tax = totals.Tax
	summary.Discount = totals.Discount
	if totals.SaleCount > 0 {
		summary.AverageTicket = totals.Revenue.Div(types.MoneyFromInt(totals.SaleCount))
	}

	sql, args, err = completed(r.builder().
		Select(
			"payment_method AS method",
			"COUNT(*) AS count",
			"COALESCE(SUM(final_total), 0) AS revenue",
		).
		From("doc_sales")).
		GroupBy("payment_method").
		OrderBy("revenue DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build by-method query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &summary.ByMethod, sql, args...); err != nil {
		return nil, fmt.Errorf("sales by method: %w", err)
	}

	sql, args, err = completed(r.builder().
		Select(
			"date_trunc('day', date) AS day",
			"COUNT(*) AS count",
			"COALESCE(SUM(final_total), 0) AS revenue",
		).
		From("doc_sales")).
		GroupBy("date_trunc('day', date)").
		OrderBy("day ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build by-day query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &summary.ByDay, sql, args...); err != nil {
		return nil, fmt.Errorf("sales by day: %w", err)
	}

	sql, args, err = r.builder().
		Select(
			"l.product_id",
			"p.name",
			"p.sku",
			"COALESCE(SUM(l.quantity), 0) AS units",
			"COALESCE(SUM(l.subtotal), 0) AS revenue",
		).
		From("doc_sale_lines l").
		Join("doc_sales s ON s.id = l.sale_id").
		Join("cat_products p ON p.id = l.product_id").
		Where(squirrel.Eq{"s.store_id": storeID}).
		Where(squirrel.Eq{"s.status": sale.StatusCompleted}).
		Where(squirrel.GtOrEq{"s.date": from}).
		Where(squirrel.Lt{"s.date": to}).
		GroupBy("l.product_id", "p.name", "p.sku").
		OrderBy("units DESC").
		Limit(topProductLimit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build top products query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &summary.TopProducts, sql, args...); err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}

	return summary, nil
}

// InventoryValuation values a store's stock at cost and at retail.
func (r *ReportRepo) InventoryValuation(ctx context.Context, storeID id.ID) (*reports.InventoryValuation, error) {
	valuation := &reports.InventoryValuation{
		StoreID:     storeID,
		AsOf:        time.Now().UTC(),
		CostValue:   types.ZeroMoney(),
		RetailValue: types.ZeroMoney(),
	}

	sql, args, err := r.builder().
		Select(
			"i.product_id",
			"p.name",
			"p.sku",
			"i.quantity",
			"p.cost AS unit_cost",
			"p.price AS unit_price",
			"i.quantity * p.cost AS cost_value",
			"i.quantity * p.price AS retail_value",
		).
		From("reg_inventory i").
		Join("cat_products p ON p.id = i.product_id").
		Where(squirrel.Eq{"i.store_id": storeID}).
		Where(squirrel.Gt{"i.quantity": 0}).
		OrderBy("retail_value DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build valuation query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &valuation.Lines, sql, args...); err != nil {
		return nil, fmt.Errorf("inventory valuation: %w", err)
	}

	for _, line := range valuation.Lines {
		valuation.ProductCount++
		valuation.TotalUnits += line.Quantity
		valuation.CostValue = valuation.CostValue.Add(line.CostValue)
		valuation.RetailValue = valuation.RetailValue.Add(line.RetailValue)
	}
	return valuation, nil
}

// InventoryCounts returns the stock headline for a store: distinct
// products, total units on hand and how many rows sit at or below
// their minimum.
func (r *ReportRepo) InventoryCounts(ctx context.Context, storeID id.ID) (*reports.InventoryCounts, error) {
	sql, args, err := r.builder().
		Select(
			"COUNT(*) AS product_count",
			"COALESCE(SUM(quantity), 0) AS total_units",
			"COALESCE(SUM(CASE WHEN quantity <= min_stock THEN 1 ELSE 0 END), 0) AS low_stock_count",
		).
		From("reg_inventory").
		Where(squirrel.Eq{"store_id": storeID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build inventory counts query: %w", err)
	}

	counts := &reports.InventoryCounts{}
	if err := pgxscan.Get(ctx, r.querier(ctx), counts, sql, args...); err != nil {
		return nil, fmt.Errorf("inventory counts: %w", err)
	}
	return counts, nil
}

// CreditsOutstanding summarizes open customer credit for a store.
func (r *ReportRepo) CreditsOutstanding(ctx context.Context, storeID id.ID) (*reports.CreditsOutstanding, error) {
	out := &reports.CreditsOutstanding{
		StoreID:      storeID,
		AsOf:         time.Now().UTC(),
		TotalOwed:    types.ZeroMoney(),
		FiadoOwed:    types.ZeroMoney(),
		ApartadoOwed: types.ZeroMoney(),
	}

	// Outstanding = total - sum(payments), per open credit.
	sql, args, err := r.builder().
		Select(
			"c.kind",
			"COUNT(*) AS open_count",
			"COALESCE(SUM(c.total - COALESCE(p.paid, 0)), 0) AS owed",
		).
		From("doc_credits c").
		LeftJoin("(SELECT credit_id, SUM(amount) AS paid FROM doc_credit_payments GROUP BY credit_id) p ON p.credit_id = c.id").
		Where(squirrel.Eq{"c.store_id": storeID}).
		Where(squirrel.Eq{"c.status": []credit.Status{credit.StatusPending, credit.StatusPartial}}).
		GroupBy("c.kind").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build credits query: %w", err)
	}

	var rows []struct {
		Kind      credit.Kind `db:"kind"`
		OpenCount int64       `db:"open_count"`
		Owed      types.Money `db:"owed"`
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("credits outstanding: %w", err)
	}

	for _, row := range rows {
		out.OpenCount += row.OpenCount
		out.TotalOwed = out.TotalOwed.Add(row.Owed)
		switch row.Kind {
		case credit.KindFiado:
			out.FiadoOwed = row.Owed
		case credit.KindApartado:
			out.ApartadoOwed = row.Owed
		}
	}
	return out, nil
}
