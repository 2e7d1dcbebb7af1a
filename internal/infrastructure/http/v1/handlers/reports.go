package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"tiendero/internal/domain/reports"
)

// ReportsHandler handles per-store reporting endpoints, nested under
// /stores/:id behind the store scope middleware.
type ReportsHandler struct {
	*BaseHandler
	svc *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(svc *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: NewBaseHandler(), svc: svc}
}

// Sales returns the sales summary for a date range. Without from/to it
// covers the last 30 days.
// GET /api/v1/stores/:id/reports/sales
func (h *ReportsHandler) Sales(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	fromPtr, ok := h.ParseDate(c, "from")
	if !ok {
		return
	}
	toPtr, ok := h.ParseDate(c, "to")
	if !ok {
		return
	}

	to := time.Now()
	if toPtr != nil {
		to = *toPtr
	}
	from := to.AddDate(0, 0, -30)
	if fromPtr != nil {
		from = *fromPtr
	}

	summary, err := h.svc.SalesSummary(c.Request.Context(), storeID, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}

// Valuation returns the current stock valuation at cost and at retail.
// GET /api/v1/stores/:id/reports/valuation
func (h *ReportsHandler) Valuation(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	valuation, err := h.svc.InventoryValuation(c.Request.Context(), storeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, valuation)
}

// Credits returns the outstanding fiado and apartado balances.
// GET /api/v1/stores/:id/reports/credits
func (h *ReportsHandler) Credits(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	outstanding, err := h.svc.CreditsOutstanding(c.Request.Context(), storeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, outstanding)
}

// Dashboard returns the consolidated at-a-glance view for a store.
// GET /api/v1/stores/:id/dashboard
func (h *ReportsHandler) Dashboard(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	dashboard, err := h.svc.StoreDashboard(c.Request.Context(), storeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dashboard)
}
