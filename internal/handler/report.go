package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/kasir/internal/domain/report"
)

// SalesReport totals completed orders in [from, to).
func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.reports.Sales(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSales(e, &s) })
}

// DailyReport returns completed-order totals per UTC day.
func (h *Handler) DailyReport(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	days, err := h.reports.Daily(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeDaily(e, days) })
}

// TopItemsReport ranks menu items by quantity sold.
func (h *Handler) TopItemsReport(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.reports.TopItems(r.Context(), p, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeTopItems(e, items) })
}

func parsePeriod(r *http.Request) (report.Period, error) {
	var (
		p   report.Period
		err error
	)
	if p.From, err = queryTime(r, "from"); err != nil {
		return report.Period{}, err
	}
	if p.To, err = queryTime(r, "to"); err != nil {
		return report.Period{}, err
	}
	return p, nil
}
