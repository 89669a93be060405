// Package server exposes the dashboard over HTTP and WebSocket.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gw/equity-ledger/internal/collector"
	"github.com/gw/equity-ledger/internal/selection"
	"github.com/gw/equity-ledger/internal/tradelog"
	"github.com/gw/equity-ledger/internal/view"
)

// Snapshots is the read side of the refresh loop.
type Snapshots interface {
	Snapshot() *collector.Snapshot
	Stats() (cycles, failures int64)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	snaps Snapshots
	coord *selection.Coordinator
	store *tradelog.Store
	hub   *Hub
}

// NewHandler creates a Handler. store may be nil, which disables the P&L
// endpoints.
func NewHandler(snaps Snapshots, coord *selection.Coordinator, store *tradelog.Store, hub *Hub) *Handler {
	return &Handler{snaps: snaps, coord: coord, store: store, hub: hub}
}

// snapshot writes a 503 and returns nil until the first refresh succeeds.
func (h *Handler) snapshot(w http.ResponseWriter) *collector.Snapshot {
	s := h.snaps.Snapshot()
	if s == nil {
		http.Error(w, "trade log not loaded yet", http.StatusServiceUnavailable)
	}
	return s
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	cycles, failures := h.snaps.Stats()
	resp := map[string]any{
		"status":   "healthy",
		"cycles":   cycles,
		"failures": failures,
		"clients":  h.hub.ClientCount(),
	}
	if s := h.snaps.Snapshot(); s != nil {
		resp["trades"] = len(s.Result.Trades)
		resp["fetched_at"] = s.FetchedAt.UTC().Format(time.RFC3339)
	} else {
		resp["status"] = "loading"
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetChart handles GET /api/v1/chart
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	s := h.snapshot(w)
	if s == nil {
		return
	}
	respondJSON(w, http.StatusOK, view.NewChart(s.Chart, h.coord.State()))
}

// GetChartPNG handles GET /api/v1/chart.png
func (h *Handler) GetChartPNG(w http.ResponseWriter, r *http.Request) {
	s := h.snapshot(w)
	if s == nil {
		return
	}
	st := h.coord.State()
	selected := ""
	if st.HasSelection {
		selected = st.SelectedTime
	}

	png, err := view.RenderChart(s.Chart, selected)
	if errors.Is(err, view.ErrTooFewPoints) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		slog.Error("render chart", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

// ClickChart handles POST /api/v1/chart/click
func (h *Handler) ClickChart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index *int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Index == nil {
		http.Error(w, "index is required", http.StatusBadRequest)
		return
	}

	s := h.snapshot(w)
	if s == nil {
		return
	}
	if *req.Index < 0 || *req.Index >= len(s.Chart) {
		http.Error(w, "index out of range", http.StatusBadRequest)
		return
	}

	h.coord.ChartPointClicked(s.Chart[*req.Index].Time)
	respondJSON(w, http.StatusOK, view.NewChart(s.Chart, h.coord.State()))
}

// GetSidebar handles GET /api/v1/sidebar
func (h *Handler) GetSidebar(w http.ResponseWriter, r *http.Request) {
	s := h.snapshot(w)
	if s == nil {
		return
	}
	respondJSON(w, http.StatusOK, view.NewSidebar(s.Ledger, s.Summary, h.coord.State()))
}

// PageSidebar handles POST /api/v1/sidebar/page
func (h *Handler) PageSidebar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	dir, ok := selection.ParseDirection(req.Direction)
	if !ok {
		http.Error(w, "direction must be 'next' or 'previous'", http.StatusBadRequest)
		return
	}

	s := h.snapshot(w)
	if s == nil {
		return
	}
	h.coord.PageChanged(dir)
	respondJSON(w, http.StatusOK, view.NewSidebar(s.Ledger, s.Summary, h.coord.State()))
}

// HoverSidebar handles POST /api/v1/sidebar/hover
func (h *Handler) HoverSidebar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Group string `json:"group"`
		Enter bool   `json:"enter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Group == "" {
		http.Error(w, "group is required", http.StatusBadRequest)
		return
	}

	h.coord.Hover(req.Group, req.Enter)
	w.WriteHeader(http.StatusNoContent)
}

// GetTrades handles GET /api/v1/trades, newest first. ?limit=N caps the list.
func (h *Handler) GetTrades(w http.ResponseWriter, r *http.Request) {
	s := h.snapshot(w)
	if s == nil {
		return
	}
	trades := s.Ledger.Trades()
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		trades = trades[:min(n, len(trades))]
	}
	respondJSON(w, http.StatusOK, view.NewTrades(trades))
}

// GetHistory handles GET /api/v1/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	s := h.snapshot(w)
	if s == nil {
		return
	}
	respondJSON(w, http.StatusOK, view.NewHistory(s.Result.History))
}

// GetSummary handles GET /api/v1/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s := h.snapshot(w)
	if s == nil {
		return
	}
	respondJSON(w, http.StatusOK, view.NewSummary(s.Summary))
}

// GetDailyPnL handles GET /api/v1/pnl/daily
func (h *Handler) GetDailyPnL(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "store disabled", http.StatusServiceUnavailable)
		return
	}
	rows, err := h.store.GetDailyPnL(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, view.NewDailyPnL(rows))
}

// GetTickerPnL handles GET /api/v1/pnl/tickers
func (h *Handler) GetTickerPnL(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "store disabled", http.StatusServiceUnavailable)
		return
	}
	rows, err := h.store.GetTickerPnL(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, view.NewTickerPnL(rows))
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encode response", "err", err)
	}
}
