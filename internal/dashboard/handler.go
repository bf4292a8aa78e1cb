package dashboard

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/mtlprog/btcdash/internal/chart"
	"github.com/mtlprog/btcdash/internal/domain"
	"github.com/mtlprog/btcdash/internal/export"
	"github.com/mtlprog/btcdash/internal/external"
	"github.com/mtlprog/btcdash/internal/jobs"
	"github.com/mtlprog/btcdash/internal/portfolio"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pages = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PriceStore reads the stored price history.
type PriceStore interface {
	ReadAll(ctx context.Context) ([]domain.PriceRecord, error)
	ReadLatest(ctx context.Context) (*domain.PriceRecord, error)
}

// Updater runs the daily price refresh on demand.
type Updater interface {
	Run(ctx context.Context) (jobs.UpdateResult, error)
}

// Handler provides the dashboard pages and JSON endpoints.
type Handler struct {
	prices   PriceStore
	updater  Updater
	summary  *portfolio.Service
	exporter *export.Service
}

// NewHandler creates a new dashboard handler. updater may be nil, which
// disables the refresh endpoint.
func NewHandler(prices PriceStore, updater Updater) *Handler {
	return &Handler{
		prices:   prices,
		updater:  updater,
		summary:  portfolio.NewService(prices),
		exporter: export.NewService(prices),
	}
}

// Index handles GET /.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	summary := h.summary.Summary(r.Context())
	renderPage(w, "index.html", summary.Display())
}

// ChartPage handles GET /dash/.
func (h *Handler) ChartPage(w http.ResponseWriter, r *http.Request) {
	renderPage(w, "chart.html", nil)
}

// chartResponse is one round trip of the range slider.
type chartResponse struct {
	Figure  chart.Figure    `json:"figure"`
	Min     int             `json:"min"`
	Max     int             `json:"max"`
	Value   chart.Selection `json:"value"`
	Marks   []chart.Mark    `json:"marks"`
	Caption string          `json:"caption"`
}

// GetChart handles GET /api/v1/chart?range=lo,hi.
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	sel, err := chart.ParseSelection(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.prices.ReadAll(r.Context())
	if err != nil {
		slog.Error("failed to read price history", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	data := chart.Prepare(records, sel)
	writeJSON(w, http.StatusOK, chartResponse{
		Figure:  data.Figure(),
		Min:     data.Min,
		Max:     data.Max,
		Value:   data.Value,
		Marks:   data.Marks,
		Caption: data.Caption,
	})
}

// ListPrices handles GET /api/v1/prices.
func (h *Handler) ListPrices(w http.ResponseWriter, r *http.Request) {
	records, err := h.prices.ReadAll(r.Context())
	if err != nil {
		slog.Error("failed to list prices", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if records == nil {
		records = []domain.PriceRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// GetLatestPrice handles GET /api/v1/prices/latest.
func (h *Handler) GetLatestPrice(w http.ResponseWriter, r *http.Request) {
	latest, err := h.prices.ReadLatest(r.Context())
	if err != nil {
		slog.Error("failed to get latest price", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if latest == nil {
		writeError(w, http.StatusNotFound, "no prices stored")
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

// ExportXLSX handles GET /api/v1/prices/export.xlsx.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := h.exporter.Export(r.Context(), export.NewXLSXWriter(&buf)); err != nil {
		slog.Error("failed to export prices", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="btc_prices.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to write export body", "error", err)
	}
}

// UpdatePrice handles POST /api/v1/prices/update.
func (h *Handler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	if h.updater == nil {
		writeError(w, http.StatusServiceUnavailable, "updates disabled")
		return
	}

	result, err := h.updater.Run(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result.Record)
	case errors.Is(err, jobs.ErrNoData):
		writeError(w, http.StatusNotFound, "no price data returned")
	case errors.Is(err, external.ErrSourceUnavailable):
		writeError(w, http.StatusBadGateway, "price source unavailable")
	default:
		slog.Error("failed to update price", "error", err)
		writeError(w, http.StatusInternalServerError, "update failed")
	}
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func renderPage(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("failed to render page", "page", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to write page body", "page", name, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
