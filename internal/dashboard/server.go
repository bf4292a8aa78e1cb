// Package dashboard serves the landing page, the interactive chart and the
// JSON endpoints behind them.
package dashboard

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, prices PriceStore, updater Updater, adminAPIKey string) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(NewHandler(prices, updater), adminAPIKey),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewRouter registers every dashboard route on a new ServeMux.
func NewRouter(h *Handler, adminAPIKey string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /dash/", h.ChartPage)
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("GET /api/v1/chart", h.GetChart)
	mux.HandleFunc("GET /api/v1/prices", h.ListPrices)
	mux.HandleFunc("GET /api/v1/prices/latest", h.GetLatestPrice)
	mux.HandleFunc("GET /api/v1/prices/export.xlsx", h.ExportXLSX)

	updateHandler := http.HandlerFunc(h.UpdatePrice)
	if adminAPIKey != "" {
		mux.Handle("POST /api/v1/prices/update", requireAuth(adminAPIKey, updateHandler))
	} else {
		mux.Handle("POST /api/v1/prices/update", updateHandler)
	}

	return mux
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
