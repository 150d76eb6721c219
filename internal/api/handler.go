package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"stocksense/config"
	"stocksense/internal/app"
	"stocksense/internal/registry"
	"stocksense/models"
	"stocksense/services"
	"stocksense/templates"
	"stocksense/templates/components"
	"stocksense/templates/partials"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.&-]+$`)

// Handler handles HTTP API requests
type Handler struct {
	dash     *app.Dashboard
	cfg      *config.Config
	breakers *services.CircuitBreakerRegistry
	stream   StreamConfig
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithBreakers reports the given breaker registry from /api/health instead
// of the global one
func WithBreakers(r *services.CircuitBreakerRegistry) HandlerOption {
	return func(h *Handler) {
		if r != nil {
			h.breakers = r
		}
	}
}

// NewHandler creates a new Handler
func NewHandler(dash *app.Dashboard, cfg *config.Config, opts ...HandlerOption) *Handler {
	h := &Handler{dash: dash, cfg: cfg, stream: DefaultStreamConfig}
	for _, opt := range opts {
		opt(h)
	}
	if h.breakers == nil {
		h.breakers = services.GetGlobalRegistry()
	}
	return h
}

// HandleIndex serves the dashboard page
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Index(templates.Page{
		Snapshot:  h.dash.Snapshot(),
		Counts:    h.dash.NewsCounts(),
		Series:    h.dash.IndexSeries(),
		Sentiment: h.dash.Sentiment(),
		Status:    h.dash.MarketStatus(),
		PollEvery: h.dash.RefreshInterval(),
	}).Render(r.Context(), w)
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
		"providers": map[string]string{
			"quotes": h.cfg.Provider.Quotes,
			"news":   h.cfg.Provider.News,
		},
		"dashboard": h.dash.Health(),
	}

	cbStatus := h.breakers.Status()
	status["circuit_breakers"] = cbStatus

	// An open breaker means a live provider is being bypassed
	for _, cb := range cbStatus {
		if cb.State == "open" {
			status["status"] = "degraded"
			break
		}
	}

	h.jsonResponse(w, status)
}

// HandleGetStocks returns the tracked quotes
func (h *Handler) HandleGetStocks(w http.ResponseWriter, r *http.Request) {
	if isHTMXRequest(r) {
		h.renderStockGrid(w, r)
		return
	}

	stocks := h.dash.Tracked()
	h.jsonResponse(w, map[string]interface{}{
		"stocks":   stocks,
		"count":    len(stocks),
		"capacity": registry.Capacity,
	})
}

// HandleAddStock starts tracking a symbol
func (h *Handler) HandleAddStock(w http.ResponseWriter, r *http.Request) {
	var req AddStockRequest

	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		_ = json.NewDecoder(r.Body).Decode(&req)
	} else {
		_ = r.ParseForm()
		req.Symbol = r.FormValue("symbol")
	}

	quote, err := h.dash.AddSymbol(r.Context(), req.Symbol)

	// The outcome reaches HTMX clients as a notification; the grid is
	// returned either way so the swap always succeeds.
	if isHTMXRequest(r) {
		h.renderStockGrid(w, r)
		return
	}

	if err != nil {
		h.jsonError(w, err.Error(), statusForError(err))
		return
	}
	h.jsonResponseStatus(w, quote, http.StatusCreated)
}

// HandleRemoveStock stops tracking a symbol
func (h *Handler) HandleRemoveStock(w http.ResponseWriter, r *http.Request) {
	symbol := registry.Normalize(chi.URLParam(r, "symbol"))
	removed := h.dash.RemoveSymbol(symbol)

	if isHTMXRequest(r) {
		h.renderStockGrid(w, r)
		return
	}

	status := "removed"
	if !removed {
		status = "not_tracked"
	}
	h.jsonResponse(w, map[string]string{"status": status, "symbol": symbol})
}

// HandleRefresh refreshes every tracked price immediately
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.dash.ManualRefresh(r.Context()); err != nil {
		if isHTMXRequest(r) {
			h.htmlError(w, err.Error(), r)
			return
		}
		h.jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	if isHTMXRequest(r) {
		h.renderStockGrid(w, r)
		return
	}

	h.jsonResponse(w, map[string]interface{}{
		"status": "refreshed",
		"stocks": h.dash.Tracked(),
	})
}

// HandleGetStock returns one quote without tracking it
func (h *Handler) HandleGetStock(w http.ResponseWriter, r *http.Request) {
	symbol := registry.Normalize(chi.URLParam(r, "symbol"))
	if err := h.ValidateSymbol(symbol); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	quote, err := h.dash.Quote(r.Context(), symbol)
	if err != nil {
		h.jsonError(w, err.Error(), statusForError(err))
		return
	}
	h.jsonResponse(w, quote)
}

// HandleBatchQuotes resolves several symbols at once, skipping unknown ones
func (h *Handler) HandleBatchQuotes(w http.ResponseWriter, r *http.Request) {
	var req BatchQuotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Symbols) == 0 {
		h.jsonError(w, "symbols are required", http.StatusBadRequest)
		return
	}

	quotes, err := h.dash.Quotes(r.Context(), req.Symbols)
	if err != nil {
		h.jsonError(w, err.Error(), statusForError(err))
		return
	}
	h.jsonResponse(w, quotes)
}

// HandleGetNews returns headlines, applying the filter query parameter when present
func (h *Handler) HandleGetNews(w http.ResponseWriter, r *http.Request) {
	items := h.dash.News()
	if f, ok := r.URL.Query()["filter"]; ok && len(f) > 0 {
		filtered, err := h.dash.SetNewsFilter(f[0])
		if err != nil {
			if isHTMXRequest(r) {
				h.htmlError(w, err.Error(), r)
				return
			}
			h.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		items = filtered
	}

	filter := h.dash.NewsFilter()
	counts := h.dash.NewsCounts()

	if isHTMXRequest(r) {
		h.htmlResponse(w, partials.NewsPanel(items, filter, counts), r)
		return
	}

	h.jsonResponse(w, map[string]interface{}{
		"filter": filter,
		"news":   items,
		"counts": counts,
	})
}

// HandleGetIndices returns the benchmark indices
func (h *Handler) HandleGetIndices(w http.ResponseWriter, r *http.Request) {
	indices := h.dash.Indices()
	if isHTMXRequest(r) {
		h.htmlResponse(w, partials.IndicesList(indices), r)
		return
	}
	h.jsonResponse(w, indices)
}

// HandleGetIndexSeries returns the chart series
func (h *Handler) HandleGetIndexSeries(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, h.dash.IndexSeries())
}

// HandleGetSentiment returns the market mood gauge
func (h *Handler) HandleGetSentiment(w http.ResponseWriter, r *http.Request) {
	sentiment := h.dash.Sentiment()
	if isHTMXRequest(r) {
		h.htmlResponse(w, partials.SentimentGauge(sentiment), r)
		return
	}
	h.jsonResponse(w, sentiment)
}

// HandleGetMarketStatus returns whether the market is open
func (h *Handler) HandleGetMarketStatus(w http.ResponseWriter, r *http.Request) {
	status := h.dash.MarketStatus()
	if isHTMXRequest(r) {
		h.htmlResponse(w, partials.MarketStatusBadge(status), r)
		return
	}
	h.jsonResponse(w, map[string]interface{}{
		"marketState": []models.MarketStatus{status},
	})
}

// HandleGetNotifications returns the notifications still on screen
func (h *Handler) HandleGetNotifications(w http.ResponseWriter, r *http.Request) {
	items := h.dash.Notifications()
	if isHTMXRequest(r) {
		h.htmlResponse(w, partials.Notifications(items, h.dash.Now()), r)
		return
	}
	h.jsonResponse(w, items)
}

// HandleDismissNotification starts a notification's exit transition
func (h *Handler) HandleDismissNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := app.ParseUUID(id); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	err := h.dash.DismissNotification(id)
	if isHTMXRequest(r) {
		h.HandleGetNotifications(w, r)
		return
	}
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	h.jsonResponse(w, StatusResponse{Status: "dismissed"})
}

func (h *Handler) renderStockGrid(w http.ResponseWriter, r *http.Request) {
	snap := h.dash.Snapshot()
	h.htmlResponse(w, partials.StockGrid(snap.Quotes, snap.Capacity, snap.GeneratedAt), r)
}

// statusForError maps dashboard errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, registry.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, registry.ErrAlreadyTracked), errors.Is(err, registry.ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, registry.ErrUnknownSymbol):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusServiceUnavailable
	}
}

// Helper functions

// isHTMXRequest checks if the request is from HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// templComponent matches the templ.Component interface
type templComponent interface {
	Render(ctx context.Context, w io.Writer) error
}

// htmlResponse renders a templ component as HTML
func (h *Handler) htmlResponse(w http.ResponseWriter, component templComponent, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	component.Render(r.Context(), w)
}

// htmlError renders an error state as HTML
func (h *Handler) htmlError(w http.ResponseWriter, message string, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	components.ErrorState(message).Render(r.Context(), w)
}

// ValidateSymbol validates a stock symbol
func (h *Handler) ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}

	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long (max 20 characters)")
	}

	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format (alphanumeric, dots, ampersands and dashes only)")
	}

	return nil
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	h.jsonResponseStatus(w, data, http.StatusOK)
}

func (h *Handler) jsonResponseStatus(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// StatusResponse represents a status response
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// AddStockRequest represents a request to track a symbol
type AddStockRequest struct {
	Symbol string `json:"symbol"`
}

// BatchQuotesRequest represents a batch quote request
type BatchQuotesRequest struct {
	Symbols []string `json:"symbols"`
}
