package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/trogers1052/nof0-api/internal/models"
	"github.com/trogers1052/nof0-api/internal/snapshot"
)

// Snapshots is the read side the handlers project into responses
type Snapshots interface {
	AccountTotals(ctx context.Context) (snapshot.Document, error)
	Analytics(ctx context.Context) (snapshot.Document, error)
	ModelAnalytics(ctx context.Context, modelID string) (snapshot.Document, error)
	CryptoPrices(ctx context.Context) (snapshot.Document, error)
	Leaderboard(ctx context.Context) (snapshot.Document, error)
	SinceInception(ctx context.Context) (snapshot.Document, error)
	Trades(ctx context.Context) (snapshot.Document, error)
	Positions(ctx context.Context) (snapshot.Document, error)
	Conversations(ctx context.Context) (snapshot.Document, error)
}

// ModelLister lists the models registered by the importer
type ModelLister interface {
	ListModels() ([]*models.Model, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	snapshots Snapshots
	models    ModelLister
	logger    *logrus.Logger
}

// NewHandler creates a new Handler. lister may be nil when no database is
// configured.
func NewHandler(snapshots Snapshots, lister ModelLister, logger *logrus.Logger) *Handler {
	return &Handler{
		snapshots: snapshots,
		models:    lister,
		logger:    logger,
	}
}

// serveSnapshot writes the view or a 500 naming what failed to load
func (h *Handler) serveSnapshot(w http.ResponseWriter, r *http.Request, what string, load func(context.Context) (snapshot.Document, error)) {
	doc, err := load(r.Context())
	if err != nil {
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("failed to load " + what)
		http.Error(w, "failed to load "+what, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// GetAccountTotals handles GET /api/account-totals. lastHourlyMarker is
// accepted and ignored.
func (h *Handler) GetAccountTotals(w http.ResponseWriter, r *http.Request) {
	h.serveSnapshot(w, r, "account totals", h.snapshots.AccountTotals)
}

// GetAnalytics handles GET /api/analytics
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	h.serveSnapshot(w, r, "analytics", h.snapshots.Analytics)
}

// GetModelAnalytics handles GET /api/analytics/{model_id}
func (h *Handler) GetModelAnalytics(w http.ResponseWriter, r *http.Request) {
	modelID := mux.Vars(r)["model_id"]
	h.serveSnapshot(w, r, "model analytics", func(ctx context.Context) (snapshot.Document, error) {
		return h.snapshots.ModelAnalytics(ctx, modelID)
	})
}

// GetCryptoPrices handles GET /api/crypto-prices
func (h *Handler) GetCryptoPrices(w http.ResponseWriter, r *http.Request) {
	h.serveSnapshot(w, r, "crypto prices", h.snapshots.CryptoPrices)
}

// GetLeaderboard handles GET /api/leaderboard
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	h.serveSnapshot(w, r, "leaderboard", h.snapshots.Leaderboard)
}

// GetSinceInception handles GET /api/since-inception-values
func (h *Handler) GetSinceInception(w http.ResponseWriter, r *http.Request) {
	h.serveSnapshot(w, r, "since inception values", h.snapshots.SinceInception)
}

// GetTrades handles GET /api/trades
func (h *Handler) GetTrades(w http.ResponseWriter, r *http.Request) {
	h.serveSnapshot(w, r, "trades", h.snapshots.Trades)
}

// GetPositions handles GET /api/positions
func (h *Handler) GetPositions(w http.ResponseWriter, r *http.Request) {
	h.serveSnapshot(w, r, "positions", h.snapshots.Positions)
}

// GetConversations handles GET /api/conversations
func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	h.serveSnapshot(w, r, "conversations", h.snapshots.Conversations)
}

// ListModels handles GET /api/models
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	if h.models == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}

	list, err := h.models.ListModels()
	if err != nil {
		h.logger.WithError(err).Error("failed to load models")
		http.Error(w, "failed to load models", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"models": list})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
