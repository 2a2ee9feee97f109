package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/trogers1052/nof0-api/internal/config"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Snapshot routes. Registered on the root router so a wrong method
	// yields 405; a PathPrefix subrouter reports 404 instead.
	r.HandleFunc("/api/account-totals", handler.GetAccountTotals).Methods("GET")
	r.HandleFunc("/api/analytics", handler.GetAnalytics).Methods("GET")
	r.HandleFunc("/api/analytics/{model_id}", handler.GetModelAnalytics).Methods("GET")
	r.HandleFunc("/api/crypto-prices", handler.GetCryptoPrices).Methods("GET")
	r.HandleFunc("/api/leaderboard", handler.GetLeaderboard).Methods("GET")
	r.HandleFunc("/api/since-inception-values", handler.GetSinceInception).Methods("GET")
	r.HandleFunc("/api/trades", handler.GetTrades).Methods("GET")
	r.HandleFunc("/api/positions", handler.GetPositions).Methods("GET")
	r.HandleFunc("/api/conversations", handler.GetConversations).Methods("GET")

	// Database routes
	r.HandleFunc("/api/models", handler.ListModels).Methods("GET")

	return r
}

// WithCORS wraps the router in the configured CORS policy
func WithCORS(next http.Handler, cfg config.CorsConfig) http.Handler {
	opts := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.AllowOrigins),
		handlers.AllowedMethods(cfg.AllowMethods),
		handlers.AllowedHeaders(cfg.AllowHeaders),
		handlers.ExposedHeaders(cfg.ExposeHeaders),
	}
	if cfg.AllowCredentials {
		opts = append(opts, handlers.AllowCredentials())
	}
	if cfg.MaxAge > 0 {
		opts = append(opts, handlers.MaxAge(cfg.MaxAge))
	}
	return handlers.CORS(opts...)(next)
}

// NewServer builds the HTTP handler for the API: routes, CORS and request
// logging.
func NewServer(handler *Handler, cfg config.CorsConfig) http.Handler {
	router := SetupRoutes(handler)
	return handlers.CombinedLoggingHandler(handler.logger.Writer(), WithCORS(router, cfg))
}
