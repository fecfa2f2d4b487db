// Package server hosts the HTTP and WebSocket API for the settlement engine.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"betpool/internal/server/handler"
	"betpool/internal/server/middleware"
	"betpool/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health  *handler.HealthHandler
	Teams   *handler.TeamHandler
	Markets *handler.MarketHandler
	Bets    *handler.BetHandler
	Fees    *handler.FeesHandler
	Records *handler.RecordsHandler
	Admins  *handler.AdminHandler
	Archive *handler.ArchiveHandler // nil unless the archiver is running
}

// Server is the HTTP + WebSocket API server for the betpool settlement
// engine.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth) and attaches the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Team registry.
	mux.HandleFunc("GET /api/teams", handlers.Teams.ListTeams)
	mux.HandleFunc("POST /api/teams", handlers.Teams.CreateTeam)
	mux.HandleFunc("POST /api/teams/bulk", handlers.Teams.CreateBulkTeams)
	mux.HandleFunc("GET /api/teams/{id}", handlers.Teams.GetTeam)
	mux.HandleFunc("PUT /api/teams/{id}", handlers.Teams.UpdateTeam)

	// Market lifecycle.
	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("POST /api/markets", handlers.Markets.CreateMarket)
	mux.HandleFunc("GET /api/markets/{id}", handlers.Markets.GetMarket)
	mux.HandleFunc("GET /api/markets/{id}/odds", handlers.Markets.GetOdds)
	mux.HandleFunc("GET /api/markets/{id}/snapshot", handlers.Markets.GetSnapshot)
	mux.HandleFunc("POST /api/markets/{id}/resolve", handlers.Markets.ResolveMarket)
	mux.HandleFunc("POST /api/markets/{id}/cancel", handlers.Markets.CancelMarket)

	// Stake ledger.
	mux.HandleFunc("POST /api/markets/{id}/bets", handlers.Bets.PlaceBet)
	mux.HandleFunc("POST /api/markets/{id}/claim", handlers.Bets.ClaimWinnings)
	mux.HandleFunc("GET /api/markets/{id}/bets/{address}", handlers.Bets.GetBet)
	mux.HandleFunc("GET /api/markets/{id}/bets/{address}/potential", handlers.Bets.GetPotentialWinnings)

	// Fee pool.
	mux.HandleFunc("GET /api/fees", handlers.Fees.GetAccumulatedFees)
	mux.HandleFunc("POST /api/fees/withdraw", handlers.Fees.WithdrawFees)

	// Settlement journal.
	if handlers.Records != nil {
		mux.HandleFunc("GET /api/records", handlers.Records.ListRecords)
		mux.HandleFunc("GET /api/records/stream", handlers.Records.StreamRecords)
		mux.HandleFunc("GET /api/markets/{id}/records", handlers.Records.ListMarketRecords)
	}

	// Manual archive trigger.
	if handlers.Archive != nil {
		mux.HandleFunc("POST /api/archive/run", handlers.Archive.TriggerArchive)
	}

	// Operator set.
	mux.HandleFunc("POST /api/admins", handlers.Admins.AddAdmin)
	mux.HandleFunc("DELETE /api/admins/{address}", handlers.Admins.RemoveAdmin)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)
	h = corsMiddleware(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// corsMiddleware returns middleware that sets CORS headers for the allowed
// origins. If no origins are specified, it defaults to allowing all origins.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				allowed := len(allowedOrigins) == 0 // allow all if none specified
				for _, o := range allowedOrigins {
					if strings.EqualFold(o, "*") || strings.EqualFold(o, origin) {
						allowed = true
						break
					}
				}

				if allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Caller-Address")
					w.Header().Set("Access-Control-Max-Age", "86400")
				}
			}

			// Handle preflight requests.
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
