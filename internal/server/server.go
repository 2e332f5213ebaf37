package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	calendarhandlers "github.com/aristath/daybook/internal/modules/calendar/handlers"
	consistencyhandlers "github.com/aristath/daybook/internal/modules/consistency/handlers"
	equityhandlers "github.com/aristath/daybook/internal/modules/equity/handlers"
	sharehandlers "github.com/aristath/daybook/internal/modules/share/handlers"
	statisticshandlers "github.com/aristath/daybook/internal/modules/statistics/handlers"
	tradeshandlers "github.com/aristath/daybook/internal/modules/trades/handlers"
)

// Config holds everything the HTTP server needs
type Config struct {
	Port    int
	DevMode bool

	Trades      *tradeshandlers.Handler
	Calendar    *calendarhandlers.Handler
	Equity      *equityhandlers.Handler
	Consistency *consistencyhandlers.Handler
	Statistics  *statisticshandlers.Handler
	Share       *sharehandlers.Handler
	System      *SystemHandlers
	Hub         *LiveHub
}

// Server is the HTTP server for the journal API
type Server struct {
	httpServer *http.Server
	log        zerolog.Logger
}

// New creates a new server with all routes registered
func New(cfg Config, log zerolog.Logger) *Server {
	s := &Server{
		log: log.With().Str("component", "server").Logger(),
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Timeout(60 * time.Second))

	if !cfg.DevMode {
		r.Use(middleware.Compress(5))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", cfg.System.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/trades", func(r chi.Router) {
			r.Post("/import", cfg.Trades.HandleImport)
			r.Get("/", cfg.Trades.HandleList)
			r.Put("/{id}/tags", cfg.Trades.HandleUpdateTags)
			r.Put("/{id}/comment", cfg.Trades.HandleUpdateComment)
			r.Delete("/{id}", cfg.Trades.HandleDelete)
		})
		r.Get("/accounts", cfg.Trades.HandleAccounts)

		r.Route("/calendar", func(r chi.Router) {
			r.Get("/", cfg.Calendar.HandleMonth)
			r.Get("/weekly", cfg.Calendar.HandleWeekly)
			r.Get("/extremes", cfg.Calendar.HandleDayExtremes)
		})

		r.Get("/equity", cfg.Equity.HandleCurve)
		r.Get("/consistency", cfg.Consistency.HandleEvaluate)
		r.Get("/statistics", cfg.Statistics.HandleSummary)

		r.Route("/share", func(r chi.Router) {
			r.Post("/", cfg.Share.HandleCreate)
			r.Get("/{slug}", cfg.Share.HandleGet)
		})

		r.Get("/system/status", cfg.System.HandleStatus)
		r.Get("/live", cfg.Hub.HandleWS)
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Start begins listening for HTTP requests. Blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("Starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
