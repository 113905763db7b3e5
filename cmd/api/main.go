package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nvoloshin/trip-planner/internal/airtable"
	"github.com/nvoloshin/trip-planner/internal/api/handlers"
	"github.com/nvoloshin/trip-planner/internal/api/middleware"
	"github.com/nvoloshin/trip-planner/internal/config"
	"github.com/nvoloshin/trip-planner/internal/currency"
	"github.com/nvoloshin/trip-planner/internal/logger"
	"github.com/nvoloshin/trip-planner/internal/prefs"
	"github.com/nvoloshin/trip-planner/internal/schema"
	"github.com/nvoloshin/trip-planner/internal/selection"
	"github.com/nvoloshin/trip-planner/internal/views"
)

func main() {
	var (
		bind = flag.String("bind", "", "HTTP listen address (overrides BIND env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *bind != "" {
		cfg.Bind = *bind
	}

	// Load the field-alias table
	aliasTable, err := loadSchema(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load alias table")
	}

	// Initialize core components
	conv := currency.NewConverter(cfg.USDToEUR)
	projector := views.NewProjector(aliasTable, conv)

	ledger := selection.NewLedger(conv)
	ledger.OnChange(func(t selection.Totals) {
		log.Debug().
			Float64("usd", t.USD).
			Float64("eur", t.EUR).
			Msg("Totals recomputed")
	})

	prefsStore := prefs.NewStore(cfg.PrefsPath, cfg.DefaultCurrency)

	// Initialize the Airtable fetcher
	fetcher := airtable.NewClient(cfg.AirtableAPIKey, cfg.AirtableBaseID, 10*time.Second, log)

	tables := map[views.Kind]string{
		views.KindResort: cfg.TableResorts,
		views.KindFlight: cfg.TableFlights,
		views.KindExtra:  cfg.TableExtras,
		views.KindFamily: cfg.TableFamilies,
	}

	tripHandler := handlers.NewTripHandler(fetcher, projector, ledger, prefsStore, conv, tables, log)

	// Create router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/trip", tripHandler.GetTrip)
	mux.HandleFunc("GET /api/tables/{kind}", tripHandler.GetTable)
	mux.HandleFunc("GET /api/selection", tripHandler.GetSelection)
	mux.HandleFunc("POST /api/selection", tripHandler.ToggleSelection)
	mux.HandleFunc("DELETE /api/selection", tripHandler.ClearSelection)
	mux.HandleFunc("GET /api/currency", tripHandler.GetCurrency)
	mux.HandleFunc("PUT /api/currency", tripHandler.PutCurrency)

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Bind,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Bind).Str("currency", prefsStore.Currency()).Msg("Starting trip planner API")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func loadSchema(cfg *config.Config) (schema.Schema, error) {
	if cfg.AliasFile != "" {
		return schema.LoadFile(cfg.AliasFile)
	}
	return schema.Load()
}
