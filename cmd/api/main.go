// cmd/api/main.go
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"biblioteca/internal/api"
	"biblioteca/internal/auth"
	"biblioteca/internal/catalog"
	"biblioteca/internal/circulation"
	"biblioteca/internal/config"
	"biblioteca/internal/membership"
	"biblioteca/internal/storage"
	"biblioteca/internal/storage/postgres"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := setupTracing(ctx, cfg.OTLPEndpoint)
		if err != nil {
			logger.Error("failed to set up tracing", "error", err)
			os.Exit(1)
		}
		defer shutdown()
	}

	pool, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	db := storage.NewDB(pool)
	userStore := postgres.NewUserStore()
	bookStore := postgres.NewBookStore()
	loanStore := postgres.NewLoanStore()
	fineStore := postgres.NewFineStore()

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	membershipSvc := membership.NewService(db, userStore, logger, cfg.AuthBurst)
	catalogSvc := catalog.NewService(db, bookStore, logger)
	loanSvc := circulation.NewService(db, userStore, bookStore, loanStore, fineStore, logger)
	fineSvc := circulation.NewFineService(db, loanStore, fineStore, logger)

	membershipHandler := membership.NewHandler(membershipSvc, tokens)
	catalogHandler := catalog.NewHandler(catalogSvc)
	circulationHandler := circulation.NewHandler(loanSvc, fineSvc)

	router := newRouter(logger, tokens, membershipHandler, catalogHandler, circulationHandler)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func newRouter(
	logger *slog.Logger,
	tokens *auth.TokenIssuer,
	membershipHandler *membership.Handler,
	catalogHandler *catalog.Handler,
	circulationHandler *circulation.Handler,
) chi.Router {
	staffOnly := api.RequireRole(string(membership.RoleStaff))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(api.RequestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", membershipHandler.HandleRegister)
		r.Post("/login", membershipHandler.HandleLogin)
	})

	r.Route("/books", func(r chi.Router) {
		r.Get("/", catalogHandler.HandleList)
		r.Get("/{id}", catalogHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(api.Authenticate(tokens), staffOnly)
			r.Post("/", catalogHandler.HandleCreate)
			r.Put("/{id}", catalogHandler.HandleUpdate)
			r.Delete("/{id}", catalogHandler.HandleDelete)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(api.Authenticate(tokens), staffOnly)
		r.Get("/", membershipHandler.HandleList)
		r.Get("/{id}", membershipHandler.HandleGet)
		r.Put("/{id}", membershipHandler.HandleUpdate)
		r.Delete("/{id}", membershipHandler.HandleDelete)
	})

	r.Route("/loans", func(r chi.Router) {
		r.Use(api.Authenticate(tokens))
		r.Post("/", circulationHandler.HandleCreateLoan)
		r.Get("/", circulationHandler.HandleListLoans)
		r.Get("/{id}", circulationHandler.HandleGetLoan)

		r.Group(func(r chi.Router) {
			r.Use(staffOnly)
			r.Post("/{id}/return", circulationHandler.HandleReturnLoan)
			r.Delete("/{id}", circulationHandler.HandleDeleteLoan)
		})
	})

	r.Route("/fines", func(r chi.Router) {
		r.Use(api.Authenticate(tokens))
		r.Get("/", circulationHandler.HandleListFines)
		r.Get("/{id}", circulationHandler.HandleGetFine)

		r.Group(func(r chi.Router) {
			r.Use(staffOnly)
			r.Post("/", circulationHandler.HandleCreateFine)
			r.Post("/{id}/pay", circulationHandler.HandlePayFine)
			r.Post("/{id}/cancel", circulationHandler.HandleCancelFine)
			r.Put("/{id}", circulationHandler.HandleUpdateFine)
			r.Delete("/{id}", circulationHandler.HandleDeleteFine)
		})
	})

	return r
}

// setupTracing wires the OTLP HTTP exporter and installs the tracer provider.
func setupTracing(ctx context.Context, endpoint string) (func(), error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down tracer provider", "error", err)
		}
	}, nil
}
