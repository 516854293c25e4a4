package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	apihttp "energy-compare/internal/api/http"
	"energy-compare/internal/audit"
	"energy-compare/internal/auth"
	comparison "energy-compare/internal/comparison/application"
	"energy-compare/internal/config"
	"energy-compare/internal/observability/metrics"
	priceapp "energy-compare/internal/pricing/application"
	pricefile "energy-compare/internal/pricing/infrastructure/file"
	pricerepo "energy-compare/internal/pricing/infrastructure/postgres"
	tariffcatalog "energy-compare/internal/tariff/infrastructure/catalog"

	"github.com/gorilla/handlers"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, source, err := openPriceSource(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("price source error: %v", err)
	}
	if db != nil {
		defer db.Close()
	}
	metrics.Init(db, logger)

	priceCatalog, err := priceapp.NewCatalog(source, priceapp.WithLogger(logger))
	if err != nil {
		logger.Fatalf("price catalog error: %v", err)
	}
	if _, err := priceCatalog.Refresh(ctx); err != nil {
		// Dynamic contracts answer 503 until a later refresh succeeds.
		logger.Printf("price catalog: initial load failed: %v", err)
	}
	if cfg.PriceRefreshInterval > 0 {
		go priceCatalog.Run(ctx, cfg.PriceRefreshInterval)
	}

	contracts, err := tariffcatalog.LoadFiles(cfg.DefaultMonthlyFee, cfg.ContractFiles...)
	if err != nil {
		logger.Fatalf("contract catalog error: %v", err)
	}
	logger.Printf("contract catalog: version=%s contracts=%d", contracts.Version(), contracts.Len())

	service := comparison.NewService(
		comparison.WithWorkers(cfg.CompareWorkers),
		comparison.WithLogger(logger),
	)
	var auditor audit.Logger = audit.NewLogWriter(logger)
	if db != nil {
		auditor = audit.NewRepository(db)
	}
	api, err := apihttp.NewServer(service, priceCatalog, contracts,
		apihttp.WithLocation(cfg.Location()),
		apihttp.WithMaxUploadBytes(cfg.MaxUploadBytes),
		apihttp.WithLogger(logger),
		apihttp.WithPriceRefresher(priceCatalog),
		apihttp.WithAuditLogger(auditor),
	)
	if err != nil {
		logger.Fatalf("api server error: %v", err)
	}

	var handler http.Handler = api.Routes()
	if cfg.AuthEnabled() {
		policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
		handler = auth.NewMiddleware([]byte(cfg.JWTSecret), policy, auth.WithDenyLogger(logger)).Wrap(handler)
	} else {
		logger.Printf("auth: AUTH_JWT_SECRET not set, API is unauthenticated")
	}
	handler = handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(handler)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("http shutdown error: %v", err)
		}
	}()

	logger.Printf("listening on %s", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(err)
	}
}

// openPriceSource prefers Postgres when DATABASE_URL is set. A configured
// PRICE_FILE is then imported into the table once at startup.
func openPriceSource(ctx context.Context, cfg config.Config, logger *log.Logger) (*sql.DB, priceapp.PriceSource, error) {
	var fileLoader *pricefile.Loader
	if cfg.PriceFile != "" {
		loader, err := pricefile.NewLoader(cfg.PriceFile, cfg.Location())
		if err != nil {
			return nil, nil, err
		}
		fileLoader = loader
	}
	if cfg.DatabaseURL == "" {
		if fileLoader == nil {
			return nil, nil, errors.New("no price source configured")
		}
		return nil, fileLoader, nil
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	if cfg.MigrateOnStart {
		if err := pricerepo.RunMigrations(db); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	repo := pricerepo.NewPriceRepository(db, pricerepo.WithBiddingZone(cfg.BiddingZone))
	if fileLoader != nil {
		quotes, version, err := fileLoader.LoadPrices(ctx)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		saved, err := repo.SaveQuotes(ctx, quotes)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Printf("prices: imported %d hours from %s (version %s)", saved, cfg.PriceFile, version)
	}
	return db, repo, nil
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
