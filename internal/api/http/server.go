package apihttp

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"energy-compare/internal/audit"
	comparison "energy-compare/internal/comparison/application"
	pricing "energy-compare/internal/pricing/domain"
	tariff "energy-compare/internal/tariff/domain"
)

const defaultMaxUploadBytes = 32 << 20

// PriceSnapshots returns the active price snapshot.
type PriceSnapshots interface {
	Snapshot() (*pricing.PriceSeries, error)
}

// PriceRefresher reloads the price snapshot on demand.
type PriceRefresher interface {
	Refresh(ctx context.Context) (bool, error)
}

// ContractSource returns the contracts to compare.
type ContractSource interface {
	Contracts() []tariff.Contract
}

// Server serves the comparison API.
type Server struct {
	comparer  *comparison.Service
	prices    PriceSnapshots
	refresher PriceRefresher
	contracts ContractSource
	auditor   audit.Logger
	location  *time.Location
	maxUpload int64
	logger    *log.Logger
}

// Option configures the server.
type Option func(*Server)

// WithLocation sets the zone naive meter timestamps are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithMaxUploadBytes limits request bodies.
func WithMaxUploadBytes(limit int64) Option {
	return func(s *Server) {
		if limit > 0 {
			s.maxUpload = limit
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPriceRefresher enables POST /api/v1/prices/refresh.
func WithPriceRefresher(refresher PriceRefresher) Option {
	return func(s *Server) {
		s.refresher = refresher
	}
}

// WithAuditLogger records compare, report, estimate and refresh calls.
func WithAuditLogger(auditor audit.Logger) Option {
	return func(s *Server) {
		s.auditor = auditor
	}
}

// NewServer constructs the API server.
func NewServer(comparer *comparison.Service, prices PriceSnapshots, contracts ContractSource, opts ...Option) (*Server, error) {
	if comparer == nil {
		return nil, errors.New("api server: nil comparison service")
	}
	if prices == nil {
		return nil, errors.New("api server: nil price snapshots")
	}
	if contracts == nil {
		return nil, errors.New("api server: nil contract source")
	}
	s := &Server{
		comparer:  comparer,
		prices:    prices,
		contracts: contracts,
		location:  time.UTC,
		maxUpload: defaultMaxUploadBytes,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Routes builds the router.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/meter/upload", s.handleUpload).Methods(http.MethodPost)
	api.HandleFunc("/compare", s.handleCompare).Methods(http.MethodPost)
	api.HandleFunc("/compare/report.{format:pdf|xlsx}", s.handleReport).Methods(http.MethodPost)
	api.HandleFunc("/resample", s.handleResample).Methods(http.MethodPost)
	api.HandleFunc("/estimate", s.handleEstimate).Methods(http.MethodPost)
	api.HandleFunc("/prices", s.handlePrices).Methods(http.MethodGet)
	api.HandleFunc("/prices/refresh", s.handlePriceRefresh).Methods(http.MethodPost)
	return r
}
