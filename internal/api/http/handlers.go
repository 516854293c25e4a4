package apihttp

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"energy-compare/internal/audit"
	"energy-compare/internal/auth"
	comparison "energy-compare/internal/comparison/application"
	comparisoninterfaces "energy-compare/internal/comparison/interfaces"
	metering "energy-compare/internal/metering/domain"
	"energy-compare/internal/metering/infrastructure/tabular"
	"energy-compare/internal/observability/metrics"
	priceapp "energy-compare/internal/pricing/application"
	pricing "energy-compare/internal/pricing/domain"
	tariff "energy-compare/internal/tariff/domain"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}
	if series, err := s.prices.Snapshot(); err == nil {
		status["priceVersion"] = series.Version()
	} else {
		status["priceVersion"] = nil
	}
	writeJSON(w, http.StatusOK, status)
}

// handleUpload handles POST /api/v1/meter/upload.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	series, _, err := s.readSeries(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	summary, err := metering.Summarize(series)
	if err != nil {
		writeError(w, err)
		return
	}
	profile, err := metering.HourOfDayProfile(series)
	if err != nil {
		writeError(w, err)
		return
	}
	daily, err := metering.Resample(series, metering.GranularityDay)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Summary:       newSummaryDTO(summary),
		HourlyProfile: newProfileDTO(profile),
		Daily:         newBucketDTOs(daily),
		Diagnostics:   newDiagnosticsDTO(series.Diagnostics()),
	})
}

// handleCompare handles POST /api/v1/compare.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	series, digest, err := s.readSeries(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	prices, _ := s.prices.Snapshot()
	result, err := s.comparer.Compare(r.Context(), series, prices, s.contracts.Contracts())
	if err != nil {
		writeError(w, err)
		return
	}
	s.recordCompare(r, audit.ActionCompare, digest, result, nil)
	writeJSON(w, http.StatusOK, newCompareResponse(result))
}

// handleReport handles POST /api/v1/compare/report.{pdf,xlsx}.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	format := mux.Vars(r)["format"]
	start := time.Now()

	series, digest, err := s.readSeries(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	prices, _ := s.prices.Snapshot()
	result, err := s.comparer.Compare(r.Context(), series, prices, s.contracts.Contracts())
	if err != nil {
		writeError(w, err)
		return
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case "pdf":
		data, err = comparisoninterfaces.BuildComparisonPDF(result)
		contentType = "application/pdf"
	default:
		data, err = comparisoninterfaces.BuildComparisonXLSX(result)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		metrics.ObserveReportExport(format, metrics.ResultError, time.Since(start))
		s.logger.Printf("report export: run=%s format=%s: %v", result.RunID, format, err)
		http.Error(w, "report export error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveReportExport(format, metrics.ResultSuccess, time.Since(start))
	s.recordCompare(r, audit.ActionReport, digest, result, map[string]any{"format": format})

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=comparison-%s.%s", result.RunID, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleResample handles POST /api/v1/resample?granularity=.
func (s *Server) handleResample(w http.ResponseWriter, r *http.Request) {
	granularity, err := metering.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		writeError(w, err)
		return
	}
	series, _, err := s.readSeries(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	aggregated, err := metering.Resample(series, granularity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resampleResponse{
		Granularity: string(aggregated.Granularity),
		TotalKWh:    aggregated.TotalUsedKWh(),
		Buckets:     newBucketDTOs(aggregated),
	})
}

// handleEstimate handles POST /api/v1/estimate.
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	var req estimateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	usage := tariff.ManualUsage{MonthlyNormalKWh: req.MonthlyNormalUsed, MonthlyLowKWh: req.MonthlyLowUsed}
	if prices, err := s.prices.Snapshot(); err == nil && prices.Len() > 0 {
		usage.AverageEURPerKWh = prices.AverageEURPerKWh()
		usage.AveragePriceKnown = true
	}
	result, err := s.comparer.Estimate(r.Context(), usage, s.contracts.Contracts())
	if err != nil {
		writeError(w, err)
		return
	}
	meta := map[string]any{"contracts": len(result.Ranked)}
	if result.Cheapest != nil {
		meta["cheapest"] = result.Cheapest.Provider + "/" + result.Cheapest.ContractLabel
		meta["yearlyCost"] = tariff.RoundMoney(result.Cheapest.YearlyCost)
	}
	s.record(r, audit.Entry{Action: audit.ActionEstimate, RunID: result.RunID, PayloadDigest: audit.Digest(body)}, meta)
	writeJSON(w, http.StatusOK, newEstimateResponse(result))
}

// handlePrices handles GET /api/v1/prices.
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	prices, err := s.prices.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, priceSnapshotDTO{
		Version:          prices.Version(),
		Hours:            prices.Len(),
		Start:            prices.Start().Format(time.RFC3339),
		End:              prices.End().Format(time.RFC3339),
		AverageEURPerKWh: prices.AverageEURPerKWh(),
	})
}

// handlePriceRefresh handles POST /api/v1/prices/refresh.
func (s *Server) handlePriceRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		http.Error(w, "price refresh not configured", http.StatusNotImplemented)
		return
	}
	changed, err := s.refresher.Refresh(r.Context())
	if err != nil {
		s.logger.Printf("price refresh: %v", err)
		http.Error(w, "price refresh failed", http.StatusBadGateway)
		return
	}
	entry := audit.Entry{Action: audit.ActionPriceRefresh}
	if prices, err := s.prices.Snapshot(); err == nil {
		entry.PriceVersion = prices.Version()
	}
	s.record(r, entry, map[string]any{"changed": changed})
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

// readSeries parses the multipart "file" upload and normalizes it. It also
// returns the sha256 digest of the uploaded file.
func (s *Server) readSeries(w http.ResponseWriter, r *http.Request) (*metering.ConsumptionSeries, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return nil, "", &requestError{msg: "invalid multipart form: " + err.Error()}
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", &requestError{msg: "file is required"}
	}
	defer file.Close()

	unit, err := metering.ParseUnit(r.FormValue("unit"))
	if err != nil {
		return nil, "", err
	}
	hasher := sha256.New()
	table, err := tabular.Read(header.Filename, io.TeeReader(file, hasher))
	if err != nil {
		return nil, "", err
	}
	records, err := tabular.Records(table, s.location)
	if err != nil {
		return nil, "", err
	}

	start := time.Now()
	series, err := metering.Normalize(records, unit)
	if err != nil {
		metrics.ObserveNormalize("", metrics.ResultError, time.Since(start), 0, 0)
		return nil, "", err
	}
	diag := series.Diagnostics()
	metrics.ObserveNormalize(string(diag.Format), metrics.ResultSuccess, time.Since(start), diag.ClampedValues, diag.DefaultedBands)
	return series, hex.EncodeToString(hasher.Sum(nil)), nil
}

func (s *Server) recordCompare(r *http.Request, action, digest string, result *comparison.Result, extra map[string]any) {
	meta := map[string]any{"contracts": len(result.Ranked), "coverage": result.Coverage}
	if result.Cheapest != nil {
		meta["cheapest"] = result.Cheapest.Provider + "/" + result.Cheapest.ContractLabel
		meta["totalYear"] = tariff.RoundMoney(result.Cheapest.TotalYear)
	}
	for key, value := range extra {
		meta[key] = value
	}
	s.record(r, audit.Entry{
		Action:        action,
		RunID:         result.RunID,
		PriceVersion:  result.PriceVersion,
		PayloadDigest: digest,
	}, meta)
}

// record fills the caller identity and writes entry. Audit failures are
// logged and never fail the request.
func (s *Server) record(r *http.Request, entry audit.Entry, meta map[string]any) {
	if s.auditor == nil {
		return
	}
	entry.Actor = auth.SubjectFromContext(r.Context())
	entry.Role = string(auth.RoleFromContext(r.Context()))
	entry.IP = r.RemoteAddr
	entry.UserAgent = r.UserAgent()
	if versioned, ok := s.contracts.(interface{ Version() string }); ok {
		entry.ContractsVersion = versioned.Version()
	}
	if meta != nil {
		if data, err := json.Marshal(meta); err == nil {
			entry.Metadata = data
		}
	}
	if err := s.auditor.Log(r.Context(), entry); err != nil {
		s.logger.Printf("audit: action=%s run=%s: %v", entry.Action, entry.RunID, err)
	}
}

type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr),
		errors.Is(err, metering.ErrSchema),
		errors.Is(err, metering.ErrDuplicateTimestamp),
		errors.Is(err, metering.ErrUnitMismatch),
		errors.Is(err, metering.ErrInvalidGranularity),
		errors.Is(err, metering.ErrEmptySeries),
		errors.Is(err, tabular.ErrUnsupportedFormat),
		errors.Is(err, tabular.ErrEmptyTable),
		errors.Is(err, tariff.ErrNegativeUsage):
		return http.StatusBadRequest
	case errors.Is(err, pricing.ErrNoOverlap),
		errors.Is(err, tariff.ErrMonthlyRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pricing.ErrNilPrices),
		errors.Is(err, priceapp.ErrNoSnapshot):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	if errors.Is(err, pricing.ErrNilPrices) {
		message = "price catalog not loaded"
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
