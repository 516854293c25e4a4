package apihttp

import (
	"time"

	comparison "energy-compare/internal/comparison/application"
	metering "energy-compare/internal/metering/domain"
	pricing "energy-compare/internal/pricing/domain"
	tariff "energy-compare/internal/tariff/domain"
)

// Money is rounded here and only here; the engine keeps full precision.

type summaryDTO struct {
	Records          int     `json:"records"`
	Intervals        int     `json:"intervals"`
	Start            string  `json:"start"`
	End              string  `json:"end"`
	Days             int     `json:"days"`
	TotalKWh         float64 `json:"totalKwh"`
	TotalReturnedKWh float64 `json:"totalReturnedKwh"`
	AverageDailyKWh  float64 `json:"averageDailyKwh"`
	MaxDailyKWh      float64 `json:"maxDailyKwh"`
	MinDailyKWh      float64 `json:"minDailyKwh"`
}

type hourDTO struct {
	Hour    int     `json:"hour"`
	MeanKWh float64 `json:"meanKwh"`
	Samples int     `json:"samples"`
}

type profileDTO struct {
	PeakHour int       `json:"peakHour"`
	LowHour  int       `json:"lowHour"`
	Hours    []hourDTO `json:"hours"`
}

type bucketDTO struct {
	Key         string  `json:"key"`
	Start       string  `json:"start"`
	LowKWh      float64 `json:"lowKwh"`
	NormalKWh   float64 `json:"normalKwh"`
	UsedKWh     float64 `json:"usedKwh"`
	ReturnedKWh float64 `json:"returnedKwh"`
	Samples     int     `json:"samples"`
}

type diagnosticsDTO struct {
	Format         string `json:"format"`
	Records        int    `json:"records"`
	ClampedValues  int    `json:"clampedValues"`
	DefaultedBands int    `json:"defaultedBands"`
}

type warningDTO struct {
	MissingHours int     `json:"missingHours"`
	FirstMissing string  `json:"firstMissing"`
	LastMissing  string  `json:"lastMissing"`
	Coverage     float64 `json:"coverage"`
	Message      string  `json:"message"`
}

type uploadResponse struct {
	Summary       summaryDTO     `json:"summary"`
	HourlyProfile profileDTO     `json:"hourlyProfile"`
	Daily         []bucketDTO    `json:"daily"`
	Diagnostics   diagnosticsDTO `json:"diagnostics"`
}

type resampleResponse struct {
	Granularity string      `json:"granularity"`
	TotalKWh    float64     `json:"totalKwh"`
	Buckets     []bucketDTO `json:"buckets"`
}

type monthCostDTO struct {
	Month      string  `json:"month"`
	EnergyCost float64 `json:"energyCost"`
	MonthlyFee float64 `json:"monthlyFee"`
	Total      float64 `json:"total"`
	NormalKWh  float64 `json:"normalKwh"`
	LowKWh     float64 `json:"lowKwh"`
}

type costResultDTO struct {
	Rank              int            `json:"rank"`
	Provider          string         `json:"provider"`
	Contract          string         `json:"contract"`
	Kind              string         `json:"kind"`
	MonthlyFee        float64        `json:"monthlyFee"`
	TotalYear         float64        `json:"totalYear"`
	TotalKWh          float64        `json:"totalKwh"`
	EnergyCostExclFee float64        `json:"energyCostExclFee"`
	AvgRate           float64        `json:"avgRate"`
	AvgRateUndefined  bool           `json:"avgRateUndefined"`
	Coverage          float64        `json:"coverage"`
	Warning           *warningDTO    `json:"warning,omitempty"`
	Months            []monthCostDTO `json:"months"`
}

type compareResponse struct {
	RunID        string          `json:"runId"`
	EvaluatedAt  string          `json:"evaluatedAt"`
	PriceVersion string          `json:"priceVersion,omitempty"`
	Coverage     float64         `json:"coverage"`
	Warning      *warningDTO     `json:"warning,omitempty"`
	Cheapest     *costResultDTO  `json:"cheapest"`
	Ranked       []costResultDTO `json:"ranked"`
	Diagnostics  diagnosticsDTO  `json:"diagnostics"`
}

type estimateRequest struct {
	MonthlyNormalUsed float64 `json:"monthlyNormalUsed"`
	MonthlyLowUsed    float64 `json:"monthlyLowUsed"`
}

type estimateDTO struct {
	Rank        int     `json:"rank"`
	Provider    string  `json:"provider"`
	Contract    string  `json:"contract"`
	Kind        string  `json:"kind"`
	MonthlyCost float64 `json:"monthlyCost"`
	YearlyCost  float64 `json:"yearlyCost"`
}

type estimateResponse struct {
	RunID    string        `json:"runId"`
	Cheapest *estimateDTO  `json:"cheapest"`
	Ranked   []estimateDTO `json:"ranked"`
}

type priceSnapshotDTO struct {
	Version          string  `json:"version"`
	Hours            int     `json:"hours"`
	Start            string  `json:"start"`
	End              string  `json:"end"`
	AverageEURPerKWh float64 `json:"averageEurPerKwh"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func newSummaryDTO(s metering.Summary) summaryDTO {
	return summaryDTO{
		Records:          s.Records,
		Intervals:        s.Intervals,
		Start:            formatTime(s.Start),
		End:              formatTime(s.End),
		Days:             s.Days,
		TotalKWh:         s.TotalKWh,
		TotalReturnedKWh: s.TotalReturnedKWh,
		AverageDailyKWh:  s.AverageDailyKWh,
		MaxDailyKWh:      s.MaxDailyKWh,
		MinDailyKWh:      s.MinDailyKWh,
	}
}

func newProfileDTO(p metering.HourProfile) profileDTO {
	hours := make([]hourDTO, 0, len(p.Hours))
	for _, h := range p.Hours {
		hours = append(hours, hourDTO{Hour: h.Hour, MeanKWh: h.MeanKWh, Samples: h.Samples})
	}
	return profileDTO{PeakHour: p.PeakHour, LowHour: p.LowHour, Hours: hours}
}

func newBucketDTOs(a metering.AggregatedSeries) []bucketDTO {
	out := make([]bucketDTO, 0, len(a.Buckets))
	for _, b := range a.Buckets {
		out = append(out, bucketDTO{
			Key:         b.TimeKey.String(),
			Start:       formatTime(b.Start),
			LowKWh:      b.LowKWh,
			NormalKWh:   b.NormalKWh,
			UsedKWh:     b.UsedKWh(),
			ReturnedKWh: b.ReturnedKWh(),
			Samples:     b.Samples,
		})
	}
	return out
}

func newDiagnosticsDTO(d metering.Diagnostics) diagnosticsDTO {
	return diagnosticsDTO{
		Format:         string(d.Format),
		Records:        d.Records,
		ClampedValues:  d.ClampedValues,
		DefaultedBands: d.DefaultedBands,
	}
}

func newWarningDTO(w *pricing.PriceCoverageWarning) *warningDTO {
	if w == nil {
		return nil
	}
	return &warningDTO{
		MissingHours: w.MissingHours,
		FirstMissing: formatTime(w.FirstMissing),
		LastMissing:  formatTime(w.LastMissing),
		Coverage:     w.Coverage,
		Message:      w.String(),
	}
}

func newCostResultDTO(rank int, r tariff.CostResult) costResultDTO {
	dto := costResultDTO{
		Rank:              rank,
		Provider:          r.Provider,
		Contract:          r.ContractLabel,
		Kind:              string(r.Kind),
		MonthlyFee:        tariff.RoundMoney(r.MonthlyFee),
		TotalYear:         tariff.RoundMoney(r.TotalYear),
		TotalKWh:          r.TotalKWh,
		EnergyCostExclFee: tariff.RoundMoney(r.EnergyCostExclFee),
		AvgRate:           r.AvgRate,
		AvgRateUndefined:  r.AvgRateUndefined,
		Coverage:          r.Coverage,
		Warning:           newWarningDTO(r.Warning),
		Months:            make([]monthCostDTO, 0, len(r.Months)),
	}
	for _, m := range r.Months {
		dto.Months = append(dto.Months, monthCostDTO{
			Month:      m.TimeKey.String(),
			EnergyCost: tariff.RoundMoney(m.EnergyCost),
			MonthlyFee: tariff.RoundMoney(m.MonthlyFee),
			Total:      tariff.RoundMoney(m.Total),
			NormalKWh:  m.NormalKWh,
			LowKWh:     m.LowKWh,
		})
	}
	return dto
}

func newCompareResponse(r *comparison.Result) compareResponse {
	resp := compareResponse{
		RunID:        r.RunID,
		EvaluatedAt:  formatTime(r.EvaluatedAt),
		PriceVersion: r.PriceVersion,
		Coverage:     r.Coverage,
		Warning:      newWarningDTO(r.Warning),
		Ranked:       make([]costResultDTO, 0, len(r.Ranked)),
		Diagnostics:  newDiagnosticsDTO(r.Diagnostics),
	}
	for i, cost := range r.Ranked {
		resp.Ranked = append(resp.Ranked, newCostResultDTO(i+1, cost))
	}
	if len(resp.Ranked) > 0 {
		cheapest := resp.Ranked[0]
		resp.Cheapest = &cheapest
	}
	return resp
}

func newEstimateResponse(r *comparison.EstimateResult) estimateResponse {
	resp := estimateResponse{RunID: r.RunID, Ranked: make([]estimateDTO, 0, len(r.Ranked))}
	for i, e := range r.Ranked {
		resp.Ranked = append(resp.Ranked, estimateDTO{
			Rank:        i + 1,
			Provider:    e.Provider,
			Contract:    e.ContractLabel,
			Kind:        string(e.Kind),
			MonthlyCost: tariff.RoundMoney(e.MonthlyCost),
			YearlyCost:  tariff.RoundMoney(e.YearlyCost),
		})
	}
	if len(resp.Ranked) > 0 {
		cheapest := resp.Ranked[0]
		resp.Cheapest = &cheapest
	}
	return resp
}
