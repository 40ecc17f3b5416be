// Package forecast projects month-end revenue against a configurable goal.
// The time base is days with at least one sale, not elapsed calendar days,
// and the forecast month is always the month of the ledger's latest
// competence date — never wall-clock "now".
package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/graos-sa/salescore/internal/ledger"
)

// Config is supplied by the caller per request; the engine reads it from no
// other source. Goal must be positive and WorkingDays at least 1 — callers
// reject anything else before invoking, the engine merely guards divisions.
type Config struct {
	GoalCents   int64
	WorkingDays int
}

// Engine holds the projection and anomaly constants. Defaults are documented
// policy choices, not a tuned model.
type Engine struct {
	TrendWindow  int     // days compared at each end of the series
	TrendWeight  float64 // share of the observed trend applied to the projection
	AnomalySigma float64 // peak/dip threshold in standard deviations
	HighProgress float64 // progress ratio above which the hybrid turns conservative
}

func NewEngine() *Engine {
	return &Engine{
		TrendWindow:  3,
		TrendWeight:  0.3,
		AnomalySigma: 1.5,
		HighProgress: 0.8,
	}
}

// DayRevenue is one day of the in-month revenue series.
type DayRevenue struct {
	Date  time.Time
	Cents int64
	Sales int
}

// Metrics is the month-to-date position against the goal.
type Metrics struct {
	Year  int
	Month time.Month

	RevenueCents      int64
	DaysWorked        int // distinct dates with at least one sale
	AverageDailyCents float64
	DaysRemaining     int
	ShortCents        int64
	ProgressPct       float64
}

// Projections are the four independent month-end estimates, in cents.
type Projections struct {
	Simple    float64
	Trend     float64
	GoalPaced float64
	Hybrid    float64
}

type AnomalyKind string

const (
	KindPeak AnomalyKind = "peak"
	KindDip  AnomalyKind = "dip"
)

// Anomaly is a notable day in the revenue series. Informational only; it
// feeds no projection.
type Anomaly struct {
	Date  time.Time
	Cents int64
	Kind  AnomalyKind
}

// Result bundles everything the presentation layer renders for one forecast.
type Result struct {
	Metrics     Metrics
	Projections Projections
	Days        []DayRevenue
	Anomalies   []Anomaly
}

// Forecast computes the month-to-date metrics, projections and anomalies for
// the month of the table's maximum competence date. An empty table produces a
// zero-valued result, not an error.
func (e *Engine) Forecast(txs []ledger.Transaction, cfg Config) *Result {
	res := &Result{}

	var maxDate time.Time

	for _, tx := range txs {
		if tx.Date.After(maxDate) {
			maxDate = tx.Date
		}
	}

	if maxDate.IsZero() {
		return res
	}

	year, month := maxDate.Year(), maxDate.Month()
	res.Days = dailySeries(txs, year, month)

	m := &res.Metrics
	m.Year = year
	m.Month = month

	for _, d := range res.Days {
		m.RevenueCents += d.Cents
	}

	m.DaysWorked = len(res.Days)

	if m.DaysWorked > 0 {
		m.AverageDailyCents = float64(m.RevenueCents) / float64(m.DaysWorked)
	}

	m.DaysRemaining = cfg.WorkingDays - m.DaysWorked
	if m.DaysRemaining < 0 {
		m.DaysRemaining = 0
	}

	m.ShortCents = cfg.GoalCents - m.RevenueCents
	if m.ShortCents < 0 {
		m.ShortCents = 0
	}

	if cfg.GoalCents > 0 {
		m.ProgressPct = float64(m.RevenueCents) / float64(cfg.GoalCents) * 100
	}

	res.Projections = e.project(m, res.Days, cfg)
	res.Anomalies = e.DetectAnomalies(res.Days)

	return res
}

func (e *Engine) project(m *Metrics, days []DayRevenue, cfg Config) Projections {
	var p Projections

	// Method 1 — simple average over days with activity.
	p.Simple = m.AverageDailyCents * float64(cfg.WorkingDays)

	// Method 2 — trend-adjusted: compare the first and last TrendWindow days
	// with sales and apply TrendWeight of the relative trend. With too little
	// history it degenerates to the simple average.
	p.Trend = p.Simple

	if len(days) >= 2*e.TrendWindow {
		first := meanCents(days[:e.TrendWindow])
		last := meanCents(days[len(days)-e.TrendWindow:])

		if first > 0 {
			trend := (last - first) / first
			p.Trend = p.Simple * (1 + e.TrendWeight*trend)
		}
	}

	// Method 3 — goal-paced: required pace over the remaining days. Equals
	// the goal while days remain and the goal is unmet, and collapses to the
	// current revenue when none do. That degeneracy is intentional.
	remaining := m.DaysRemaining
	denom := remaining
	if denom < 1 {
		denom = 1
	}

	pace := float64(m.ShortCents) / float64(denom)
	p.GoalPaced = float64(m.RevenueCents) + pace*float64(remaining)

	// Method 4 — hybrid blend. Near the goal the weights favor the
	// conservative simple average; far from it they favor the trend signal.
	simpleW, trendW, goalW := 0.3, 0.4, 0.3
	if cfg.GoalCents > 0 && float64(m.RevenueCents)/float64(cfg.GoalCents) > e.HighProgress {
		simpleW, trendW, goalW = 0.5, 0.3, 0.2
	}

	p.Hybrid = simpleW*p.Simple + trendW*p.Trend + goalW*p.GoalPaced

	return p
}

// DetectAnomalies flags days at least AnomalySigma standard deviations above
// the mean as peaks, and days at or below max(0, mean−σ·k) as dips. Plain
// mean and population standard deviation, fixed thresholds.
func (e *Engine) DetectAnomalies(days []DayRevenue) []Anomaly {
	if len(days) < 2 {
		return nil
	}

	var sum float64
	for _, d := range days {
		sum += float64(d.Cents)
	}

	mean := sum / float64(len(days))

	var variance float64
	for _, d := range days {
		diff := float64(d.Cents) - mean
		variance += diff * diff
	}

	variance /= float64(len(days))

	stdev := math.Sqrt(variance)
	if stdev == 0 {
		return nil
	}

	peakAt := mean + e.AnomalySigma*stdev

	dipAt := mean - e.AnomalySigma*stdev
	if dipAt < 0 {
		dipAt = 0
	}

	var anomalies []Anomaly

	for _, d := range days {
		switch {
		case float64(d.Cents) >= peakAt:
			anomalies = append(anomalies, Anomaly{Date: d.Date, Cents: d.Cents, Kind: KindPeak})
		case float64(d.Cents) <= dipAt:
			anomalies = append(anomalies, Anomaly{Date: d.Date, Cents: d.Cents, Kind: KindDip})
		}
	}

	return anomalies
}

// dailySeries aggregates in-month transactions into a date-ordered series of
// days with at least one sale.
func dailySeries(txs []ledger.Transaction, year int, month time.Month) []DayRevenue {
	byDate := make(map[time.Time]*DayRevenue)

	for _, tx := range txs {
		if tx.Year != year || tx.Month != month {
			continue
		}

		d, ok := byDate[tx.Date]
		if !ok {
			d = &DayRevenue{Date: tx.Date}
			byDate[tx.Date] = d
		}

		d.Cents += tx.NetCents
		d.Sales++
	}

	days := make([]DayRevenue, 0, len(byDate))
	for _, d := range byDate {
		days = append(days, *d)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	return days
}

func meanCents(days []DayRevenue) float64 {
	if len(days) == 0 {
		return 0
	}

	var sum float64
	for _, d := range days {
		sum += float64(d.Cents)
	}

	return sum / float64(len(days))
}
