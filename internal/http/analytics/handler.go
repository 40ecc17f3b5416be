// Package analytics exposes the cohort and forecast engines over HTTP.
// Every request recomputes from a fresh parse of the canonical ledger; the
// handlers hold no derived state.
package analytics

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/graos-sa/salescore/internal/cohort"
	"github.com/graos-sa/salescore/internal/forecast"
	"github.com/graos-sa/salescore/internal/ledger"
)

// TableSource provides fresh ledger snapshots. Satisfied by *ledger.Service.
type TableSource interface {
	Load(sector ledger.Sector) (*ledger.Snapshot, error)
}

// Defaults are used when a request omits the goal or working-days values.
type Defaults struct {
	GoalCents   int64
	WorkingDays int
}

type Handler struct {
	src       TableSource
	cohorts   *cohort.Engine
	forecasts *forecast.Engine
	defaults  Defaults
}

func NewHandler(src TableSource, cohorts *cohort.Engine, forecasts *forecast.Engine, defaults Defaults) *Handler {
	return &Handler{
		src:       src,
		cohorts:   cohorts,
		forecasts: forecasts,
		defaults:  defaults,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/customers", h.customers)
	r.Get("/cohorts", h.monthlyCohorts)
	r.Get("/reactivation", h.reactivation)
	r.Get("/forecast", h.forecast)
	r.Get("/daily", h.daily)
}

// sectorOf reads the optional sector query parameter; analytics default to
// the wholesale ledger, which is the primary one.
func sectorOf(r *http.Request) (ledger.Sector, error) {
	s := r.URL.Query().Get("sector")
	if s == "" {
		return ledger.SectorWholesale, nil
	}

	return ledger.ParseSector(s)
}

func (h *Handler) customers(w http.ResponseWriter, r *http.Request) {
	sector, err := sectorOf(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap, err := h.src.Load(sector)
	if err != nil {
		h.loadError(w, err)
		return
	}

	summaries := h.cohorts.Summarize(snap.Table.Transactions)

	writeJSON(w, http.StatusOK, toCustomersResponse(summaries))
}

func (h *Handler) monthlyCohorts(w http.ResponseWriter, r *http.Request) {
	sector, err := sectorOf(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap, err := h.src.Load(sector)
	if err != nil {
		h.loadError(w, err)
		return
	}

	cohorts := h.cohorts.MonthlyCohorts(snap.Table.Transactions)

	writeJSON(w, http.StatusOK, toCohortsResponse(cohorts))
}

func (h *Handler) reactivation(w http.ResponseWriter, r *http.Request) {
	sector, err := sectorOf(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap, err := h.src.Load(sector)
	if err != nil {
		h.loadError(w, err)
		return
	}

	summaries := h.cohorts.Summarize(snap.Table.Transactions)
	pools := h.cohorts.ReactivationPools(summaries)

	writeJSON(w, http.StatusOK, toPoolsResponse(pools))
}

func (h *Handler) forecast(w http.ResponseWriter, r *http.Request) {
	sector, err := sectorOf(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cfg, err := h.forecastConfig(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap, err := h.src.Load(sector)
	if err != nil {
		h.loadError(w, err)
		return
	}

	result := h.forecasts.Forecast(snap.Table.Transactions, cfg)

	writeJSON(w, http.StatusOK, toForecastResponse(result))
}

func (h *Handler) daily(w http.ResponseWriter, r *http.Request) {
	wholesale, err := h.src.Load(ledger.SectorWholesale)
	if err != nil {
		h.loadError(w, err)
		return
	}

	// The retail ledger is secondary; analytics still render without it.
	var retailTxs []ledger.Transaction

	retail, err := h.src.Load(ledger.SectorRetail)

	switch {
	case err == nil:
		retailTxs = retail.Table.Transactions
	case errors.Is(err, ledger.ErrNoLedger):
	default:
		h.loadError(w, err)
		return
	}

	year, month, err := monthOf(r, wholesale.Table)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	breakdown := h.forecasts.DailyBreakdown(wholesale.Table.Transactions, retailTxs, year, month)

	writeJSON(w, http.StatusOK, toDailyResponse(breakdown))
}

// forecastConfig reads goal and working_days from the query, falling back to
// the configured defaults. The goal is in currency units ("50000" or
// "50000,00" both work) and must be positive; working_days must be at least 1.
// The engine itself never sees an invalid config.
func (h *Handler) forecastConfig(r *http.Request) (forecast.Config, error) {
	cfg := forecast.Config{
		GoalCents:   h.defaults.GoalCents,
		WorkingDays: h.defaults.WorkingDays,
	}

	q := r.URL.Query()

	if raw := q.Get("goal"); raw != "" {
		d, err := decimal.NewFromString(normalizeDecimal(raw))
		if err != nil {
			return cfg, errors.New("goal must be a decimal number")
		}

		cfg.GoalCents = d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	}

	if raw := q.Get("working_days"); raw != "" {
		wd, err := strconv.Atoi(raw)
		if err != nil {
			return cfg, errors.New("working_days must be an integer")
		}

		cfg.WorkingDays = wd
	}

	if cfg.GoalCents <= 0 {
		return cfg, errors.New("goal must be positive")
	}

	if cfg.WorkingDays < 1 {
		return cfg, errors.New("working_days must be at least 1")
	}

	return cfg, nil
}

// monthOf reads the optional year/month parameters, defaulting to the month
// of the primary ledger's latest competence date.
func monthOf(r *http.Request, table *ledger.Table) (int, time.Month, error) {
	q := r.URL.Query()
	rawYear, rawMonth := q.Get("year"), q.Get("month")

	if rawYear == "" && rawMonth == "" {
		max, ok := table.MaxDate()
		if !ok {
			return 0, 0, errors.New("ledger is empty; year and month are required")
		}

		return max.Year(), max.Month(), nil
	}

	year, err := strconv.Atoi(rawYear)
	if err != nil {
		return 0, 0, errors.New("year must be an integer")
	}

	m, err := strconv.Atoi(rawMonth)
	if err != nil || m < 1 || m > 12 {
		return 0, 0, errors.New("month must be an integer between 1 and 12")
	}

	return year, time.Month(m), nil
}

// normalizeDecimal accepts both dot and comma decimal separators in query
// values. When a comma is present, dots are thousands separators.
func normalizeDecimal(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}

	s = strings.ReplaceAll(s, ".", "")

	return strings.Replace(s, ",", ".", 1)
}

func (h *Handler) loadError(w http.ResponseWriter, err error) {
	if errors.Is(err, ledger.ErrNoLedger) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
