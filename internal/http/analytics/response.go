package analytics

import (
	"time"

	"github.com/graos-sa/salescore/internal/cohort"
	"github.com/graos-sa/salescore/internal/forecast"
)

const dateLayout = "2006-01-02"

type customerResponse struct {
	Name               string  `json:"name"`
	TotalCents         int64   `json:"total_cents"`
	PurchaseCount      int     `json:"purchase_count"`
	AverageTicketCents float64 `json:"average_ticket_cents"`
	FirstPurchase      string  `json:"first_purchase"`
	LastPurchase       string  `json:"last_purchase"`
	DaysSinceLast      int     `json:"days_since_last"`
	Segment            string  `json:"segment"`
}

type customersResponse struct {
	Customers []customerResponse `json:"customers"`
	Segments  map[string]int     `json:"segments"`
}

func toCustomerResponse(s cohort.Summary) customerResponse {
	return customerResponse{
		Name:               s.CustomerName,
		TotalCents:         s.TotalCents,
		PurchaseCount:      s.PurchaseCount,
		AverageTicketCents: s.AverageTicketCents,
		FirstPurchase:      s.FirstPurchase.Format(dateLayout),
		LastPurchase:       s.LastPurchase.Format(dateLayout),
		DaysSinceLast:      s.DaysSinceLast,
		Segment:            string(s.Segment),
	}
}

func toCustomersResponse(summaries []cohort.Summary) customersResponse {
	resp := customersResponse{
		Customers: make([]customerResponse, 0, len(summaries)),
		Segments:  make(map[string]int),
	}

	for _, s := range summaries {
		resp.Customers = append(resp.Customers, toCustomerResponse(s))
		resp.Segments[string(s.Segment)]++
	}

	return resp
}

type cohortResponse struct {
	Month                string   `json:"month"`
	Size                 int      `json:"size"`
	Customers            []string `json:"customers"`
	FirstDayRevenueCents int64    `json:"first_day_revenue_cents"`
	FirstDayRows         int      `json:"first_day_rows"`
	FirstDayMeanCents    float64  `json:"first_day_mean_cents"`
}

type cohortsResponse struct {
	Cohorts []cohortResponse `json:"cohorts"`
}

func toCohortsResponse(cohorts []cohort.Cohort) cohortsResponse {
	resp := cohortsResponse{Cohorts: make([]cohortResponse, 0, len(cohorts))}

	for _, c := range cohorts {
		resp.Cohorts = append(resp.Cohorts, cohortResponse{
			Month:                c.Month.String(),
			Size:                 c.Size,
			Customers:            c.Customers,
			FirstDayRevenueCents: c.FirstDayRevenueCents,
			FirstDayRows:         c.FirstDayRows,
			FirstDayMeanCents:    c.FirstDayMeanCents,
		})
	}

	return resp
}

type poolsResponse struct {
	SinglePurchase      []customerResponse `json:"single_purchase"`
	SingleRevenueCents  int64              `json:"single_revenue_cents"`
	SingleRecoveryCents float64            `json:"single_recovery_cents"`

	Inactive              []customerResponse `json:"inactive"`
	InactiveRevenueCents  int64              `json:"inactive_revenue_cents"`
	InactiveRecoveryCents float64            `json:"inactive_recovery_cents"`

	TotalRecoveryCents float64 `json:"total_recovery_cents"`
}

func toPoolsResponse(p cohort.Pools) poolsResponse {
	resp := poolsResponse{
		SinglePurchase:        make([]customerResponse, 0, len(p.SinglePurchase)),
		SingleRevenueCents:    p.SingleRevenueCents,
		SingleRecoveryCents:   p.SingleRecoveryCents,
		Inactive:              make([]customerResponse, 0, len(p.Inactive)),
		InactiveRevenueCents:  p.InactiveRevenueCents,
		InactiveRecoveryCents: p.InactiveRecoveryCents,
		TotalRecoveryCents:    p.SingleRecoveryCents + p.InactiveRecoveryCents,
	}

	for _, s := range p.SinglePurchase {
		resp.SinglePurchase = append(resp.SinglePurchase, toCustomerResponse(s))
	}

	for _, s := range p.Inactive {
		resp.Inactive = append(resp.Inactive, toCustomerResponse(s))
	}

	return resp
}

type dayResponse struct {
	Date  string `json:"date"`
	Cents int64  `json:"cents"`
	Sales int    `json:"sales"`
}

type anomalyResponse struct {
	Date  string `json:"date"`
	Cents int64  `json:"cents"`
	Kind  string `json:"kind"`
}

type forecastResponse struct {
	Year  int    `json:"year"`
	Month string `json:"month"`

	RevenueCents      int64   `json:"revenue_cents"`
	DaysWorked        int     `json:"days_worked"`
	AverageDailyCents float64 `json:"average_daily_cents"`
	DaysRemaining     int     `json:"days_remaining"`
	ShortCents        int64   `json:"short_cents"`
	ProgressPct       float64 `json:"progress_pct"`

	Simple    float64 `json:"projection_simple_cents"`
	Trend     float64 `json:"projection_trend_cents"`
	GoalPaced float64 `json:"projection_goal_paced_cents"`
	Hybrid    float64 `json:"projection_hybrid_cents"`

	Days      []dayResponse     `json:"days"`
	Anomalies []anomalyResponse `json:"anomalies"`
}

func toForecastResponse(res *forecast.Result) forecastResponse {
	resp := forecastResponse{
		Year:  res.Metrics.Year,
		Month: monthName(res.Metrics.Month),

		RevenueCents:      res.Metrics.RevenueCents,
		DaysWorked:        res.Metrics.DaysWorked,
		AverageDailyCents: res.Metrics.AverageDailyCents,
		DaysRemaining:     res.Metrics.DaysRemaining,
		ShortCents:        res.Metrics.ShortCents,
		ProgressPct:       res.Metrics.ProgressPct,

		Simple:    res.Projections.Simple,
		Trend:     res.Projections.Trend,
		GoalPaced: res.Projections.GoalPaced,
		Hybrid:    res.Projections.Hybrid,

		Days:      make([]dayResponse, 0, len(res.Days)),
		Anomalies: make([]anomalyResponse, 0, len(res.Anomalies)),
	}

	for _, d := range res.Days {
		resp.Days = append(resp.Days, dayResponse{
			Date:  d.Date.Format(dateLayout),
			Cents: d.Cents,
			Sales: d.Sales,
		})
	}

	for _, a := range res.Anomalies {
		resp.Anomalies = append(resp.Anomalies, anomalyResponse{
			Date:  a.Date.Format(dateLayout),
			Cents: a.Cents,
			Kind:  string(a.Kind),
		})
	}

	return resp
}

func monthName(m time.Month) string {
	if m == 0 {
		return ""
	}

	return m.String()
}

type sectorDayResponse struct {
	Date string `json:"date"`

	WholesaleCents int64 `json:"wholesale_cents"`
	RetailCents    int64 `json:"retail_cents"`
	TotalCents     int64 `json:"total_cents"`

	WholesaleSales int `json:"wholesale_sales"`
	RetailSales    int `json:"retail_sales"`
	TotalSales     int `json:"total_sales"`
}

type sectorTotalsResponse struct {
	RevenueCents       int64   `json:"revenue_cents"`
	Sales              int     `json:"sales"`
	AverageTicketCents float64 `json:"average_ticket_cents"`
}

type periodResponse struct {
	Period         string  `json:"period"`
	Days           int     `json:"days"`
	MeanTotalCents float64 `json:"mean_total_cents"`
}

type dailyResponse struct {
	Year  int    `json:"year"`
	Month string `json:"month"`

	Days []sectorDayResponse `json:"days"`

	Wholesale sectorTotalsResponse `json:"wholesale"`
	Retail    sectorTotalsResponse `json:"retail"`
	Combined  sectorTotalsResponse `json:"combined"`

	BestDay *sectorDayResponse `json:"best_day,omitempty"`

	Periods          []periodResponse `json:"periods"`
	VariationPct     float64          `json:"variation_pct"`
	VariationNotable bool             `json:"variation_notable"`
}

func toDailyResponse(b *forecast.DailyBreakdown) dailyResponse {
	resp := dailyResponse{
		Year:  b.Year,
		Month: monthName(b.Month),

		Days: make([]sectorDayResponse, 0, len(b.Days)),

		Wholesale: toSectorTotals(b.Wholesale),
		Retail:    toSectorTotals(b.Retail),
		Combined:  toSectorTotals(b.Combined),

		Periods:          make([]periodResponse, 0, len(b.Periods)),
		VariationPct:     b.VariationPct,
		VariationNotable: b.VariationNotable,
	}

	for _, d := range b.Days {
		resp.Days = append(resp.Days, toSectorDay(d))
	}

	if b.BestDay != nil {
		best := toSectorDay(*b.BestDay)
		resp.BestDay = &best
	}

	for _, p := range b.Periods {
		resp.Periods = append(resp.Periods, periodResponse{
			Period:         p.Period,
			Days:           p.Days,
			MeanTotalCents: p.MeanTotalCents,
		})
	}

	return resp
}

func toSectorDay(d forecast.SectorDay) sectorDayResponse {
	return sectorDayResponse{
		Date: d.Date.Format(dateLayout),

		WholesaleCents: d.WholesaleCents,
		RetailCents:    d.RetailCents,
		TotalCents:     d.TotalCents,

		WholesaleSales: d.WholesaleSales,
		RetailSales:    d.RetailSales,
		TotalSales:     d.TotalSales,
	}
}

func toSectorTotals(t forecast.SectorTotals) sectorTotalsResponse {
	return sectorTotalsResponse{
		RevenueCents:       t.RevenueCents,
		Sales:              t.Sales,
		AverageTicketCents: t.AverageTicketCents,
	}
}
