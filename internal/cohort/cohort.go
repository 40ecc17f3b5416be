// Package cohort derives customer acquisition cohorts, lifecycle segments and
// reactivation pools from the canonical transaction table. Everything is
// recomputed from the table on each call; nothing is persisted.
//
// All recency is measured against the ledger's own maximum competence date,
// never wall-clock time, so results replay identically on historical data.
package cohort

import (
	"sort"
	"time"

	"github.com/graos-sa/salescore/internal/ledger"
)

// Segment is a customer lifecycle class. Every customer maps to exactly one.
type Segment string

const (
	SegmentVIP        Segment = "vip"
	SegmentFrequent   Segment = "frequent"
	SegmentOccasional Segment = "occasional"
	SegmentCold       Segment = "cold"
)

// Thresholds are the segmentation and reactivation constants. The defaults
// are documented business heuristics, not fitted estimates; they are kept
// configurable rather than derived.
type Thresholds struct {
	VIPRevenueCents   int64
	VIPPurchases      int
	FrequentPurchases int
	FrequentRecency   int // days
	OccasionalRecency int // days

	SinglePurchaseLapse int // days before a one-time buyer counts as lapsed
	InactiveLapse       int // days before a repeat buyer counts as inactive

	SingleRecoveryRate   float64 // conservative reactivation conversion
	InactiveRecoveryRate float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		VIPRevenueCents:   100_000, // R$ 1000
		VIPPurchases:      5,
		FrequentPurchases: 3,
		FrequentRecency:   30,
		OccasionalRecency: 60,

		SinglePurchaseLapse: 30,
		InactiveLapse:       60,

		SingleRecoveryRate:   0.20,
		InactiveRecoveryRate: 0.15,
	}
}

type Engine struct {
	th Thresholds
}

func NewEngine(th Thresholds) *Engine {
	return &Engine{th: th}
}

// Summary aggregates one customer's activity. Recency is relative to the
// table's maximum competence date.
type Summary struct {
	CustomerName       string
	TotalCents         int64
	PurchaseCount      int
	AverageTicketCents float64
	FirstPurchase      time.Time
	LastPurchase       time.Time
	DaysSinceLast      int
	Segment            Segment
}

// Summarize computes per-customer summaries, classified and sorted by total
// revenue descending (name ascending on ties). Empty input yields an empty
// slice, not an error.
func (e *Engine) Summarize(txs []ledger.Transaction) []Summary {
	byName := make(map[string]*Summary)

	var refDate time.Time

	for _, tx := range txs {
		if tx.Date.After(refDate) {
			refDate = tx.Date
		}

		s, ok := byName[tx.CustomerName]
		if !ok {
			s = &Summary{
				CustomerName:  tx.CustomerName,
				FirstPurchase: tx.Date,
				LastPurchase:  tx.Date,
			}
			byName[tx.CustomerName] = s
		}

		s.TotalCents += tx.NetCents
		s.PurchaseCount++

		if tx.Date.Before(s.FirstPurchase) {
			s.FirstPurchase = tx.Date
		}

		if tx.Date.After(s.LastPurchase) {
			s.LastPurchase = tx.Date
		}
	}

	summaries := make([]Summary, 0, len(byName))

	for _, s := range byName {
		s.AverageTicketCents = float64(s.TotalCents) / float64(s.PurchaseCount)
		s.DaysSinceLast = int(refDate.Sub(s.LastPurchase) / (24 * time.Hour))
		s.Segment = e.classify(s)
		summaries = append(summaries, *s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalCents != summaries[j].TotalCents {
			return summaries[i].TotalCents > summaries[j].TotalCents
		}

		return summaries[i].CustomerName < summaries[j].CustomerName
	})

	return summaries
}

// classify is an ordered decision list; the first matching rule wins and the
// thresholds are inclusive.
func (e *Engine) classify(s *Summary) Segment {
	switch {
	case s.TotalCents >= e.th.VIPRevenueCents && s.PurchaseCount >= e.th.VIPPurchases:
		return SegmentVIP
	case s.PurchaseCount >= e.th.FrequentPurchases && s.DaysSinceLast <= e.th.FrequentRecency:
		return SegmentFrequent
	case s.DaysSinceLast <= e.th.OccasionalRecency:
		return SegmentOccasional
	default:
		return SegmentCold
	}
}

// YearMonth is a calendar month used as a cohort key.
type YearMonth struct {
	Year  int
	Month time.Month
}

func (m YearMonth) String() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

func monthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// FirstPurchase is a customer's acquisition record: the minimum competence
// date across all of their transactions.
type FirstPurchase struct {
	CustomerName string
	Date         time.Time
	Month        YearMonth
}

// FirstPurchases finds each customer's acquisition date, sorted by date then
// name. No transaction can precede its customer's own entry here.
func FirstPurchases(txs []ledger.Transaction) []FirstPurchase {
	firsts := make(map[string]time.Time)

	for _, tx := range txs {
		if cur, ok := firsts[tx.CustomerName]; !ok || tx.Date.Before(cur) {
			firsts[tx.CustomerName] = tx.Date
		}
	}

	out := make([]FirstPurchase, 0, len(firsts))
	for name, d := range firsts {
		out = append(out, FirstPurchase{CustomerName: name, Date: d, Month: monthOf(d)})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}

		return out[i].CustomerName < out[j].CustomerName
	})

	return out
}

// Cohort is one acquisition month. First-day aggregates cover every
// transaction dated on a member's first-purchase day, so same-day repeat buys
// all contribute; the mean is over those rows, not one value per customer.
type Cohort struct {
	Month     YearMonth
	Size      int
	Customers []string

	FirstDayRevenueCents int64
	FirstDayRows         int
	FirstDayMeanCents    float64
}

// MonthlyCohorts groups customers by the calendar month of their first
// purchase, in chronological order.
func (e *Engine) MonthlyCohorts(txs []ledger.Transaction) []Cohort {
	firsts := FirstPurchases(txs)

	firstDates := make(map[string]time.Time, len(firsts))
	byMonth := make(map[YearMonth]*Cohort)

	for _, fp := range firsts {
		firstDates[fp.CustomerName] = fp.Date

		c, ok := byMonth[fp.Month]
		if !ok {
			c = &Cohort{Month: fp.Month}
			byMonth[fp.Month] = c
		}

		c.Size++
		c.Customers = append(c.Customers, fp.CustomerName)
	}

	for _, tx := range txs {
		first, ok := firstDates[tx.CustomerName]
		if !ok || !tx.Date.Equal(first) {
			continue
		}

		c := byMonth[monthOf(first)]
		c.FirstDayRevenueCents += tx.NetCents
		c.FirstDayRows++
	}

	cohorts := make([]Cohort, 0, len(byMonth))

	for _, c := range byMonth {
		if c.FirstDayRows > 0 {
			c.FirstDayMeanCents = float64(c.FirstDayRevenueCents) / float64(c.FirstDayRows)
		}

		sort.Strings(c.Customers)
		cohorts = append(cohorts, *c)
	}

	sort.Slice(cohorts, func(i, j int) bool {
		if cohorts[i].Month.Year != cohorts[j].Month.Year {
			return cohorts[i].Month.Year < cohorts[j].Month.Year
		}

		return cohorts[i].Month.Month < cohorts[j].Month.Month
	})

	return cohorts
}

// Pools are the two disjoint reactivation segments with their potential
// recovery sized by fixed conversion-rate heuristics.
type Pools struct {
	SinglePurchase []Summary
	Inactive       []Summary

	SingleRevenueCents  int64
	SingleRecoveryCents float64 // SingleRecoveryRate * pool revenue

	InactiveRevenueCents   int64
	InactiveTicketSumCents float64
	InactiveRecoveryCents  float64 // InactiveRecoveryRate * sum of average tickets
}

// ReactivationPools splits summaries into the single-purchase pool (one buy,
// lapsed past the single-purchase threshold) and the inactive pool (repeat
// buyers lapsed past the inactive threshold). The pools are disjoint by
// construction. Both lists come back sorted by total revenue descending so
// callers can prioritize high-value customers.
func (e *Engine) ReactivationPools(summaries []Summary) Pools {
	var p Pools

	for _, s := range summaries {
		switch {
		case s.PurchaseCount == 1 && s.DaysSinceLast > e.th.SinglePurchaseLapse:
			p.SinglePurchase = append(p.SinglePurchase, s)
			p.SingleRevenueCents += s.TotalCents
		case s.PurchaseCount > 1 && s.DaysSinceLast > e.th.InactiveLapse:
			p.Inactive = append(p.Inactive, s)
			p.InactiveRevenueCents += s.TotalCents
			p.InactiveTicketSumCents += s.AverageTicketCents
		}
	}

	p.SingleRecoveryCents = e.th.SingleRecoveryRate * float64(p.SingleRevenueCents)
	p.InactiveRecoveryCents = e.th.InactiveRecoveryRate * p.InactiveTicketSumCents

	byRevenue := func(list []Summary) {
		sort.Slice(list, func(i, j int) bool {
			if list[i].TotalCents != list[j].TotalCents {
				return list[i].TotalCents > list[j].TotalCents
			}

			return list[i].CustomerName < list[j].CustomerName
		})
	}

	byRevenue(p.SinglePurchase)
	byRevenue(p.Inactive)

	return p
}
