package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/graos-sa/salescore/internal/ledger"
)

// SectorDay is one calendar day of combined wholesale/retail activity.
// A sector with no sales that day contributes zero.
type SectorDay struct {
	Date time.Time

	WholesaleCents int64
	RetailCents    int64
	TotalCents     int64

	WholesaleSales int
	RetailSales    int
	TotalSales     int
}

// SectorTotals is a month summary for one sector (or both combined).
type SectorTotals struct {
	RevenueCents       int64
	Sales              int
	AverageTicketCents float64
}

// PeriodStats is the mean daily revenue over one slice of the month.
type PeriodStats struct {
	Period         string
	Days           int
	MeanTotalCents float64
}

const (
	periodEarly = "1-10"
	periodMid   = "11-20"
	periodLate  = "21-31"
)

// variationNotablePct is the early-vs-late swing, in percent, above which the
// breakdown flags a month-shape pattern.
const variationNotablePct = 20.0

// DailyBreakdown is the per-day sector comparison for one calendar month.
type DailyBreakdown struct {
	Year  int
	Month time.Month

	Days []SectorDay

	Wholesale SectorTotals
	Retail    SectorTotals
	Combined  SectorTotals

	BestDay *SectorDay

	Periods          []PeriodStats
	VariationPct     float64 // early-to-late change in mean daily revenue
	VariationNotable bool
}

// DailyBreakdown merges both sectors' transactions into a per-day series for
// the given month, with month totals, the best day, and period-of-month
// pattern stats.
func (e *Engine) DailyBreakdown(wholesale, retail []ledger.Transaction, year int, month time.Month) *DailyBreakdown {
	b := &DailyBreakdown{Year: year, Month: month}

	byDate := make(map[time.Time]*SectorDay)

	day := func(d time.Time) *SectorDay {
		sd, ok := byDate[d]
		if !ok {
			sd = &SectorDay{Date: d}
			byDate[d] = sd
		}

		return sd
	}

	for _, tx := range wholesale {
		if tx.Year != year || tx.Month != month {
			continue
		}

		sd := day(tx.Date)
		sd.WholesaleCents += tx.NetCents
		sd.WholesaleSales++
	}

	for _, tx := range retail {
		if tx.Year != year || tx.Month != month {
			continue
		}

		sd := day(tx.Date)
		sd.RetailCents += tx.NetCents
		sd.RetailSales++
	}

	b.Days = make([]SectorDay, 0, len(byDate))

	for _, sd := range byDate {
		sd.TotalCents = sd.WholesaleCents + sd.RetailCents
		sd.TotalSales = sd.WholesaleSales + sd.RetailSales
		b.Days = append(b.Days, *sd)
	}

	sort.Slice(b.Days, func(i, j int) bool { return b.Days[i].Date.Before(b.Days[j].Date) })

	for i := range b.Days {
		d := &b.Days[i]

		b.Wholesale.RevenueCents += d.WholesaleCents
		b.Wholesale.Sales += d.WholesaleSales
		b.Retail.RevenueCents += d.RetailCents
		b.Retail.Sales += d.RetailSales

		if b.BestDay == nil || d.TotalCents > b.BestDay.TotalCents {
			b.BestDay = d
		}
	}

	b.Combined.RevenueCents = b.Wholesale.RevenueCents + b.Retail.RevenueCents
	b.Combined.Sales = b.Wholesale.Sales + b.Retail.Sales

	b.Wholesale.AverageTicketCents = ticket(b.Wholesale.RevenueCents, b.Wholesale.Sales)
	b.Retail.AverageTicketCents = ticket(b.Retail.RevenueCents, b.Retail.Sales)
	b.Combined.AverageTicketCents = ticket(b.Combined.RevenueCents, b.Combined.Sales)

	b.Periods, b.VariationPct = periodBreakdown(b.Days)
	b.VariationNotable = math.Abs(b.VariationPct) > variationNotablePct

	return b
}

// ticket guards the average-ticket division with a minimum denominator of 1.
func ticket(revenue int64, sales int) float64 {
	if sales < 1 {
		sales = 1
	}

	return float64(revenue) / float64(sales)
}

// periodBreakdown splits the month into early/mid/late slices and reports
// each slice's mean daily revenue plus the early-to-late variation.
func periodBreakdown(days []SectorDay) ([]PeriodStats, float64) {
	stats := []PeriodStats{
		{Period: periodEarly},
		{Period: periodMid},
		{Period: periodLate},
	}

	sums := make([]float64, len(stats))

	for _, d := range days {
		idx := 2

		switch {
		case d.Date.Day() <= 10:
			idx = 0
		case d.Date.Day() <= 20:
			idx = 1
		}

		stats[idx].Days++
		sums[idx] += float64(d.TotalCents)
	}

	for i := range stats {
		if stats[i].Days > 0 {
			stats[i].MeanTotalCents = sums[i] / float64(stats[i].Days)
		}
	}

	var variation float64
	if stats[0].MeanTotalCents > 0 {
		variation = (stats[2].MeanTotalCents - stats[0].MeanTotalCents) / stats[0].MeanTotalCents * 100
	}

	return stats, variation
}
