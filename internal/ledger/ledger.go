package ledger

import (
	"fmt"
	"time"

	"github.com/graos-sa/salescore/internal/encoding"
)

// Sector identifies which sales ledger a file belongs to.
type Sector string

const (
	SectorWholesale Sector = "wholesale"
	SectorRetail    Sector = "retail"
)

// ParseSector validates a sector name coming from an external caller.
func ParseSector(s string) (Sector, error) {
	switch Sector(s) {
	case SectorWholesale, SectorRetail:
		return Sector(s), nil
	}

	return "", fmt.Errorf("unknown sector: %s", s)
}

// ReturnMarker flags return/cancellation rows in the customer column.
// Matched case-sensitively; returns are dropped, never modeled as negatives.
const ReturnMarker = "DEVOLUCAO"

// DateLayout is the ledger's date format (day/month/year).
const DateLayout = "02/01/2006"

// Transaction is one accepted row of the canonical ledger. Required fields
// (Date, CustomerName, NetCents) are always populated; optional numerics are
// nil when the source cell did not coerce.
type Transaction struct {
	Date    time.Time
	RawDate string // first column exactly as formatted in the file

	SaleTime      string
	SaleNumber    string
	InvoiceNumber string
	CustomerCode  string
	CustomerName  string

	Quantity       *float64
	UnitCents      *int64
	SurchargeCents *int64
	DiscountCents  *int64
	SubtotalCents  *int64
	AncillaryCents *int64
	FreightCents   *int64
	InsuranceCents *int64
	NetCents       int64 // net total after ledger-side adjustments; always > 0
	DiscountPct    *float64
	BaseCents      *int64

	// Extras holds columns beyond the 17 mapped ones, retained opaque.
	Extras []string

	// Derived once at ingestion.
	Year      int
	Month     time.Month
	MonthName string
}

// Table is a parsed canonical transaction table.
type Table struct {
	Transactions []Transaction
	Charset      encoding.Charset
}

// MaxDate returns the latest competence date in the table.
// ok is false for an empty table.
func (t *Table) MaxDate() (max time.Time, ok bool) {
	for _, tx := range t.Transactions {
		if !ok || tx.Date.After(max) {
			max = tx.Date
			ok = true
		}
	}

	return max, ok
}
