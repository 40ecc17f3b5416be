package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	enc "github.com/graos-sa/salescore/internal/encoding"
)

// The first 17 columns of a ledger export map to fixed semantic fields.
// Anything beyond is retained opaque in Transaction.Extras.
const (
	colDate = iota
	colTime
	colSaleNumber
	colInvoiceNumber
	colCustomerCode
	colCustomerName
	colQuantity
	colUnitValue
	colSurcharge
	colDiscount
	colSubtotal
	colAncillary
	colFreight
	colInsurance
	colNetTotal
	colDiscountPct
	colBasePrice

	mappedColumns = 17
)

// MinColumns is the smallest column count a ledger file can have and still
// carry the authoritative net value column.
const MinColumns = 15

// ReadRows decodes r to UTF-8 and splits it into raw semicolon-delimited rows.
// Cells are kept exactly as formatted in the file; this is the representation
// the merge dedup key operates on.
func ReadRows(r io.Reader) ([][]string, enc.Charset, error) {
	utf8r, cs, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, "", fmt.Errorf("resolve encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true    // Allow sloppy quotes if necessary

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, "", fmt.Errorf("read rows: %w", err)
	}

	return rows, cs, nil
}

// Report carries per-stage ingestion diagnostics. It is observability only;
// the functional contract is the returned Table.
type Report struct {
	ID      uuid.UUID
	Charset enc.Charset

	TotalRows          int // data rows seen (header excluded)
	DroppedShort       int // rows with fewer than MinColumns cells
	DroppedBadDate     int
	DroppedNoCustomer  int
	DroppedReturns     int
	DroppedNonPositive int
	Kept               int
}

// Parser turns a raw semicolon-delimited ledger export into a canonical
// transaction table. It is a pure transform; filtering happens in a fixed
// order, each stage on the output of the previous.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse reads, decodes and converts a full ledger file.
func (p *Parser) Parse(r io.Reader) (*Table, *Report, error) {
	rows, cs, err := ReadRows(r)
	if err != nil {
		return nil, nil, err
	}

	return p.ParseRows(rows, cs)
}

// ParseRows converts already-split raw rows. The first row is the header and
// determines the structural column count.
func (p *Parser) ParseRows(rows [][]string, cs enc.Charset) (*Table, *Report, error) {
	if len(rows) == 0 {
		return nil, nil, &MalformedLedgerError{Columns: 0}
	}

	if len(rows[0]) < MinColumns {
		return nil, nil, &MalformedLedgerError{Columns: len(rows[0])}
	}

	report := &Report{
		ID:      uuid.New(),
		Charset: cs,
	}

	table := &Table{Charset: cs}

	for _, row := range rows[1:] {
		report.TotalRows++

		if len(row) < MinColumns {
			report.DroppedShort++
			continue
		}

		rawDate := strings.TrimSpace(row[colDate])

		date, err := time.Parse(DateLayout, rawDate)
		if err != nil {
			report.DroppedBadDate++
			continue
		}

		customer := strings.TrimSpace(row[colCustomerName])
		if customer == "" {
			report.DroppedNoCustomer++
			continue
		}

		if strings.Contains(customer, ReturnMarker) {
			report.DroppedReturns++
			continue
		}

		net, err := parseCommaCents(strings.TrimSpace(row[colNetTotal]))
		if err != nil || net <= 0 {
			report.DroppedNonPositive++
			continue
		}

		tx := Transaction{
			Date:          date,
			RawDate:       row[colDate],
			SaleTime:      cellValue(row, colTime),
			SaleNumber:    cellValue(row, colSaleNumber),
			InvoiceNumber: cellValue(row, colInvoiceNumber),
			CustomerCode:  cellValue(row, colCustomerCode),
			CustomerName:  customer,

			Quantity:       optFloat(row, colQuantity),
			UnitCents:      optCents(row, colUnitValue),
			SurchargeCents: optCents(row, colSurcharge),
			DiscountCents:  optCents(row, colDiscount),
			SubtotalCents:  optCents(row, colSubtotal),
			AncillaryCents: optCents(row, colAncillary),
			FreightCents:   optCents(row, colFreight),
			InsuranceCents: optCents(row, colInsurance),
			NetCents:       net,
			DiscountPct:    optFloat(row, colDiscountPct),
			BaseCents:      optCents(row, colBasePrice),

			Year:      date.Year(),
			Month:     date.Month(),
			MonthName: date.Month().String(),
		}

		if len(row) > mappedColumns {
			tx.Extras = append([]string(nil), row[mappedColumns:]...)
		}

		table.Transactions = append(table.Transactions, tx)
		report.Kept++
	}

	return table, report, nil
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

// optCents coerces an optional money cell; nil on empty or unparseable input.
func optCents(row []string, idx int) *int64 {
	s := cellValue(row, idx)
	if s == "" {
		return nil
	}

	cents, err := parseCommaCents(s)
	if err != nil {
		return nil
	}

	return &cents
}

// optFloat coerces an optional numeric cell; nil on empty or unparseable input.
func optFloat(row []string, idx int) *float64 {
	s := cellValue(row, idx)
	if s == "" {
		return nil
	}

	f, err := parseCommaFloat(s)
	if err != nil {
		return nil
	}

	return &f
}
