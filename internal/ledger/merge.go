package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// dedupKey identifies a row across ledger files. It deliberately uses the
// pre-normalization date text plus the sale number: normalizing before dedup
// could mask formatting quirks the source system uses to distinguish rows.
type dedupKey struct {
	RawDate    string
	SaleNumber string
}

func keyOf(row []string) dedupKey {
	k := dedupKey{RawDate: row[colDate]}
	if len(row) > colSaleNumber {
		k.SaleNumber = row[colSaleNumber]
	}

	return k
}

// MergeResult is a merged raw ledger plus the facts callers report to users
// and the store needs to derive the file identity.
type MergeResult struct {
	Rows  [][]string // header first, data rows sorted by raw date text
	Added int        // batch rows actually added post-dedup
	Total int        // data rows in the merged table

	MaxDate      time.Time
	DateResolved bool // false when no row has a parseable date
}

// Merge combines an existing canonical ledger with a newly uploaded batch,
// both as raw rows including their header. Duplicate keys keep the first
// occurrence, so the existing side always wins over the batch.
//
// A nil existing ledger means a first load: the batch becomes the canonical
// table (still deduplicated against itself).
func Merge(existing, batch [][]string) (*MergeResult, error) {
	if len(batch) == 0 {
		return nil, &MalformedLedgerError{Columns: 0}
	}

	if len(batch[0]) < MinColumns {
		return nil, &MalformedLedgerError{Columns: len(batch[0])}
	}

	header := batch[0]

	if existing != nil {
		if len(existing) == 0 {
			return nil, &MalformedLedgerError{Columns: 0}
		}

		if len(existing[0]) != len(batch[0]) {
			return nil, &IncompatibleSchemaError{
				Existing: len(existing[0]),
				Batch:    len(batch[0]),
			}
		}

		header = existing[0]
	}

	seen := make(map[dedupKey]bool)
	data := make([][]string, 0, len(existing)+len(batch))
	added := 0

	if existing != nil {
		for _, row := range existing[1:] {
			k := keyOf(row)
			if seen[k] {
				continue
			}

			seen[k] = true
			data = append(data, row)
		}
	}

	for _, row := range batch[1:] {
		k := keyOf(row)
		if seen[k] {
			continue
		}

		seen[k] = true
		data = append(data, row)
		added++
	}

	// Match the ledger's existing ordering convention: lexicographic on the
	// original date text, not on a parsed date.
	sort.SliceStable(data, func(i, j int) bool {
		return data[i][colDate] < data[j][colDate]
	})

	res := &MergeResult{
		Rows:  append([][]string{header}, data...),
		Added: added,
		Total: len(data),
	}

	res.MaxDate, res.DateResolved = maxRawDate(data)

	return res, nil
}

// maxRawDate finds the latest parseable competence date across raw rows.
func maxRawDate(rows [][]string) (max time.Time, ok bool) {
	for _, row := range rows {
		d, err := time.Parse(DateLayout, strings.TrimSpace(row[colDate]))
		if err != nil {
			continue
		}

		if !ok || d.After(max) {
			max = d
			ok = true
		}
	}

	return max, ok
}

// FileName derives the canonical ledger file name from the latest
// transaction date, e.g. "Vendas até 28-07-2025.txt".
func FileName(prefix string, maxDate time.Time) string {
	return fmt.Sprintf("%s até %s.txt", prefix, maxDate.Format("02-01-2006"))
}
