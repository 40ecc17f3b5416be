package ledger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	enc "github.com/graos-sa/salescore/internal/encoding"
)

// RawLedger is a canonical ledger file as read from disk: undecoded structure,
// raw cells.
type RawLedger struct {
	Path    string
	Rows    [][]string
	Charset enc.Charset
}

// ReplaceInfo describes where a merged ledger ended up on disk.
type ReplaceInfo struct {
	Path       string
	BackupPath string // empty when backup was skipped or this was a first load
	Renamed    bool
}

// Store is the flat-file home of one sector's canonical ledger.
type Store interface {
	// Load reads the current canonical file. Returns ErrNoLedger when no
	// canonical file exists yet.
	Load() (*RawLedger, error)
	// Replace backs up the current file, writes the merged table and removes
	// the old file when the derived name changed.
	Replace(res *MergeResult) (ReplaceInfo, error)
}

// Snapshot is a freshly parsed view of one sector's canonical ledger.
type Snapshot struct {
	Sector Sector
	Path   string
	Table  *Table
	Report *Report
}

// MergeOutcome is what callers report to the user after an upload.
type MergeOutcome struct {
	Added      int
	Total      int
	FileName   string
	BackupPath string
	Renamed    bool
}

// Service orchestrates parsing and merging per sector. It is the sole writer
// of the canonical ledger files.
type Service struct {
	stores map[Sector]Store
	parser *Parser
}

func NewService(wholesale, retail Store) *Service {
	return &Service{
		stores: map[Sector]Store{
			SectorWholesale: wholesale,
			SectorRetail:    retail,
		},
		parser: NewParser(),
	}
}

func (s *Service) store(sector Sector) (Store, error) {
	st, ok := s.stores[sector]
	if !ok || st == nil {
		return nil, fmt.Errorf("no store for sector %s", sector)
	}

	return st, nil
}

// Load reads and parses the sector's canonical ledger. The table is rebuilt
// from the file on every call; nothing derived is persisted.
func (s *Service) Load(sector Sector) (*Snapshot, error) {
	st, err := s.store(sector)
	if err != nil {
		return nil, err
	}

	raw, err := st.Load()
	if err != nil {
		return nil, fmt.Errorf("load %s ledger: %w", sector, err)
	}

	table, report, err := s.parser.ParseRows(raw.Rows, raw.Charset)
	if err != nil {
		return nil, fmt.Errorf("parse %s ledger: %w", sector, err)
	}

	slog.Debug("ledger parsed",
		"sector", sector,
		"report_id", report.ID,
		"charset", report.Charset,
		"rows", report.TotalRows,
		"kept", report.Kept,
		"dropped_bad_date", report.DroppedBadDate,
		"dropped_no_customer", report.DroppedNoCustomer,
		"dropped_returns", report.DroppedReturns,
		"dropped_non_positive", report.DroppedNonPositive,
	)

	return &Snapshot{
		Sector: sector,
		Path:   raw.Path,
		Table:  table,
		Report: report,
	}, nil
}

// MergeUpload combines a newly uploaded batch with the sector's canonical
// ledger. The existing file is backed up before anything destructive happens;
// a failure at any step leaves the prior canonical file intact. When no
// canonical ledger exists yet the batch becomes the first one.
func (s *Service) MergeUpload(sector Sector, r io.Reader) (*MergeOutcome, error) {
	st, err := s.store(sector)
	if err != nil {
		return nil, err
	}

	batch, _, err := ReadRows(r)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}

	var existing [][]string

	raw, err := st.Load()

	switch {
	case err == nil:
		existing = raw.Rows
	case errors.Is(err, ErrNoLedger):
		existing = nil // first load
	default:
		return nil, fmt.Errorf("load existing %s ledger: %w", sector, err)
	}

	res, err := Merge(existing, batch)
	if err != nil {
		return nil, err
	}

	info, err := st.Replace(res)
	if err != nil {
		return nil, fmt.Errorf("replace %s ledger: %w", sector, err)
	}

	outcome := &MergeOutcome{
		Added:      res.Added,
		Total:      res.Total,
		FileName:   filepath.Base(info.Path),
		BackupPath: info.BackupPath,
		Renamed:    info.Renamed,
	}

	slog.Info("ledger merged",
		"sector", sector,
		"added", outcome.Added,
		"total", outcome.Total,
		"file", outcome.FileName,
		"renamed", outcome.Renamed,
	)

	return outcome, nil
}
