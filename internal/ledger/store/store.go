// Package store keeps one sector's canonical ledger as a flat file on disk.
// The file is never mutated in place: a merge writes a new file and the prior
// one is preserved as a timestamped backup.
package store

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/graos-sa/salescore/internal/ledger"
)

const backupDirName = "backups"

type Store struct {
	dir    string
	prefix string

	// SkipBackup disables the pre-replace backup copy. Meant for tests and
	// throwaway data sets; with backups on, a replace is never destructive
	// without a recoverable prior copy.
	SkipBackup bool
}

func New(dir, prefix string) *Store {
	return &Store{dir: dir, prefix: prefix}
}

// Current locates the canonical ledger file for this store's prefix.
// When several candidates exist (e.g. a manual copy), the most recently
// modified one wins.
func (s *Store) Current() (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, s.prefix+"*.txt"))
	if err != nil {
		return "", fmt.Errorf("glob ledger files: %w", err)
	}

	if len(matches) == 0 {
		return "", ledger.ErrNoLedger
	}

	current := matches[0]

	var currentMod time.Time

	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil {
			continue
		}

		if fi.ModTime().After(currentMod) {
			current = m
			currentMod = fi.ModTime()
		}
	}

	return current, nil
}

// Load reads and decodes the current canonical file into raw rows.
func (s *Store) Load() (*ledger.RawLedger, error) {
	cur, err := s.Current()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(cur)
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	rows, cs, err := ledger.ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", cur, err)
	}

	return &ledger.RawLedger{Path: cur, Rows: rows, Charset: cs}, nil
}

// Replace installs a merged table as the new canonical file.
//
// Order matters: the current file is backed up (and the backup verified)
// before anything destructive happens, the new content goes to a temp file
// that is renamed into place, and only then is an old file under a different
// name removed. An interruption at any point leaves either the old file or a
// complete new file on disk, never neither.
func (s *Store) Replace(res *ledger.MergeResult) (ledger.ReplaceInfo, error) {
	var info ledger.ReplaceInfo

	cur, err := s.Current()
	firstLoad := errors.Is(err, ledger.ErrNoLedger)

	if err != nil && !firstLoad {
		return info, err
	}

	name := s.fileName(res, cur, firstLoad)

	if !firstLoad && !s.SkipBackup {
		backupPath, err := s.backup(cur)
		if err != nil {
			return info, fmt.Errorf("backup before merge: %w", err)
		}

		info.BackupPath = backupPath
	}

	path := filepath.Join(s.dir, name)

	if err := s.writeRows(path, res.Rows); err != nil {
		return info, err
	}

	info.Path = path

	if !firstLoad && path != cur {
		info.Renamed = true

		if err := os.Remove(cur); err != nil {
			return info, fmt.Errorf("remove old ledger file: %w", err)
		}
	}

	return info, nil
}

// fileName derives the output name from the merge result, falling back to the
// prior name (or a bare prefix on a first load) when no date resolved.
func (s *Store) fileName(res *ledger.MergeResult, cur string, firstLoad bool) string {
	if res.DateResolved {
		return ledger.FileName(s.prefix, res.MaxDate)
	}

	slog.Warn("keeping prior ledger file name", "prefix", s.prefix, "reason", ledger.ErrDateUnresolvable)

	if firstLoad {
		return s.prefix + ".txt"
	}

	return filepath.Base(cur)
}

// backup copies the current canonical file into the backups directory with a
// timestamp suffix and verifies the copy is complete.
func (s *Store) backup(cur string) (string, error) {
	dir := filepath.Join(s.dir, backupDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	stamp := time.Now().Format("20060102-150405.000")
	dst := filepath.Join(dir, fmt.Sprintf("%s.%s", filepath.Base(cur), stamp))

	src, err := os.Open(cur)
	if err != nil {
		return "", fmt.Errorf("open current file: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}

	written, err := io.Copy(out, src)
	if err != nil {
		out.Close()
		return "", fmt.Errorf("copy to backup: %w", err)
	}

	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close backup file: %w", err)
	}

	fi, err := os.Stat(cur)
	if err != nil {
		return "", fmt.Errorf("stat current file: %w", err)
	}

	if written != fi.Size() {
		return "", fmt.Errorf("backup incomplete: copied %d of %d bytes", written, fi.Size())
	}

	return dst, nil
}

// writeRows writes raw rows semicolon-joined, preserving each cell byte for
// byte, then renames the temp file into place.
func (s *Store) writeRows(path string, rows [][]string) error {
	tmp, err := os.CreateTemp(s.dir, ".ledger-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()

	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(strings.Join(row, ";"))
		sb.WriteByte('\n')
	}

	if _, err := tmp.WriteString(sb.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("write merged ledger: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close merged ledger: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("install merged ledger: %w", err)
	}

	return nil
}
