package store_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graos-sa/salescore/internal/ledger"
	"github.com/graos-sa/salescore/internal/ledger/store"
)

const header = "Data_Competencia;Hora;Numero_Venda;Numero_NF;Codigo_Cliente;Nome_Cliente;Quantidade;Valor_Unitario;Acrescimo;Desconto;Subtotal;Acessorios;Frete;Seguro;Total_Venda;Percentual_Desc;Total_Preco_Base"

func row(date, sale, customer, net string) string {
	cells := []string{
		date, "10:30", sale, "NF-" + sale, "C01", customer,
		"1,000", "10,00", "0,00", "0,00", net, "0,00", "0,00", "0,00",
		net, "0,00", net,
	}

	return strings.Join(cells, ";")
}

func mergeResult(t *testing.T, lines ...string) *ledger.MergeResult {
	t.Helper()

	rows := make([][]string, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, strings.Split(l, ";"))
	}

	res, err := ledger.Merge(nil, rows)
	require.NoError(t, err)

	return res
}

func writeFile(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func TestStore_LoadNoLedger(t *testing.T) {
	s := store.New(t.TempDir(), "Vendas")

	_, err := s.Load()
	assert.ErrorIs(t, err, ledger.ErrNoLedger)
}

func TestStore_FirstLoad(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir, "Vendas")

	res := mergeResult(t,
		header,
		row("28/07/2025", "1", "ACME", "100,00"),
		row("29/07/2025", "2", "BETA", "200,00"),
	)

	info, err := s.Replace(res)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Vendas até 29-07-2025.txt"), info.Path)
	assert.Empty(t, info.BackupPath)
	assert.False(t, info.Renamed)

	raw, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, info.Path, raw.Path)
	assert.Equal(t, res.Rows, raw.Rows)

	// No backup directory on a first load.
	_, err = os.Stat(filepath.Join(dir, "backups"))
	assert.True(t, os.IsNotExist(err))
}

func TestStore_ReplaceBacksUpAndRenames(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir, "Vendas")

	oldPath := filepath.Join(dir, "Vendas até 28-07-2025.txt")
	writeFile(t, oldPath, header, row("28/07/2025", "1", "ACME", "100,00"))

	res := mergeResult(t,
		header,
		row("28/07/2025", "1", "ACME", "100,00"),
		row("30/07/2025", "2", "BETA", "200,00"),
	)

	info, err := s.Replace(res)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Vendas até 30-07-2025.txt"), info.Path)
	assert.True(t, info.Renamed)

	// The old file is gone, the backup holds its exact content.
	_, err = os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err))

	require.NotEmpty(t, info.BackupPath)
	assert.Equal(t, filepath.Join(dir, "backups"), filepath.Dir(info.BackupPath))
	assert.True(t, strings.HasPrefix(filepath.Base(info.BackupPath), "Vendas até 28-07-2025.txt."))

	backup, err := os.ReadFile(info.BackupPath)
	require.NoError(t, err)
	assert.Contains(t, string(backup), "28/07/2025")
}

func TestStore_ReplaceSameNameKeepsFile(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir, "Vendas")

	path := filepath.Join(dir, "Vendas até 28-07-2025.txt")
	writeFile(t, path, header, row("28/07/2025", "1", "ACME", "100,00"))

	res := mergeResult(t,
		header,
		row("28/07/2025", "1", "ACME", "100,00"),
		row("28/07/2025", "2", "BETA", "200,00"),
	)

	info, err := s.Replace(res)
	require.NoError(t, err)

	assert.Equal(t, path, info.Path)
	assert.False(t, info.Renamed)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "BETA")
}

func TestStore_SkipBackup(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir, "Vendas")
	s.SkipBackup = true

	writeFile(t, filepath.Join(dir, "Vendas até 28-07-2025.txt"),
		header, row("28/07/2025", "1", "ACME", "100,00"))

	res := mergeResult(t,
		header,
		row("29/07/2025", "2", "BETA", "200,00"),
	)

	info, err := s.Replace(res)
	require.NoError(t, err)

	assert.Empty(t, info.BackupPath)

	_, err = os.Stat(filepath.Join(dir, "backups"))
	assert.True(t, os.IsNotExist(err))
}

func TestStore_DateUnresolvableKeepsPriorName(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir, "Vendas")
	s.SkipBackup = true

	path := filepath.Join(dir, "Vendas até 28-07-2025.txt")
	writeFile(t, path, header, row("28/07/2025", "1", "ACME", "100,00"))

	res := mergeResult(t,
		header,
		row("sem-data", "2", "BETA", "200,00"),
	)

	require.False(t, res.DateResolved)

	info, err := s.Replace(res)
	require.NoError(t, err)

	assert.Equal(t, path, info.Path)
	assert.False(t, info.Renamed)
}

func TestStore_DateUnresolvableFirstLoad(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir, "Vendas")

	res := mergeResult(t,
		header,
		row("sem-data", "1", "ACME", "100,00"),
	)

	info, err := s.Replace(res)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Vendas.txt"), info.Path)
}

func TestStore_CurrentPicksNewest(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir, "Vendas")

	older := filepath.Join(dir, "Vendas até 01-07-2025.txt")
	newer := filepath.Join(dir, "Vendas até 28-07-2025.txt")
	writeFile(t, older, header)
	writeFile(t, newer, header)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	cur, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, newer, cur)
}
