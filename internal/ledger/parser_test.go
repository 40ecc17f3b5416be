package ledger_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graos-sa/salescore/internal/encoding"
	"github.com/graos-sa/salescore/internal/ledger"
)

const header = "Data_Competencia;Hora;Numero_Venda;Numero_NF;Codigo_Cliente;Nome_Cliente;Quantidade;Valor_Unitario;Acrescimo;Desconto;Subtotal;Acessorios;Frete;Seguro;Total_Venda;Percentual_Desc;Total_Preco_Base"

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// row builds a 17-column data line with sane defaults.
func row(date, sale, customer, net string) string {
	cells := []string{
		date, "10:30", sale, "NF-" + sale, "C01", customer,
		"1,000", "10,00", "0,00", "0,00", net, "0,00", "0,00", "0,00",
		net, "0,00", net,
	}

	return strings.Join(cells, ";")
}

func parseFixture(t *testing.T, lines ...string) (*ledger.Table, *ledger.Report) {
	t.Helper()

	p := ledger.NewParser()

	table, report, err := p.Parse(strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)

	return table, report
}

func TestParser_Parse(t *testing.T) {
	table, report := parseFixture(t,
		header,
		"28/07/2025;14:02;1001;NF-1001;C07;ACME GRAOS LTDA;2,500;493,82;0,00;10,00;1.234,56;0,00;50,00;0,00;1.234,56;0,81;1.244,56",
		row("29/07/2025", "1002", "JOAO DA SILVA", "50,00"),
	)

	require.Len(t, table.Transactions, 2)
	assert.Equal(t, 2, report.Kept)
	assert.Equal(t, 2, report.TotalRows)
	assert.NotEmpty(t, report.ID)

	tx := table.Transactions[0]
	assert.Equal(t, date(2025, 7, 28), tx.Date)
	assert.Equal(t, "28/07/2025", tx.RawDate)
	assert.Equal(t, "14:02", tx.SaleTime)
	assert.Equal(t, "1001", tx.SaleNumber)
	assert.Equal(t, "NF-1001", tx.InvoiceNumber)
	assert.Equal(t, "C07", tx.CustomerCode)
	assert.Equal(t, "ACME GRAOS LTDA", tx.CustomerName)
	assert.Equal(t, int64(123456), tx.NetCents)
	assert.Equal(t, 2025, tx.Year)
	assert.Equal(t, time.July, tx.Month)
	assert.Equal(t, "July", tx.MonthName)

	require.NotNil(t, tx.Quantity)
	assert.InDelta(t, 2.5, *tx.Quantity, 1e-9)
	require.NotNil(t, tx.UnitCents)
	assert.Equal(t, int64(49382), *tx.UnitCents)
	require.NotNil(t, tx.FreightCents)
	assert.Equal(t, int64(5000), *tx.FreightCents)
	require.NotNil(t, tx.BaseCents)
	assert.Equal(t, int64(124456), *tx.BaseCents)
}

func TestParser_FilteringInvariant(t *testing.T) {
	table, report := parseFixture(t,
		header,
		row("28/07/2025", "1", "ACME", "100,00"),
		"too;short;row",
		row("not-a-date", "2", "ACME", "100,00"),
		row("28/07/2025", "3", "", "100,00"),
		row("28/07/2025", "4", "DEVOLUCAO DE VENDA", "100,00"),
		row("28/07/2025", "5", "CLIENTE DEVOLUCAO LTDA", "100,00"),
		row("28/07/2025", "6", "ACME", "0,00"),
		row("28/07/2025", "7", "ACME", "-588,74"),
		row("28/07/2025", "8", "ACME", "abc"),
	)

	// Every surviving row satisfies the filter contract.
	for _, tx := range table.Transactions {
		assert.False(t, tx.Date.IsZero())
		assert.NotEmpty(t, tx.CustomerName)
		assert.NotContains(t, tx.CustomerName, ledger.ReturnMarker)
		assert.Positive(t, tx.NetCents)
	}

	assert.Equal(t, 9, report.TotalRows)
	assert.Equal(t, 1, report.DroppedShort)
	assert.Equal(t, 1, report.DroppedBadDate)
	assert.Equal(t, 1, report.DroppedNoCustomer)
	assert.Equal(t, 2, report.DroppedReturns)
	assert.Equal(t, 3, report.DroppedNonPositive)
	assert.Equal(t, 1, report.Kept)
}

func TestParser_ReturnMarkerIsCaseSensitive(t *testing.T) {
	table, _ := parseFixture(t,
		header,
		row("28/07/2025", "1", "Devolucao Comercio", "100,00"),
	)

	// Only the exact uppercase marker flags a return.
	require.Len(t, table.Transactions, 1)
}

func TestParser_ExtraColumnsRetained(t *testing.T) {
	table, _ := parseFixture(t,
		header+";Vendedor;Observacao",
		row("28/07/2025", "1", "ACME", "100,00")+";Maria;entrega urgente",
	)

	require.Len(t, table.Transactions, 1)
	assert.Equal(t, []string{"Maria", "entrega urgente"}, table.Transactions[0].Extras)
}

func TestParser_ShortRowsStillParseWithoutOptionalColumns(t *testing.T) {
	// 15 columns is the minimum: net total present, discount pct and base
	// price missing.
	line := "28/07/2025;09:00;1;NF-1;C01;ACME;1,000;100,00;0,00;0,00;100,00;0,00;0,00;0,00;100,00"

	table, _ := parseFixture(t, header, line)

	require.Len(t, table.Transactions, 1)
	tx := table.Transactions[0]
	assert.Equal(t, int64(10000), tx.NetCents)
	assert.Nil(t, tx.DiscountPct)
	assert.Nil(t, tx.BaseCents)
}

func TestParser_MalformedHeader(t *testing.T) {
	p := ledger.NewParser()

	_, _, err := p.Parse(strings.NewReader("a;b;c\n1;2;3\n"))

	var malformed *ledger.MalformedLedgerError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 3, malformed.Columns)
}

func TestParser_EmptyInput(t *testing.T) {
	p := ledger.NewParser()

	_, _, err := p.Parse(strings.NewReader(""))

	var malformed *ledger.MalformedLedgerError
	require.ErrorAs(t, err, &malformed)
}

func TestReadRows_CharsetSurfaces(t *testing.T) {
	rows, cs, err := ledger.ReadRows(strings.NewReader(header + "\n" + row("28/07/2025", "1", "ACME", "100,00")))
	require.NoError(t, err)

	assert.Equal(t, encoding.CharsetUTF8, cs)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 17)
}

func TestTable_MaxDate(t *testing.T) {
	table, _ := parseFixture(t,
		header,
		row("28/07/2025", "1", "ACME", "100,00"),
		row("02/08/2025", "2", "ACME", "100,00"),
		row("15/07/2025", "3", "ACME", "100,00"),
	)

	max, ok := table.MaxDate()
	require.True(t, ok)
	assert.Equal(t, date(2025, 8, 2), max)

	empty := &ledger.Table{}
	_, ok = empty.MaxDate()
	assert.False(t, ok)
}
