package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleStatement() *Statement {
	at := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	return &Statement{
		AccountName:    "Reformas García",
		Email:          "info@reformasgarcia.es",
		Balance:        480,
		PurchasedTotal: 560,
		SpentTotal:     80,
		GeneratedAt:    at,
		Entries: []StatementEntry{
			{At: at.Add(50 * time.Hour), Kind: "claim_refund", Amount: 60, BalanceAfter: 480, Description: "Reembolso"},
			{At: at.Add(time.Hour), Kind: "lead_access", Amount: -80, BalanceAfter: 420, Description: "Baño completo"},
			{At: at, Kind: "plan_floor", Amount: 500, BalanceAfter: 500},
		},
	}
}

func TestStatementDocument(t *testing.T) {
	doc := sampleStatement().Document()

	assert.Len(t, doc.Rows, 3)
	assert.Equal(t, "Reembolso de reclamación", doc.Rows[0][1])
	assert.Equal(t, -80, doc.Rows[1][2])
	assert.Equal(t, "480", doc.Summary[0].Value)
	assert.True(t, doc.NumericColumns[3])
}

func TestExport_XLSX(t *testing.T) {
	file, err := NewService().Export(sampleStatement().Document(), FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", file.Extension)

	wb, err := excelize.OpenReader(bytes.NewReader(file.Content))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Movimientos")
	require.NoError(t, err)
	assert.Equal(t, "Extracto de créditos", rows[0][0])

	var found bool
	for _, row := range rows {
		if len(row) > 1 && row[1] == "Acceso a lead" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestExport_PDF(t *testing.T) {
	file, err := NewService().Export(sampleStatement().Document(), FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF")))
}

func TestExport_UnknownFormat(t *testing.T) {
	_, err := NewService().Export(sampleStatement().Document(), Format("csv"))
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat("pdf")
	assert.True(t, ok)
	assert.Equal(t, FormatPDF, f)

	f, ok = ParseFormat("")
	assert.True(t, ok)
	assert.Equal(t, FormatXLSX, f)

	_, ok = ParseFormat("docx")
	assert.False(t, ok)
}
