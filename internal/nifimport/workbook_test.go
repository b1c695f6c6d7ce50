package nifimport_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"despesify/internal/nifimport"
)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadWorkbook(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"NIF", "Empresa", "Categoria"},
		{"PT 503 504 564", "  da  Empresa Exemplo ", "3"},
		{"123", "Curto", ""},
		{"", "", ""},
		{"500000000", "", ""},
		{"500100144", "Outra", "abc"},
		{"503504564", "Empresa Corrigida", ""},
		{"500100144", "Outra Lda", ""},
	})

	res, err := nifimport.ReadWorkbook(buf)
	require.NoError(t, err)

	require.Len(t, res.Entries, 2)
	assert.Equal(t, "503504564", res.Entries[0].NIF)
	assert.Equal(t, "Empresa Corrigida", res.Entries[0].CompanyName)
	assert.Nil(t, res.Entries[0].CategoryID)
	assert.Equal(t, "500100144", res.Entries[1].NIF)
	assert.Equal(t, "Outra Lda", res.Entries[1].CompanyName)

	require.Len(t, res.Skipped, 3)
	assert.Equal(t, 3, res.Skipped[0].Row)
	assert.Contains(t, res.Skipped[1].Error(), "company name is empty")
	assert.Contains(t, res.Skipped[2].Reason, "category")
}

func TestReadWorkbook_CategoryParsed(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"NIF", "Empresa", "Categoria"},
		{"503504564", "Empresa Exemplo", 4},
	})

	res, err := nifimport.ReadWorkbook(buf)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	require.NotNil(t, res.Entries[0].CategoryID)
	assert.Equal(t, int64(4), *res.Entries[0].CategoryID)
}

func TestReadWorkbook_NotAWorkbook(t *testing.T) {
	_, err := nifimport.ReadWorkbook(bytes.NewBufferString("nif,name\n"))
	assert.Error(t, err)
}
