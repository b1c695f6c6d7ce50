package csvexport

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"despesify/internal/domain"
)

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	row, err := csv.NewReader(&buf).Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"NIF", "Company Name", "Category ID", "Created At", "Updated At"}, row)
}

func TestWriteEntries(t *testing.T) {
	cat := int64(4)
	created := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	entries := []domain.NIFCacheEntry{
		{NIF: "503504564", CompanyName: "Empresa, Exemplo Lda", CategoryID: &cat, CreatedAt: created, UpdatedAt: created},
		{NIF: "999999990", CompanyName: "=HYPERLINK(\"x\")"},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteEntries(entries))
	w.Flush()
	require.NoError(t, w.Error())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"503504564", "Empresa, Exemplo Lda", "4", "2024-03-15T10:00:00Z", "2024-03-15T10:00:00Z"}, rows[0])
	assert.Equal(t, []string{"999999990", "'=HYPERLINK(\"x\")", "", "", ""}, rows[1])
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"nif cache", "nif_cache"},
		{"  Cache / 2024!! ", "Cache_2024"},
		{"already_clean-name", "already_clean-name"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in))
	}
}

func TestBuildFilename(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "nif_cache_2024-06-01.csv", BuildFilename("nif cache", now))
}
