package taxid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"despesify/internal/domain"
	"despesify/internal/taxid"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "123456789", "123456789"},
		{"spaced", " 123 456 789 ", "123456789"},
		{"dotted", "123.456.789", "123456789"},
		{"dashed", "123-456-789", "123456789"},
		{"country prefix", "PT123456789", "123456789"},
		{"lowercase prefix", "pt 123 456 789", "123456789"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := taxid.Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Invalid(t *testing.T) {
	for _, raw := range []string{"", "12345678", "1234567890", "12345678A", "ES123456789"} {
		t.Run(raw, func(t *testing.T) {
			_, err := taxid.Normalize(raw)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.ErrorIs(t, err, domain.ErrInvalidNIF)
		})
	}
}

func TestCleanCompanyName(t *testing.T) {
	assert.Equal(t, "Empresa Exemplo, Lda", taxid.CleanCompanyName("  da   Empresa Exemplo, Lda "))
	assert.Equal(t, "Continente Hipermercados SA", taxid.CleanCompanyName("DOS Continente Hipermercados SA"))
	assert.Equal(t, "Dona Maria Padaria", taxid.CleanCompanyName("Dona Maria Padaria"))
	assert.Equal(t, "", taxid.CleanCompanyName("   "))
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 30, taxid.ParseRetryAfterHeader("30"))
	assert.Equal(t, 0, taxid.ParseRetryAfterHeader(""))
	assert.Equal(t, 0, taxid.ParseRetryAfterHeader("soon"))
}
