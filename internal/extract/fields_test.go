package extract_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"despesify/internal/extract"
)

var fixedNow = time.Date(2025, 1, 20, 10, 30, 0, 0, time.UTC)

func TestFromText_Receipt(t *testing.T) {
	text := "SUPERMERCADO ABC\nTotal: 45,67€\nIVA 23%\n12/06/2024"

	got := extract.FromText(text, fixedNow).Response()

	assert.Equal(t, "45.67", got.Amount)
	assert.Equal(t, "23", got.VAT)
	assert.Equal(t, "2024-06-12", got.Date)
	assert.Equal(t, "SUPERMERCADO ABC", got.Merchant)
	assert.Equal(t, "SUPERMERCADO ABC", got.Description)
	assert.False(t, got.DateDefaulted)
}

func TestFromText_AmountForms(t *testing.T) {
	for _, text := range []string{"€12,34", "12.34€", "$12.34", "Total: 12,34", "TOTAL EUR 12,34", "12,34 EUR"} {
		t.Run(text, func(t *testing.T) {
			got := extract.FromText(text, fixedNow)
			require.NotNil(t, got.Amount)
			assert.Equal(t, "12.34", got.Amount.StringFixed(2))
		})
	}
}

func TestFromText_ImplausibleAmountsAreDropped(t *testing.T) {
	for _, text := range []string{"Total: 0,00", "Total: 999999,99", "€999999.99"} {
		t.Run(text, func(t *testing.T) {
			got := extract.FromText(text, fixedNow)
			assert.Nil(t, got.Amount)
			assert.Empty(t, got.Response().Amount)
		})
	}
}

func TestFromText_RejectedTotalFallsBackToCurrencyFigure(t *testing.T) {
	got := extract.FromText("Total: 0,00\nPago 12,50 €", fixedNow)

	require.NotNil(t, got.Amount)
	assert.Equal(t, "12.50", got.Amount.StringFixed(2))
}

func TestFromText_SubtotalAndNearbyKeyword(t *testing.T) {
	got := extract.FromText("Sub-total 8,40\nobrigado", fixedNow)
	require.NotNil(t, got.Amount)
	assert.Equal(t, "8.40", got.Amount.StringFixed(2))

	got = extract.FromText("Pagamento 19,99 valor liquidado", fixedNow)
	require.NotNil(t, got.Amount)
	assert.Equal(t, "19.99", got.Amount.StringFixed(2))
}

func TestFromText_VAT(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"IVA: 23%", "23"},
		{"23% IVA", "23"},
		{"VAT 6%", "6"},
		{"Taxa 13,00 %", "13"},
		{"desconto 10%\ntaxa normal 23%", "23"},
		{"IVA 150%", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := extract.FromText(tt.text, fixedNow).Response()
			assert.Equal(t, tt.want, got.VAT)
		})
	}
}

func TestFromText_Dates(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"15/03/2024", "2024-03-15"},
		{"15-03-2024", "2024-03-15"},
		{"2024-03-15", "2024-03-15"},
		{"2024/03/15", "2024-03-15"},
		{"Emitido a 15 de Março de 2024", "2024-03-15"},
		{"3 fev 2025", "2025-02-03"},
		{"Data: 05.01.24", "2024-01-05"},
		{"31/02/2024\nData: 01/03/24", "2024-03-01"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := extract.FromText(tt.text, fixedNow)
			assert.Equal(t, tt.want, got.Date)
			assert.False(t, got.DateDefaulted)
		})
	}
}

func TestFromText_NoDateDefaultsToNow(t *testing.T) {
	got := extract.FromText("Café Central\nTotal 3,20€", fixedNow)

	assert.Equal(t, "2025-01-20", got.Date)
	assert.True(t, got.DateDefaulted)
}

func TestFromText_Merchant(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"inline label", "Fatura simplificada\nLoja: Pingo Doce\nTotal 3,20", "Pingo Doce"},
		{"label then next line", "Empresa\nContinente Hipermercados\nTotal 3,20", "Continente Hipermercados"},
		{"label on last line", "obrigado pela visita\nLoja Online Porto", "Loja Online Porto"},
		{"uppercase line", "obrigado pela visita\nCAFÉ CENTRAL LDA\nTotal 3,20", "CAFÉ CENTRAL LDA"},
		{"first line fallback", "recibo de compra\nobrigado", "recibo de compra"},
		{"short lines skipped", "ok\nPADARIA SOL\n", "PADARIA SOL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extract.FromText(tt.text, fixedNow)
			assert.Equal(t, tt.want, got.Merchant)
		})
	}
}

func TestFromText_EmptyText(t *testing.T) {
	got := extract.FromText("  \r\n\t ", fixedNow).Response()

	assert.Empty(t, got.Amount)
	assert.Empty(t, got.VAT)
	assert.Empty(t, got.Merchant)
	assert.Empty(t, got.Description)
	assert.Equal(t, "2025-01-20", got.Date)
	assert.True(t, got.DateDefaulted)
}

func TestNormalizeText(t *testing.T) {
	got := extract.NormalizeText("  LOJA\t\tX \r\n\r\n\r\n\r\nTotal   3,20  ")
	assert.Equal(t, "LOJA X\n\nTotal 3,20", got)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "marco", extract.Fold("Março"))
	assert.Equal(t, "sao joao", extract.Fold("SÃO JOÃO"))
}
