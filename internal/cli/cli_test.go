package cli_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"despesify/internal/cli"
	"despesify/internal/config"
	"despesify/internal/domain"
	"despesify/internal/service"
)

const qrPayload = "A:123456789*B:999999990*C:PT*D:FT*E:N*F:20240315*G:FT A/123*H:JFBX4K2P-123" +
	"*I1:PT*I2:100.00*I3:6.00*I4:RED*I1:PT*I2:50.00*I3:11.50*I4:NOR*Q:ab1C*R:2345"

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExtractText_FromStdin(t *testing.T) {
	out, err := run(t, "RESTAURANTE O PORTO\nData: 02/05/2024\nTotal: 23,40€\nIVA 13%", "extract", "text", "-")
	require.NoError(t, err)

	var got domain.OCRData
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "23.40", got.Amount)
	assert.Equal(t, "2024-05-02", got.Date)
	assert.Equal(t, "13", got.VAT)
}

func TestQRParse(t *testing.T) {
	out, err := run(t, "", "qr", "parse", qrPayload)
	require.NoError(t, err)

	var got service.QRExtraction
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "123456789", got.Record.IssuerNIF)
	assert.Equal(t, "167.50", got.Draft.Amount.StringFixed(2))
	assert.Equal(t, "Fatura FT A/123", got.Draft.Description)
}

func TestQRParse_NetPolicyFromEnv(t *testing.T) {
	t.Setenv("DESPESIFY_QR_AMOUNT_POLICY", "net")

	out, err := run(t, qrPayload, "qr", "parse", "-")
	require.NoError(t, err)

	var got service.QRExtraction
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "150.00", got.Draft.Amount.StringFixed(2))
}

func TestQRParse_Malformed(t *testing.T) {
	_, err := run(t, "", "qr", "parse", "A:123456789*F:20240101")
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
}

func TestQRRender_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qr.png")

	_, err := run(t, "", "qr", "render", qrPayload, "-o", path, "--size", "128")
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("\x89PNG")))
}

func TestNIFLookup_CachesProviderResult(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "503504564", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"result":"success","records":{"503504564":{"title":"Empresa Exemplo, Lda"}}}`))
	}))
	defer srv.Close()

	t.Setenv("DESPESIFY_DB_DRIVER", "sqlite")
	t.Setenv("DESPESIFY_DB_SQLITE_PATH", filepath.Join(t.TempDir(), "cache.db"))
	t.Setenv("DESPESIFY_NIF_PROVIDERS", "nifpt")
	t.Setenv("DESPESIFY_NIF_API_KEY", "test-key")
	t.Setenv("DESPESIFY_NIF_BASE_URL", srv.URL+"/")

	out, err := run(t, "", "nif", "lookup", "PT503504564")
	require.NoError(t, err)
	var first domain.NIFResolution
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	assert.Equal(t, "Empresa Exemplo, Lda", first.CompanyName)
	assert.Equal(t, "nif.pt", first.Source)

	out, err = run(t, "", "nif", "lookup", "503 504 564")
	require.NoError(t, err)
	var second domain.NIFResolution
	require.NoError(t, json.Unmarshal([]byte(out), &second))
	assert.Equal(t, domain.SourceCache, second.Source)
	assert.Equal(t, int32(1), calls.Load())

	out, err = run(t, "", "nif", "export")
	require.NoError(t, err)
	assert.Contains(t, out, `503504564,"Empresa Exemplo, Lda"`)
}

func TestNIFCorrect_ThenLookupUsesCorrection(t *testing.T) {
	t.Setenv("DESPESIFY_DB_DRIVER", "sqlite")
	t.Setenv("DESPESIFY_DB_SQLITE_PATH", filepath.Join(t.TempDir(), "cache.db"))
	t.Setenv("DESPESIFY_NIF_PROVIDERS", "nifpt")

	_, err := run(t, "", "nif", "correct", "503504564", "Empresa Corrigida", "--category", "4")
	require.NoError(t, err)

	out, err := run(t, "", "nif", "lookup", "503504564")
	require.NoError(t, err)
	var res domain.NIFResolution
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Empresa Corrigida", res.CompanyName)
	require.NotNil(t, res.CategoryID)
	assert.Equal(t, int64(4), *res.CategoryID)
}

func TestNIFLookup_NoCacheMisconfigured(t *testing.T) {
	t.Setenv("DESPESIFY_NIF_PROVIDERS", "nifpt")
	t.Setenv("DESPESIFY_NIF_API_KEY", "")

	_, err := run(t, "", "nif", "lookup", "503504564", "--no-cache")
	assert.ErrorIs(t, err, domain.ErrLookupConfiguration)
}

func TestToken(t *testing.T) {
	t.Setenv("DESPESIFY_AUTH_JWT_SECRET", "s3cret")

	out, err := run(t, "", "token", "--email", "ana@example.pt")
	require.NoError(t, err)

	claims, err := service.NewAuthService(config.AuthConfig{JWTSecret: "s3cret"}).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ana@example.pt", claims.Email)
}

func TestLogLevel_Precedence(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	tests := []struct {
		name string
		env  string
		args []string
		want zerolog.Level
	}{
		{"quiet by default", "", nil, zerolog.WarnLevel},
		{"environment", "error", nil, zerolog.ErrorLevel},
		{"flag over environment", "error", []string{"--log-level", "debug"}, zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DESPESIFY_LOG_LEVEL", tt.env)
			if tt.env == "" {
				require.NoError(t, os.Unsetenv("DESPESIFY_LOG_LEVEL"))
			}
			args := append([]string{"qr", "parse", qrPayload}, tt.args...)
			_, err := run(t, "", args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}
