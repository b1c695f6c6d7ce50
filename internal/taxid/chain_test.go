package taxid_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"despesify/internal/config"
	"despesify/internal/domain"
	"despesify/internal/port"
	"despesify/internal/taxid"
	"despesify/mocks"
)

const nif = "503504564"

func provider(name string) *mocks.MockNIFProvider {
	return &mocks.MockNIFProvider{ProviderName: name}
}

func TestChain_FirstSucceeds(t *testing.T) {
	p1, p2 := provider("nif.pt"), provider("scraped")
	p1.On("LookupName", mock.Anything, nif).Return("da Empresa Exemplo Lda", nil)

	name, source, err := taxid.NewChain(p1, p2).Lookup(context.Background(), nif)

	require.NoError(t, err)
	assert.Equal(t, "Empresa Exemplo Lda", name)
	assert.Equal(t, "nif.pt", source)
	p2.AssertNotCalled(t, "LookupName", mock.Anything, mock.Anything)
}

func TestChain_NotFoundFallsThrough(t *testing.T) {
	p1, p2 := provider("nif.pt"), provider("scraped")
	p1.On("LookupName", mock.Anything, nif).Return("", domain.ErrNIFNotFound)
	p2.On("LookupName", mock.Anything, nif).Return("Empresa Exemplo", nil)

	name, source, err := taxid.NewChain(p1, p2).Lookup(context.Background(), nif)

	require.NoError(t, err)
	assert.Equal(t, "Empresa Exemplo", name)
	assert.Equal(t, "scraped", source)
}

func TestChain_BlankNameCountsAsMiss(t *testing.T) {
	p1 := provider("nif.pt")
	p1.On("LookupName", mock.Anything, nif).Return("  ", nil)

	_, _, err := taxid.NewChain(p1).Lookup(context.Background(), nif)

	assert.ErrorIs(t, err, domain.ErrNIFNotFound)
}

func TestChain_AllNotFound(t *testing.T) {
	p1, p2 := provider("nif.pt"), provider("scraped")
	p1.On("LookupName", mock.Anything, nif).Return("", domain.ErrNIFNotFound)
	p2.On("LookupName", mock.Anything, nif).Return("", domain.ErrNIFNotFound)

	_, _, err := taxid.NewChain(p1, p2).Lookup(context.Background(), nif)

	assert.ErrorIs(t, err, domain.ErrNIFNotFound)
	assert.NotErrorIs(t, err, domain.ErrLookupConfiguration)
}

func TestChain_MisconfiguredWinsOverNotFound(t *testing.T) {
	p1, p2 := provider("nif.pt"), provider("scraped")
	p1.On("LookupName", mock.Anything, nif).Return("", taxid.NewProviderError("nif.pt", errors.New("API key is not configured")))
	p2.On("LookupName", mock.Anything, nif).Return("", domain.ErrNIFNotFound)

	_, _, err := taxid.NewChain(p1, p2).Lookup(context.Background(), nif)

	assert.ErrorIs(t, err, domain.ErrLookupConfiguration)
	var pe *taxid.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "nif.pt", pe.Provider)
}

func TestChain_UntypedFailureBecomesConfigurationError(t *testing.T) {
	p1 := provider("nif.pt")
	p1.On("LookupName", mock.Anything, nif).Return("", errors.New("boom"))

	_, _, err := taxid.NewChain(p1).Lookup(context.Background(), nif)

	assert.ErrorIs(t, err, domain.ErrLookupConfiguration)
	assert.Contains(t, err.Error(), "boom")
}

func TestChain_RateLimitedProviderIsSkippedNextTime(t *testing.T) {
	p1, p2 := provider("nif.pt"), provider("scraped")
	p1.On("LookupName", mock.Anything, nif).Return("", taxid.NewRateLimitError("nif.pt", errors.New("429"), 60)).Once()
	p2.On("LookupName", mock.Anything, nif).Return("Empresa Exemplo", nil)

	chain := taxid.NewChain(p1, p2)
	for i := 0; i < 2; i++ {
		name, source, err := chain.Lookup(context.Background(), nif)
		require.NoError(t, err)
		assert.Equal(t, "Empresa Exemplo", name)
		assert.Equal(t, "scraped", source)
	}
	p1.AssertNumberOfCalls(t, "LookupName", 1)
}

func TestChain_AllRateLimited(t *testing.T) {
	p1 := provider("nif.pt")
	p1.On("LookupName", mock.Anything, nif).Return("", taxid.NewRateLimitError("nif.pt", errors.New("429"), 60)).Once()

	chain := taxid.NewChain(p1)
	_, _, err := chain.Lookup(context.Background(), nif)
	require.Error(t, err)

	_, _, err = chain.Lookup(context.Background(), nif)
	var rl *taxid.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.ErrorIs(t, err, domain.ErrLookupConfiguration)
	p1.AssertNumberOfCalls(t, "LookupName", 1)
}

func TestChain_NoProviders(t *testing.T) {
	_, _, err := taxid.NewChain().Lookup(context.Background(), nif)
	assert.ErrorIs(t, err, domain.ErrLookupConfiguration)
}

func TestChain_CanceledContext(t *testing.T) {
	p1 := provider("nif.pt")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := taxid.NewChain(p1).Lookup(ctx, nif)

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, domain.ErrLookupConfiguration)
	p1.AssertNotCalled(t, "LookupName", mock.Anything, mock.Anything)
}

func TestRegistry_RegisterAndBuildChain(t *testing.T) {
	taxid.RegisterProvider("test-provider", func(cfg *config.NIFConfig) (port.NIFProvider, error) {
		return provider("test:" + cfg.BaseURL), nil
	})

	chain, err := taxid.NewChainFromConfig(&config.NIFConfig{
		Providers: []string{"test-provider"},
		BaseURL:   "http://example.invalid",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"test:http://example.invalid"}, chain.Names())
}

func TestRegistry_UnknownProvider(t *testing.T) {
	_, err := taxid.NewChainFromConfig(&config.NIFConfig{Providers: []string{"nonexistent-provider-xyz"}})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown NIF provider")
}
