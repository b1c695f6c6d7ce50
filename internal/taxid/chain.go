package taxid

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"despesify/internal/domain"
	"despesify/internal/logger"
	"despesify/internal/port"
)

// circuitState tracks rate-limit backoff for a single provider.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// Chain tries providers in priority order, skipping those with open circuits.
// The first non-empty name wins. It implements port.NIFLookup.
type Chain struct {
	providers []port.NIFProvider
	circuits  []*circuitState
	log       zerolog.Logger
	now       func() time.Time
}

// NewChain creates a Chain from an ordered list of providers.
func NewChain(providers ...port.NIFProvider) *Chain {
	circuits := make([]*circuitState, len(providers))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &Chain{
		providers: providers,
		circuits:  circuits,
		log:       logger.WithComponent("taxid.chain"),
		now:       time.Now,
	}
}

// Names returns the provider names in priority order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Lookup resolves nif to a cleaned company name and the name of the provider
// that answered. When every provider misses it returns domain.ErrNIFNotFound;
// when any provider failed for another reason the failure wins.
func (c *Chain) Lookup(ctx context.Context, nif string) (string, string, error) {
	if len(c.providers) == 0 {
		return "", "", NewProviderError("taxid", errors.New("no NIF providers configured"))
	}

	now := c.now()
	var lastErr error

	for i, p := range c.providers {
		if resetAt, open := c.circuits[i].isOpenWithReset(now); open {
			c.log.Debug().Str("provider", p.Name()).Time("reset_at", resetAt).Msg("skipping provider, circuit open")
			lastErr = NewRateLimitError(p.Name(), errors.New("circuit open"), int(resetAt.Sub(now).Seconds()))
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", "", NewProviderError(p.Name(), err)
		}

		name, err := p.LookupName(ctx, nif)
		if err == nil {
			if name = CleanCompanyName(name); name != "" {
				return name, p.Name(), nil
			}
			err = domain.ErrNIFNotFound
		}

		if errors.Is(err, domain.ErrNIFNotFound) {
			c.log.Debug().Str("provider", p.Name()).Str("nif", nif).Msg("not found")
			continue
		}

		c.log.Warn().Err(err).Str("provider", p.Name()).Str("nif", nif).Msg("lookup failed")
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			c.circuits[i].open(now.Add(rlErr.RetryAfter))
		}
	}

	if lastErr == nil {
		return "", "", domain.ErrNIFNotFound
	}
	if !errors.Is(lastErr, domain.ErrLookupConfiguration) {
		lastErr = NewProviderError("taxid", lastErr)
	}
	return "", "", fmt.Errorf("all NIF providers failed: %w", lastErr)
}
