// Package nifpt resolves NIFs through the nif.pt JSON API.
package nifpt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"despesify/internal/config"
	"despesify/internal/domain"
	"despesify/internal/port"
	"despesify/internal/taxid"
)

// Name is reported as the resolution source.
const Name = "nif.pt"

const (
	defaultBaseURL   = "https://www.nif.pt/"
	defaultUserAgent = "Despesify/1.0"
	maxBodyBytes     = 1 << 20
)

func init() {
	taxid.RegisterProvider("nifpt", func(cfg *config.NIFConfig) (port.NIFProvider, error) {
		return NewProvider(cfg), nil
	})
}

// Provider implements port.NIFProvider against nif.pt.
type Provider struct {
	apiKey    string
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewProvider creates a Provider from the lookup config.
func NewProvider(cfg *config.NIFConfig) *Provider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return NewProviderWithClient(cfg.APIKey, cfg.BaseURL, cfg.UserAgent, &http.Client{Timeout: timeout})
}

// NewProviderWithClient creates a Provider with a custom endpoint and client (useful for testing).
func NewProviderWithClient(apiKey, baseURL, userAgent string, client *http.Client) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Provider{apiKey: apiKey, baseURL: baseURL, userAgent: userAgent, client: client}
}

func (p *Provider) Name() string { return Name }

type apiResponse struct {
	Result  string          `json:"result"`
	Message string          `json:"message"`
	Records json.RawMessage `json:"records"`
}

type apiRecord struct {
	Title string `json:"title"`
}

// LookupName queries nif.pt for nif. A missing key fails before any request.
func (p *Provider) LookupName(ctx context.Context, nif string) (string, error) {
	if p.apiKey == "" {
		return "", taxid.NewProviderError(Name, errors.New("API key is not configured"))
	}

	u, err := url.Parse(p.baseURL)
	if err != nil {
		return "", taxid.NewProviderError(Name, fmt.Errorf("invalid base URL: %w", err))
	}
	q := u.Query()
	q.Set("json", "1")
	q.Set("q", nif)
	q.Set("key", p.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return "", taxid.NewProviderError(Name, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		// url.Error carries the full URL, which includes the key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return "", taxid.NewProviderError(Name, fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", taxid.NewProviderError(Name, fmt.Errorf("API key rejected (status %d)", resp.StatusCode))
	case http.StatusNotFound:
		return "", domain.ErrNIFNotFound
	case http.StatusTooManyRequests:
		retryAfter := taxid.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
		return "", taxid.NewRateLimitError(Name, fmt.Errorf("status %d", resp.StatusCode), retryAfter)
	default:
		return "", taxid.NewProviderError(Name, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", taxid.NewProviderError(Name, fmt.Errorf("reading response: %w", err))
	}

	var out apiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", taxid.NewProviderError(Name, fmt.Errorf("decoding response: %w", err))
	}

	if out.Result == "error" {
		msg := strings.ToLower(out.Message)
		switch {
		case strings.Contains(msg, "key"):
			return "", taxid.NewProviderError(Name, fmt.Errorf("API error: %s", out.Message))
		case strings.Contains(msg, "limit"):
			return "", taxid.NewRateLimitError(Name, fmt.Errorf("API error: %s", out.Message), 0)
		default:
			return "", domain.ErrNIFNotFound
		}
	}

	// nif.pt returns an empty array instead of an object when nothing matched.
	records := strings.TrimSpace(string(out.Records))
	if records == "" || records == "null" || strings.HasPrefix(records, "[") {
		return "", domain.ErrNIFNotFound
	}

	var byNIF map[string]apiRecord
	if err := json.Unmarshal(out.Records, &byNIF); err != nil {
		return "", taxid.NewProviderError(Name, fmt.Errorf("decoding records: %w", err))
	}

	name := taxid.CleanCompanyName(byNIF[nif].Title)
	if name == "" {
		return "", domain.ErrNIFNotFound
	}
	return name, nil
}
