// Package registry resolves NIFs by reading public company-registry pages.
// It is a best-effort fallback behind the nif.pt API.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"despesify/internal/config"
	"despesify/internal/domain"
	"despesify/internal/port"
	"despesify/internal/taxid"
)

// Name is reported as the resolution source.
const Name = "scraped"

const (
	defaultUserAgent = "Despesify/1.0"
	maxPageBytes     = 2 << 20
)

// Supported selectors.
const (
	SelectTitle           = "title"
	SelectH1              = "h1"
	SelectMetaDescription = "meta:description"
	SelectMetaOGTitle     = "meta:og:title"
)

func init() {
	taxid.RegisterProvider("registry", func(cfg *config.NIFConfig) (port.NIFProvider, error) {
		return NewProvider(cfg)
	})
}

// Source is one registry page: a URL template containing {nif} and the
// element holding the company name.
type Source struct {
	Name        string
	URLTemplate string
	Selector    string
}

// ParseSources parses "name|urlTemplate|selector" entries.
func ParseSources(entries []string) ([]Source, error) {
	out := make([]Source, 0, len(entries))
	for _, entry := range entries {
		parts := strings.Split(entry, "|")
		if len(parts) != 3 {
			return nil, fmt.Errorf("registry source %q: want name|url|selector", entry)
		}
		s := Source{
			Name:        strings.TrimSpace(parts[0]),
			URLTemplate: strings.TrimSpace(parts[1]),
			Selector:    strings.ToLower(strings.TrimSpace(parts[2])),
		}
		if !strings.Contains(s.URLTemplate, "{nif}") {
			return nil, fmt.Errorf("registry source %q: url must contain {nif}", s.Name)
		}
		switch s.Selector {
		case SelectTitle, SelectH1, SelectMetaDescription, SelectMetaOGTitle:
		default:
			return nil, fmt.Errorf("registry source %q: unsupported selector %q", s.Name, s.Selector)
		}
		out = append(out, s)
	}
	return out, nil
}

// Provider implements port.NIFProvider by scraping registry pages in order.
type Provider struct {
	sources   []Source
	userAgent string
	client    *http.Client
}

// NewProvider creates a Provider from cfg.ScrapeSources.
func NewProvider(cfg *config.NIFConfig) (*Provider, error) {
	sources, err := ParseSources(cfg.ScrapeSources)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, errors.New("registry provider needs at least one scrape source")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return NewProviderWithClient(sources, cfg.UserAgent, &http.Client{Timeout: timeout}), nil
}

// NewProviderWithClient creates a Provider with a custom client (useful for testing).
func NewProviderWithClient(sources []Source, userAgent string, client *http.Client) *Provider {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Provider{sources: sources, userAgent: userAgent, client: client}
}

func (p *Provider) Name() string { return Name }

// LookupName returns the first name any source yields. Failures of earlier
// sources are reported only when no later source finds the NIF.
func (p *Provider) LookupName(ctx context.Context, nif string) (string, error) {
	var lastErr error
	for _, s := range p.sources {
		name, err := p.fetch(ctx, s, nif)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, domain.ErrNIFNotFound) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", domain.ErrNIFNotFound
}

func (p *Provider) fetch(ctx context.Context, s Source, nif string) (string, error) {
	target := strings.ReplaceAll(s.URLTemplate, "{nif}", url.PathEscape(nif))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return "", taxid.NewProviderError(s.Name, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", taxid.NewProviderError(s.Name, fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		return "", domain.ErrNIFNotFound
	case http.StatusTooManyRequests:
		retryAfter := taxid.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
		return "", taxid.NewRateLimitError(s.Name, fmt.Errorf("status %d", resp.StatusCode), retryAfter)
	default:
		return "", taxid.NewProviderError(s.Name, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", taxid.NewProviderError(s.Name, fmt.Errorf("parsing page: %w", err))
	}

	name := cleanTitle(selectText(doc, s.Selector), s.Name)
	if name == "" {
		return "", domain.ErrNIFNotFound
	}
	return name, nil
}

// selectText returns the text of the first node matching selector.
func selectText(doc *html.Node, selector string) string {
	var found string
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			switch {
			case selector == SelectTitle && n.DataAtom == atom.Title,
				selector == SelectH1 && n.DataAtom == atom.H1:
				found = textContent(n)
				return true
			case n.DataAtom == atom.Meta && matchesMeta(n, selector):
				found = attr(n, "content")
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return strings.TrimSpace(found)
}

func matchesMeta(n *html.Node, selector string) bool {
	switch selector {
	case SelectMetaDescription:
		return strings.EqualFold(attr(n, "name"), "description")
	case SelectMetaOGTitle:
		return strings.EqualFold(attr(n, "property"), "og:title")
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

var titleSeparators = strings.NewReplacer(" | ", "\x00", " – ", "\x00", " - ", "\x00")

// cleanTitle drops site-name and NIF segments from a page title such as
// "503504564 - Empresa Exemplo, Lda - NIF.pt".
func cleanTitle(title, siteName string) string {
	for _, part := range strings.Split(titleSeparators.Replace(title), "\x00") {
		part = taxid.CleanCompanyName(part)
		if part == "" || isDigits(strings.ReplaceAll(part, " ", "")) || strings.EqualFold(part, siteName) {
			continue
		}
		return part
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
