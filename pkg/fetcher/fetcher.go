package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "fxlens/1.0 (+https://github.com/dtnitsch/fxlens)"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 10 << 20
)

// StatusError is returned for any non-200 response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.URL)
}

type Fetcher struct {
	client    *http.Client
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.client.Timeout = d }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithClient replaces the HTTP client entirely.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) GetHtml(url string) (*goquery.Document, error) {
	return f.GetHtmlContext(context.Background(), url)
}

func (f *Fetcher) GetHtmlContext(ctx context.Context, url string) (*goquery.Document, error) {
	bodyBytes, err := f.get(ctx, url, "text/html,application/xhtml+xml")
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

func (f *Fetcher) GetHtmlBytes(url string) ([]byte, error) {
	return f.get(context.Background(), url, "text/html,application/xhtml+xml")
}

// GetJSON fetches url and checks that the body is well-formed JSON.
func (f *Fetcher) GetJSON(ctx context.Context, url string) ([]byte, error) {
	body, err := f.get(ctx, url, "application/json")
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to parse JSON from %s: invalid document", url)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return bodyBytes, nil
}
