package rates

import (
	"context"
	"fmt"
	"strings"

	"github.com/dtnitsch/fxlens/pkg/fetcher"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// DefaultBaseURL serves {"base":"USD","rates":{"EUR":0.91,...}} documents
// at {base}/{FROM}.
const DefaultBaseURL = "https://api.exchangerate-api.com/v4/latest"

// Source returns every known rate for one base currency.
type Source interface {
	Rates(ctx context.Context, base string) (map[string]float64, error)
}

// LiveSource reads rates over HTTP, throttled by a token bucket.
type LiveSource struct {
	baseURL string
	fetcher *fetcher.Fetcher
	limiter *rate.Limiter
}

// NewLiveSource creates a live source. rps <= 0 disables throttling.
func NewLiveSource(baseURL string, f *fetcher.Fetcher, rps float64, burst int) *LiveSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if f == nil {
		f = fetcher.NewFetcher()
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &LiveSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: f,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (l *LiveSource) Rates(ctx context.Context, base string) (map[string]float64, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	url := l.baseURL + "/" + strings.ToUpper(base)
	body, err := l.fetcher.GetJSON(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates for %s: %w", base, err)
	}

	ratesNode := gjson.GetBytes(body, "rates")
	if !ratesNode.IsObject() {
		return nil, fmt.Errorf("rates response for %s has no rates object", base)
	}

	out := make(map[string]float64)
	ratesNode.ForEach(func(code, value gjson.Result) bool {
		if value.Type == gjson.Number && value.Float() > 0 {
			out[strings.ToUpper(code.String())] = value.Float()
		}
		return true
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("rates response for %s is empty", base)
	}
	return out, nil
}
