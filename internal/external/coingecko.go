package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/btcdash/internal/domain"
)

var (
	// ErrSourceUnavailable indicates the provider could not be reached or answered with an error.
	ErrSourceUnavailable = errors.New("price source unavailable")

	// ErrUnsupportedSymbol indicates a symbol with no CoinGecko mapping.
	ErrUnsupportedSymbol = errors.New("unsupported symbol")

	// ErrRangeTooLong indicates a history range the API plan cannot serve.
	ErrRangeTooLong = errors.New("history range exceeds API plan")
)

// APIPlan selects the CoinGecko key header and the history the API serves.
type APIPlan string

const (
	PlanDemo APIPlan = "demo"
	PlanPro  APIPlan = "pro"
)

// proHost serves the paid API; keys for it go in x-cg-pro-api-key.
const proHost = "pro-api.coingecko.com"

// demoHistory is how far back the public and demo plans serve market_chart/range.
const demoHistory = 365 * 24 * time.Hour

// ParseAPIPlan decodes COINGECKO_API_PLAN. An empty value infers the plan
// from baseURL: the pro host means PlanPro, anything else PlanDemo.
func ParseAPIPlan(s, baseURL string) (APIPlan, error) {
	switch APIPlan(s) {
	case PlanDemo, PlanPro:
		return APIPlan(s), nil
	case "":
		if u, err := url.Parse(baseURL); err == nil && u.Hostname() == proHost {
			return PlanPro, nil
		}
		return PlanDemo, nil
	default:
		return PlanDemo, fmt.Errorf("unknown CoinGecko API plan %q", s)
	}
}

func (p APIPlan) keyHeader() string {
	if p == PlanPro {
		return "x-cg-pro-api-key"
	}
	return "x-cg-demo-api-key"
}

// Coin identifies a CoinGecko coin and the currency it is quoted in.
type Coin struct {
	ID         string
	VsCurrency string
}

// SymbolMapping maps ticker symbols to CoinGecko coins.
var SymbolMapping = map[string]Coin{
	"BTC-USD": {ID: "bitcoin", VsCurrency: "usd"},
	"BTC":     {ID: "bitcoin", VsCurrency: "usd"},
}

// CoinGeckoClient fetches prices from the CoinGecko API.
type CoinGeckoClient struct {
	baseURL    string
	apiKey     string
	plan       APIPlan
	httpClient *http.Client
	delay      time.Duration
	maxRetries int
}

// NewCoinGeckoClient creates a new CoinGecko API client. apiKey may be empty.
func NewCoinGeckoClient(baseURL, apiKey string, plan APIPlan, delay time.Duration, maxRetries int) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		plan:       plan,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		delay:      delay,
		maxRetries: maxRetries,
	}
}

// CheckRange reports ErrRangeTooLong when the plan cannot serve history
// starting at start. Only the pro plan reaches further back than a year.
func (c *CoinGeckoClient) CheckRange(start, now time.Time) error {
	if c.plan == PlanPro {
		return nil
	}
	if oldest := domain.Day(now.Add(-demoHistory)); start.Before(oldest) {
		return fmt.Errorf("%w: %s plan serves history from %s, requested %s",
			ErrRangeTooLong, c.plan, oldest.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return nil
}

// FetchRange returns one closing price per day within [start, end], ascending.
// Days the provider has no data for are missing from the result.
func (c *CoinGeckoClient) FetchRange(ctx context.Context, symbol string, start, end time.Time) ([]domain.Quote, error) {
	coin, err := lookup(symbol)
	if err != nil {
		return nil, err
	}

	first, last := domain.Day(start), domain.Day(end)
	q := url.Values{}
	q.Set("vs_currency", coin.VsCurrency)
	q.Set("from", strconv.FormatInt(first.Unix(), 10))
	// The sample at midnight after end carries end's close.
	q.Set("to", strconv.FormatInt(last.Add(24*time.Hour).Unix(), 10))
	addr := fmt.Sprintf("%s/coins/%s/market_chart/range?%s", c.baseURL, coin.ID, q.Encode())

	body, err := c.fetchWithRetry(ctx, addr)
	if err != nil {
		return nil, err
	}

	// Parse: {"prices":[[1405036800000,620.0],...],"market_caps":[...],"total_volumes":[...]}
	var raw struct {
		Prices [][2]json.Number `json:"prices"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing CoinGecko response: %w", ErrSourceUnavailable, err)
	}

	samples := make([]domain.Quote, 0, len(raw.Prices))
	for _, p := range raw.Prices {
		ms, err := p[0].Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: parsing CoinGecko timestamp %q: %w", ErrSourceUnavailable, p[0], err)
		}
		price, err := decimal.NewFromString(p[1].String())
		if err != nil {
			return nil, fmt.Errorf("%w: parsing CoinGecko price %q: %w", ErrSourceUnavailable, p[1], err)
		}
		samples = append(samples, domain.Quote{Date: time.UnixMilli(ms).UTC(), Close: price})
	}

	daily := dailyCloses(samples)
	return lo.Filter(daily, func(q domain.Quote, _ int) bool {
		return !q.Date.Before(first) && !q.Date.After(last)
	}), nil
}

// FetchLatest returns the most recent price as zero or one quote, dated by the
// provider's last update time.
func (c *CoinGeckoClient) FetchLatest(ctx context.Context, symbol string) ([]domain.Quote, error) {
	coin, err := lookup(symbol)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("ids", coin.ID)
	q.Set("vs_currencies", coin.VsCurrency)
	q.Set("include_last_updated_at", "true")
	addr := fmt.Sprintf("%s/simple/price?%s", c.baseURL, q.Encode())

	body, err := c.fetchWithRetry(ctx, addr)
	if err != nil {
		return nil, err
	}

	// Parse: {"bitcoin":{"usd":67000.12,"last_updated_at":1700000000}}
	var raw map[string]map[string]json.Number
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing CoinGecko response: %w", ErrSourceUnavailable, err)
	}

	fields, ok := raw[coin.ID]
	if !ok {
		return nil, nil
	}
	rawPrice, ok := fields[coin.VsCurrency]
	if !ok {
		return nil, nil
	}
	price, err := decimal.NewFromString(rawPrice.String())
	if err != nil {
		return nil, fmt.Errorf("%w: parsing CoinGecko price %q: %w", ErrSourceUnavailable, rawPrice, err)
	}

	updated := time.Now().UTC()
	if ts, ok := fields["last_updated_at"]; ok {
		if sec, err := ts.Int64(); err == nil {
			updated = time.Unix(sec, 0).UTC()
		}
	}

	return []domain.Quote{{Date: domain.Day(updated), Close: price}}, nil
}

func lookup(symbol string) (Coin, error) {
	coin, ok := SymbolMapping[symbol]
	if !ok {
		return Coin{}, fmt.Errorf("%w: %s", ErrUnsupportedSymbol, symbol)
	}
	return coin, nil
}

// dailyCloses keeps the last sample of each UTC day, ordered by day. A sample
// taken exactly at midnight closes the previous day; daily-granularity ranges
// only carry midnight samples.
func dailyCloses(samples []domain.Quote) []domain.Quote {
	slices.SortStableFunc(samples, func(a, b domain.Quote) int {
		return a.Date.Compare(b.Date)
	})

	var out []domain.Quote
	for _, s := range samples {
		date := domain.Day(s.Date)
		if date.Equal(s.Date) {
			date = date.AddDate(0, 0, -1)
		}
		day := domain.Quote{Date: date, Close: s.Close}
		if n := len(out); n > 0 && out[n-1].Date.Equal(day.Date) {
			out[n-1] = day
			continue
		}
		out = append(out, day)
	}
	return out
}

func (c *CoinGeckoClient) fetchWithRetry(ctx context.Context, addr string) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			baseDelay := c.delay
			if baseDelay == 0 {
				baseDelay = 10 * time.Second
			}
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, ctx.Err())
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
		if err != nil {
			return nil, fmt.Errorf("creating CoinGecko request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set(c.plan.keyHeader(), c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: CoinGecko request failed: %w", ErrSourceUnavailable, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: reading CoinGecko response: %w", ErrSourceUnavailable, err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("%w: CoinGecko rate limited (attempt %d/%d)", ErrSourceUnavailable, attempt+1, c.maxRetries+1)
			continue
		}

		return nil, fmt.Errorf("%w: CoinGecko HTTP %d: %s", ErrSourceUnavailable, resp.StatusCode, string(body))
	}

	return nil, lastErr
}
