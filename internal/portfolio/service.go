package portfolio

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/btcdash/internal/domain"
)

// LatestReader reads the most recent stored price.
type LatestReader interface {
	ReadLatest(ctx context.Context) (*domain.PriceRecord, error)
}

// Summary is the landing-page view of the portfolio.
type Summary struct {
	Date          *time.Time      `json:"date,omitempty"`
	PriceUSD      decimal.Decimal `json:"priceUsd"`
	ValueUSD      decimal.Decimal `json:"valueUsd"`
	PercentChange decimal.Decimal `json:"percentChange"`
}

// Service computes the portfolio summary from the latest stored price.
type Service struct {
	prices LatestReader
}

// NewService creates a new portfolio Service.
func NewService(prices LatestReader) *Service {
	return &Service{prices: prices}
}

// Summary returns the latest price, value and change against the baseline
// investment. A missing or unreadable store degrades to a zero summary.
func (s *Service) Summary(ctx context.Context) Summary {
	latest, err := s.prices.ReadLatest(ctx)
	if err != nil {
		slog.Warn("Portfolio: reading latest price failed, showing empty summary", "error", err)
		return Summary{}
	}
	return Summarize(latest)
}

// Summarize builds the summary for rec. A nil record gives zeros and 0% change.
func Summarize(rec *domain.PriceRecord) Summary {
	if rec == nil {
		return Summary{}
	}
	date := rec.Date
	return Summary{
		Date:          &date,
		PriceUSD:      rec.PriceUSD,
		ValueUSD:      rec.ValueUSD,
		PercentChange: domain.PercentChange(rec.ValueUSD),
	}
}

// Display formats the summary with dots as thousands separators and a comma
// before decimals.
func (s Summary) Display() DisplaySummary {
	d := DisplaySummary{
		Price:         domain.ToCommaDecimal(domain.FormatWhole(s.PriceUSD)),
		Value:         domain.ToCommaDecimal(domain.FormatWhole(s.ValueUSD)),
		PercentChange: domain.ToCommaDecimal(domain.FormatUSD(s.PercentChange)),
	}
	if s.Date != nil {
		d.Date = s.Date.Format(time.DateOnly)
	}
	return d
}

// DisplaySummary holds the formatted strings the landing page renders.
type DisplaySummary struct {
	Date          string
	Price         string
	Value         string
	PercentChange string
}
