package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/btcdash/internal/domain"
	"github.com/mtlprog/btcdash/internal/store"
)

// DatePolicy selects the date a daily price is stored under.
type DatePolicy int

const (
	// DatePolicyExecution stores the price under the local date the job ran.
	DatePolicyExecution DatePolicy = iota
	// DatePolicyTrading stores the price under the date reported by the provider.
	DatePolicyTrading
)

// ParseDatePolicy parses "execution" or "trading".
func ParseDatePolicy(s string) (DatePolicy, error) {
	switch s {
	case "", "execution":
		return DatePolicyExecution, nil
	case "trading":
		return DatePolicyTrading, nil
	default:
		return DatePolicyExecution, fmt.Errorf("unknown date policy %q", s)
	}
}

func (p DatePolicy) String() string {
	if p == DatePolicyTrading {
		return "trading"
	}
	return "execution"
}

// UpdateResult reports the record written by a daily refresh.
type UpdateResult struct {
	Record      domain.PriceRecord
	TradingDate time.Time
}

// Updater refreshes the store with the most recent price.
type Updater struct {
	source PriceSource
	repo   store.Repository
	symbol string
	policy DatePolicy
	now    func() time.Time
}

// NewUpdater creates an Updater for symbol.
func NewUpdater(source PriceSource, repo store.Repository, symbol string, policy DatePolicy) *Updater {
	return &Updater{
		source: source,
		repo:   repo,
		symbol: symbol,
		policy: policy,
		now:    time.Now,
	}
}

// Run fetches the latest price and upserts it. The store is not touched when
// the source fails or has no data. Running twice on the same day overwrites
// that day's record.
func (u *Updater) Run(ctx context.Context) (UpdateResult, error) {
	quotes, err := u.source.FetchLatest(ctx, u.symbol)
	if err != nil {
		slog.Error("Updater: fetching latest price failed", "symbol", u.symbol, "error", err)
		return UpdateResult{}, fmt.Errorf("fetching latest %s price: %w", u.symbol, err)
	}
	if len(quotes) == 0 {
		slog.Warn("Updater: source returned no price", "symbol", u.symbol)
		return UpdateResult{}, ErrNoData
	}

	latest := quotes[len(quotes)-1]
	date := domain.Day(u.now())
	if u.policy == DatePolicyTrading {
		date = latest.Date
	}

	rec, err := u.repo.Upsert(ctx, date, latest.Close)
	if err != nil {
		slog.Error("Updater: storing price failed", "date", date.Format(time.DateOnly), "error", err)
		return UpdateResult{}, fmt.Errorf("storing latest price: %w", err)
	}

	slog.Info("Updater: price stored",
		"date", rec.DateString(),
		"trading_date", latest.Date.Format(time.DateOnly),
		"price", rec.PriceUSD.StringFixed(2),
		"policy", u.policy.String())
	return UpdateResult{Record: rec, TradingDate: latest.Date}, nil
}
