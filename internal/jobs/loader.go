package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/btcdash/internal/domain"
	"github.com/mtlprog/btcdash/internal/store"
)

const reloadPrompt = "This drops every stored price and reloads the full history. Continue?"

// LoadResult reports what a historical reload wrote.
type LoadResult struct {
	Written int
	// First is the earliest record written, nil when the source returned nothing.
	First *domain.PriceRecord
}

// Loader rebuilds the price store from the provider's full history.
type Loader struct {
	source PriceSource
	repo   store.Repository
	symbol string
	start  time.Time
	now    func() time.Time
}

// NewLoader creates a Loader fetching symbol from start until today.
func NewLoader(source PriceSource, repo store.Repository, symbol string, start time.Time) *Loader {
	return &Loader{
		source: source,
		repo:   repo,
		symbol: symbol,
		start:  start,
		now:    time.Now,
	}
}

// Run asks for confirmation, recreates the store and writes one record per
// day returned by the source. An empty history leaves the store empty and is
// not an error.
func (l *Loader) Run(ctx context.Context, confirm Confirmer) (LoadResult, error) {
	ok, err := confirm.Confirm(ctx, reloadPrompt)
	if err != nil {
		return LoadResult{}, fmt.Errorf("confirming reload: %w", err)
	}
	if !ok {
		slog.Info("Loader: reload cancelled by operator")
		return LoadResult{}, ErrNotConfirmed
	}

	if err := l.repo.Recreate(ctx); err != nil {
		slog.Error("Loader: recreating store failed", "error", err)
		return LoadResult{}, fmt.Errorf("recreating store: %w", err)
	}

	end := domain.Day(l.now())
	quotes, err := l.source.FetchRange(ctx, l.symbol, l.start, end)
	if err != nil {
		slog.Error("Loader: fetching history failed", "symbol", l.symbol, "error", err)
		return LoadResult{}, fmt.Errorf("fetching %s history: %w", l.symbol, err)
	}

	var result LoadResult
	for _, q := range quotes {
		rec, err := l.repo.Upsert(ctx, q.Date, q.Close)
		if err != nil {
			slog.Error("Loader: storing price failed", "date", q.Date.Format(time.DateOnly), "written", result.Written, "error", err)
			return result, fmt.Errorf("storing history: %w", err)
		}
		if result.First == nil {
			result.First = &rec
		}
		result.Written++
	}

	if result.Written == 0 {
		slog.Warn("Loader: source returned no prices, store is empty",
			"symbol", l.symbol, "from", l.start.Format(time.DateOnly), "to", end.Format(time.DateOnly))
		return result, nil
	}

	slog.Info("Loader: reload completed",
		"written", result.Written,
		"first_date", result.First.DateString(),
		"first_price", result.First.PriceUSD.StringFixed(2),
		"first_value", result.First.ValueUSD.StringFixed(2))
	return result, nil
}
