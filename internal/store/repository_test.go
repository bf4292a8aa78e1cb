package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/btcdash/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPgRepository(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewPgRepository(pool)
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		latest, err := repo.ReadLatest(ctx)
		require.NoError(t, err)
		assert.Nil(t, latest)

		all, err := repo.ReadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("upsert derives value", func(t *testing.T) {
		rec, err := repo.Upsert(ctx, date(2014, 7, 11), decimal.RequireFromString("620.004"))
		require.NoError(t, err)
		assert.True(t, rec.PriceUSD.Equal(decimal.RequireFromString("620")))
		assert.True(t, rec.ValueUSD.Equal(decimal.RequireFromString("292780120")))

		latest, err := repo.ReadLatest(ctx)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, "2014-07-11", latest.DateString())
		assert.True(t, latest.ValueUSD.Equal(rec.ValueUSD))
	})

	t.Run("upsert is idempotent", func(t *testing.T) {
		_, err := repo.Upsert(ctx, date(2014, 7, 12), decimal.RequireFromString("633.10"))
		require.NoError(t, err)
		before, err := repo.ReadAll(ctx)
		require.NoError(t, err)

		_, err = repo.Upsert(ctx, date(2014, 7, 12), decimal.RequireFromString("633.10"))
		require.NoError(t, err)
		after, err := repo.ReadAll(ctx)
		require.NoError(t, err)

		require.Len(t, after, len(before))
		for i := range before {
			assert.True(t, before[i].Date.Equal(after[i].Date))
			assert.True(t, before[i].PriceUSD.Equal(after[i].PriceUSD))
			assert.True(t, before[i].ValueUSD.Equal(after[i].ValueUSD))
		}
	})

	t.Run("upsert overwrites existing date", func(t *testing.T) {
		_, err := repo.Upsert(ctx, date(2014, 7, 12), decimal.RequireFromString("700"))
		require.NoError(t, err)

		all, err := repo.ReadAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.True(t, all[1].PriceUSD.Equal(decimal.NewFromInt(700)))
		assert.True(t, all[1].ValueUSD.Equal(decimal.NewFromInt(700*domain.HoldingAmount)))
	})

	t.Run("read all ascending with gaps", func(t *testing.T) {
		_, err := repo.Upsert(ctx, date(2014, 7, 20), decimal.NewFromInt(600))
		require.NoError(t, err)
		_, err = repo.Upsert(ctx, date(2014, 7, 1), decimal.NewFromInt(590))
		require.NoError(t, err)

		all, err := repo.ReadAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 4)
		for i := 1; i < len(all); i++ {
			assert.True(t, all[i-1].Date.Before(all[i].Date), "records out of order at %d", i)
		}

		latest, err := repo.ReadLatest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "2014-07-20", latest.DateString())
	})

	t.Run("recreate empties the store", func(t *testing.T) {
		require.NoError(t, repo.Recreate(ctx))

		all, err := repo.ReadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		_, err = repo.Upsert(ctx, date(2024, 1, 1), decimal.NewFromInt(42000))
		require.NoError(t, err)
	})

	t.Run("failures are store errors", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := repo.ReadAll(cancelled)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrStore))

		var storeErr *Error
		require.True(t, errors.As(err, &storeErr))
		assert.Equal(t, "reading prices", storeErr.Op)
	})
}

func TestErrorKind(t *testing.T) {
	err := storeErr("upserting price for 2024-01-01", errors.New("connection reset"))
	assert.True(t, errors.Is(err, ErrStore))
	assert.EqualError(t, err, "upserting price for 2024-01-01: connection reset")
}
