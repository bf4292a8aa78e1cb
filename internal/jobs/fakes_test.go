package jobs

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/btcdash/internal/domain"
	"github.com/mtlprog/btcdash/internal/store"
)

type memRepo struct {
	records    map[time.Time]domain.PriceRecord
	recreated  int
	upserts    int
	upsertErr  error
	recreateFn func() error
}

func newMemRepo(records ...domain.PriceRecord) *memRepo {
	m := &memRepo{records: make(map[time.Time]domain.PriceRecord)}
	for _, r := range records {
		m.records[r.Date] = r
	}
	return m
}

func (m *memRepo) Recreate(_ context.Context) error {
	m.recreated++
	if m.recreateFn != nil {
		if err := m.recreateFn(); err != nil {
			return err
		}
	}
	m.records = make(map[time.Time]domain.PriceRecord)
	return nil
}

func (m *memRepo) Upsert(_ context.Context, date time.Time, price decimal.Decimal) (domain.PriceRecord, error) {
	m.upserts++
	if m.upsertErr != nil {
		return domain.PriceRecord{}, m.upsertErr
	}
	rec := domain.NewPriceRecord(date, price)
	m.records[rec.Date] = rec
	return rec, nil
}

func (m *memRepo) ReadAll(_ context.Context) ([]domain.PriceRecord, error) {
	out := make([]domain.PriceRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b domain.PriceRecord) int { return a.Date.Compare(b.Date) })
	return out, nil
}

func (m *memRepo) ReadLatest(ctx context.Context) (*domain.PriceRecord, error) {
	all, _ := m.ReadAll(ctx)
	if len(all) == 0 {
		return nil, nil
	}
	return &all[len(all)-1], nil
}

var _ store.Repository = (*memRepo)(nil)

type fakeSource struct {
	history   []domain.Quote
	latest    []domain.Quote
	err       error
	rangeFrom time.Time
	rangeTo   time.Time
}

func (f *fakeSource) FetchRange(_ context.Context, _ string, start, end time.Time) ([]domain.Quote, error) {
	f.rangeFrom, f.rangeTo = start, end
	return f.history, f.err
}

func (f *fakeSource) FetchLatest(_ context.Context, _ string) ([]domain.Quote, error) {
	return f.latest, f.err
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func quote(date time.Time, price string) domain.Quote {
	return domain.Quote{Date: date, Close: decimal.RequireFromString(price)}
}
