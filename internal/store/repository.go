package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/btcdash/internal/domain"
)

// ErrStore matches every error returned by a Repository.
var ErrStore = errors.New("price store error")

// Error is a storage-layer failure of a single repository operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports ErrStore so callers can test the error kind without errors.As.
func (e *Error) Is(target error) bool { return target == ErrStore }

func storeErr(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// Repository is the persistent daily price history, keyed by date.
type Repository interface {
	// Recreate drops and recreates the price table. All stored records are lost.
	Recreate(ctx context.Context) error
	// Upsert stores the price for date, replacing any existing record for that date.
	Upsert(ctx context.Context, date time.Time, priceUSD decimal.Decimal) (domain.PriceRecord, error)
	// ReadAll returns every record by ascending date.
	ReadAll(ctx context.Context) ([]domain.PriceRecord, error)
	// ReadLatest returns the most recent record, or nil when the store is empty.
	ReadLatest(ctx context.Context) (*domain.PriceRecord, error)
}

const (
	dropTableSQL = `DROP TABLE IF EXISTS bitcoin_data`

	// createTableSQL mirrors migrations/001_bitcoin_data.up.sql.
	createTableSQL = `CREATE TABLE IF NOT EXISTS bitcoin_data (
		date      DATE           PRIMARY KEY,
		price_usd NUMERIC(20, 2) NOT NULL CHECK (price_usd >= 0),
		value_usd NUMERIC(24, 2) NOT NULL CHECK (value_usd >= 0)
	)`
)

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL price repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Recreate(ctx context.Context) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storeErr("beginning recreate", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, dropTableSQL); err != nil {
		return storeErr("dropping price table", err)
	}
	if _, err := tx.Exec(ctx, createTableSQL); err != nil {
		return storeErr("creating price table", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return storeErr("committing recreate", err)
	}
	return nil
}

func (r *PgRepository) Upsert(ctx context.Context, date time.Time, priceUSD decimal.Decimal) (domain.PriceRecord, error) {
	rec := domain.NewPriceRecord(date, priceUSD)
	_, err := r.pool.Exec(ctx,
		`INSERT INTO bitcoin_data (date, price_usd, value_usd)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (date) DO UPDATE SET price_usd = $2, value_usd = $3`,
		rec.Date, rec.PriceUSD, rec.ValueUSD)
	if err != nil {
		return domain.PriceRecord{}, storeErr(fmt.Sprintf("upserting price for %s", rec.DateString()), err)
	}
	return rec, nil
}

func (r *PgRepository) ReadAll(ctx context.Context) ([]domain.PriceRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT date, price_usd, value_usd FROM bitcoin_data ORDER BY date ASC`)
	if err != nil {
		return nil, storeErr("reading prices", err)
	}
	defer rows.Close()

	var records []domain.PriceRecord
	for rows.Next() {
		var rec domain.PriceRecord
		if err := rows.Scan(&rec.Date, &rec.PriceUSD, &rec.ValueUSD); err != nil {
			return nil, storeErr("scanning price", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating prices", err)
	}
	return records, nil
}

func (r *PgRepository) ReadLatest(ctx context.Context) (*domain.PriceRecord, error) {
	var rec domain.PriceRecord
	err := r.pool.QueryRow(ctx,
		`SELECT date, price_usd, value_usd
		 FROM bitcoin_data
		 ORDER BY date DESC
		 LIMIT 1`).Scan(&rec.Date, &rec.PriceUSD, &rec.ValueUSD)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("reading latest price", err)
	}
	return &rec, nil
}
