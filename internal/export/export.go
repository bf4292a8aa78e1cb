// Package export writes the stored price history to spreadsheets.
package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/mtlprog/btcdash/internal/domain"
)

// priceSheet is the sheet/tab name used by every writer.
const priceSheet = "Prices"

var header = []any{"Date", "Price USD", "Value USD", "Value (M USD)"}

// HistoryReader reads the full price history.
type HistoryReader interface {
	ReadAll(ctx context.Context) ([]domain.PriceRecord, error)
}

// SheetWriter writes price rows, header first, to a spreadsheet destination.
type SheetWriter interface {
	Write(ctx context.Context, rows [][]any) error
}

// Service reads the price history and hands it to a SheetWriter.
type Service struct {
	prices HistoryReader
}

// NewService creates a new export Service.
func NewService(prices HistoryReader) *Service {
	return &Service{prices: prices}
}

// Export writes the full history to w and returns the number of records written.
func (s *Service) Export(ctx context.Context, w SheetWriter) (int, error) {
	records, err := s.prices.ReadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading price history: %w", err)
	}
	if err := w.Write(ctx, buildRows(records)); err != nil {
		return 0, fmt.Errorf("writing price history: %w", err)
	}
	slog.Info("Export: price history written", "records", len(records))
	return len(records), nil
}

// buildRows lays out one row per record under the header.
// Columns: Date | Price USD | Value USD | Value (M USD)
func buildRows(records []domain.PriceRecord) [][]any {
	rows := lo.Map(records, func(r domain.PriceRecord, _ int) []any {
		return []any{
			r.DateString(),
			r.PriceUSD.InexactFloat64(),
			r.ValueUSD.InexactFloat64(),
			r.ValueMillions().InexactFloat64(),
		}
	})
	return append([][]any{header}, rows...)
}
