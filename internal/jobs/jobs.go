// Package jobs holds the batch operations that write the price store: the
// destructive historical reload and the daily refresh.
package jobs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mtlprog/btcdash/internal/domain"
)

var (
	// ErrNoData indicates the provider answered successfully but had no price.
	ErrNoData = errors.New("no price data returned")

	// ErrNotConfirmed indicates the operator declined a destructive reload.
	ErrNotConfirmed = errors.New("reload not confirmed")
)

// PriceSource fetches closing prices for a symbol.
type PriceSource interface {
	FetchRange(ctx context.Context, symbol string, start, end time.Time) ([]domain.Quote, error)
	FetchLatest(ctx context.Context, symbol string) ([]domain.Quote, error)
}

// Confirmer asks the operator to approve a destructive operation.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm approves without asking. Used by non-interactive runs (--yes).
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) {
	return true, nil
})

// PromptConfirmer writes the prompt to Out and reads a y/N answer from In.
// Anything other than "y" or "yes" (case-insensitive) is a refusal.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (p PromptConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	if _, err := fmt.Fprintf(p.Out, "%s [y/N]: ", prompt); err != nil {
		return false, fmt.Errorf("writing prompt: %w", err)
	}
	answer, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
