package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// HoldingAmount is the number of BTC held by the tracked portfolio.
	HoldingAmount = 472226

	// BaselineInvestment is the portfolio value in USD on 2014-07-11, when BTC closed at 620.00.
	BaselineInvestment = 292_780_000

	// dateLayout is the wire and storage format of a calendar date.
	dateLayout = "2006-01-02"

	moneyPrecision = 2
)

var (
	holding  = decimal.NewFromInt(HoldingAmount)
	baseline = decimal.NewFromInt(BaselineInvestment)
	million  = decimal.NewFromInt(1_000_000)
	hundred  = decimal.NewFromInt(100)
)

// Quote is a single closing price reported by a market-data provider.
type Quote struct {
	Date  time.Time       `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// PriceRecord is one stored day of BTC price history.
type PriceRecord struct {
	Date     time.Time       `json:"date"`
	PriceUSD decimal.Decimal `json:"priceUsd"`
	ValueUSD decimal.Decimal `json:"valueUsd"`
}

// NewPriceRecord builds the record for date with the portfolio value derived from price.
// This is the only place ValueUSD is computed.
func NewPriceRecord(date time.Time, priceUSD decimal.Decimal) PriceRecord {
	price := priceUSD.Round(moneyPrecision)
	return PriceRecord{
		Date:     Day(date),
		PriceUSD: price,
		ValueUSD: price.Mul(holding).Round(moneyPrecision),
	}
}

// ValueMillions returns the portfolio value in millions of USD rounded to cents.
func (r PriceRecord) ValueMillions() decimal.Decimal {
	return r.ValueUSD.Div(million).Round(moneyPrecision)
}

// DateString formats the record date as YYYY-MM-DD.
func (r PriceRecord) DateString() string {
	return r.Date.Format(dateLayout)
}

// PercentChange returns the change of value against the baseline investment, in percent.
func PercentChange(value decimal.Decimal) decimal.Decimal {
	return value.Div(baseline).Sub(decimal.NewFromInt(1)).Mul(hundred)
}

// Day truncates t to its calendar date at midnight UTC, keeping the year/month/day of t's location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
