package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"620", "620.00"},
		{"1234.5", "1,234.50"},
		{"30280407019.955", "30,280,407,019.96"},
	}
	for _, tt := range tests {
		if got := FormatUSD(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatUSD(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatWhole(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"999.4", "999"},
		{"1234.5", "1,235"},
		{"292780120", "292,780,120"},
	}
	for _, tt := range tests {
		if got := FormatWhole(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatWhole(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDollars(t *testing.T) {
	if got := FormatDollars(decimal.RequireFromString("64123.456")); got != "$64,123.46" {
		t.Errorf("FormatDollars = %q, want $64,123.46", got)
	}
}

func TestToCommaDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1,234.56", "1.234,56"},
		{"292,780,120", "292.780.120"},
		{"0.5", "0,5"},
		{"", ""},
		{"$%{y:,.2f}", "$%{y:.,2f}"},
	}
	for _, tt := range tests {
		if got := ToCommaDecimal(tt.in); got != tt.want {
			t.Errorf("ToCommaDecimal(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
