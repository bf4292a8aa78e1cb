// Package chart turns the stored price history into the series, slider marks
// and captions the dashboard chart displays.
package chart

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/btcdash/internal/domain"
)

// markDivisions is the number of evenly spaced slider labels before the forced last one.
const markDivisions = 8

// Selection is a closed interval of row indices into the date-ordered history.
// A nil *Selection means nothing has been selected yet and the full range applies.
type Selection struct {
	Lo int `json:"lo"`
	Hi int `json:"hi"`
}

// String renders the slider wire form "lo,hi".
func (s Selection) String() string {
	return fmt.Sprintf("%d,%d", s.Lo, s.Hi)
}

// legacyDefault is the initial slider value [0, 1], which marks "no selection".
var legacyDefault = Selection{Lo: 0, Hi: 1}

// ParseSelection decodes the slider's "lo,hi" form. An empty value and the
// initial slider value "0,1" decode to nil, meaning the full range.
func ParseSelection(raw string) (*Selection, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	loStr, hiStr, ok := strings.Cut(raw, ",")
	if !ok {
		return nil, fmt.Errorf("invalid selection %q, expected lo,hi", raw)
	}
	start, err := strconv.Atoi(strings.TrimSpace(loStr))
	if err != nil {
		return nil, fmt.Errorf("invalid selection start %q: %w", loStr, err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(hiStr))
	if err != nil {
		return nil, fmt.Errorf("invalid selection end %q: %w", hiStr, err)
	}
	sel := Selection{Lo: start, Hi: end}
	if sel == legacyDefault {
		return nil, nil
	}
	return &sel, nil
}

// Resolve returns the effective interval for n rows: the full range when sel
// is nil, otherwise sel clamped into [0, n-1] with its ends ordered.
// n must be positive.
func Resolve(sel *Selection, n int) Selection {
	full := Selection{Lo: 0, Hi: n - 1}
	if sel == nil {
		return full
	}
	start, end := clamp(sel.Lo, 0, n-1), clamp(sel.Hi, 0, n-1)
	if start > end {
		start, end = end, start
	}
	return Selection{Lo: start, Hi: end}
}

func clamp(v, minV, maxV int) int {
	return max(minV, min(v, maxV))
}

// Mark is a labelled slider position.
type Mark struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// Data is everything the dashboard needs to draw one state of the chart.
type Data struct {
	Dates       []string  `json:"dates"`
	ValueSeries []float64 `json:"valueSeries"`
	PriceSeries []float64 `json:"priceSeries"`
	Marks       []Mark    `json:"marks"`
	Caption     string    `json:"caption"`
	Min         int       `json:"min"`
	Max         int       `json:"max"`
	Value       Selection `json:"value"`
}

// Prepare slices records (ascending by date) to the selection and derives the
// chart series. An empty history yields empty Data.
func Prepare(records []domain.PriceRecord, sel *Selection) Data {
	n := len(records)
	if n == 0 {
		return Data{Dates: []string{}, ValueSeries: []float64{}, PriceSeries: []float64{}, Marks: []Mark{}}
	}

	window := Resolve(sel, n)
	slice := records[window.Lo : window.Hi+1]

	return Data{
		Dates: lo.Map(slice, func(r domain.PriceRecord, _ int) string {
			return r.DateString()
		}),
		ValueSeries: lo.Map(slice, func(r domain.PriceRecord, _ int) float64 {
			return r.ValueMillions().InexactFloat64()
		}),
		PriceSeries: lo.Map(slice, func(r domain.PriceRecord, _ int) float64 {
			return r.PriceUSD.Round(2).InexactFloat64()
		}),
		Marks:   Marks(records),
		Caption: caption(records[window.Lo].Date, records[window.Hi].Date),
		Min:     0,
		Max:     n - 1,
		Value:   window,
	}
}

// Marks labels every step-th row with its year and month, step = max(n/8, 1),
// and always labels the last row.
func Marks(records []domain.PriceRecord) []Mark {
	n := len(records)
	if n == 0 {
		return []Mark{}
	}
	step := max(n/markDivisions, 1)

	marks := make([]Mark, 0, n/step+2)
	for i := 0; i < n; i += step {
		marks = append(marks, Mark{Index: i, Label: records[i].Date.Format("2006-01")})
	}
	if marks[len(marks)-1].Index != n-1 {
		marks = append(marks, Mark{Index: n - 1, Label: records[n-1].Date.Format("2006-01")})
	}
	return marks
}

func caption(from, to time.Time) string {
	return from.Format(time.DateOnly) + " - " + to.Format(time.DateOnly)
}
