package chart

import "github.com/mtlprog/btcdash/internal/domain"

const (
	valueSeriesName = "Valor de Cartera (Millones USD)"
	priceSeriesName = "Precio Bitcoin (USD)"

	// axisTickFormat shows whole numbers with a thousands separator.
	axisTickFormat = ",.0f"
	gridColor      = "lightgray"

	// periodDecimalSeparators is Plotly's default "decimal, thousands" pair.
	periodDecimalSeparators = ".,"
)

// hoverTemplate shows the date and the amount with two decimals.
const hoverTemplate = "%{x}<br>$%{y:,.2f}<extra>%{data.name}</extra>"

// Figure is a Plotly figure description: two line traces on a shared x axis
// with independent y axes.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one Plotly scatter trace.
type Trace struct {
	Type          string    `json:"type"`
	Mode          string    `json:"mode"`
	Name          string    `json:"name"`
	X             []string  `json:"x"`
	Y             []float64 `json:"y"`
	YAxis         string    `json:"yaxis"`
	Line          Line      `json:"line"`
	HoverTemplate string    `json:"hovertemplate"`
}

// Line styles a trace.
type Line struct {
	Color string `json:"color"`
}

// Layout is the subset of Plotly layout options the dashboard sets.
type Layout struct {
	Margin       Margin `json:"margin"`
	HoverMode    string `json:"hovermode"`
	ShowLegend   bool   `json:"showlegend"`
	Legend       Legend `json:"legend"`
	PlotBGColor  string `json:"plot_bgcolor"`
	PaperBGColor string `json:"paper_bgcolor"`
	// Separators lists the decimal then the thousands separator.
	Separators string `json:"separators"`
	XAxis      Axis   `json:"xaxis"`
	YAxis      Axis   `json:"yaxis"`
	YAxis2     Axis   `json:"yaxis2"`
}

type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

type Legend struct {
	Orientation string  `json:"orientation"`
	YAnchor     string  `json:"yanchor"`
	Y           float64 `json:"y"`
	XAnchor     string  `json:"xanchor"`
	X           float64 `json:"x"`
}

// Axis configures one chart axis.
type Axis struct {
	Title             *AxisTitle `json:"title,omitempty"`
	TickFormat        string     `json:"tickformat,omitempty"`
	SeparateThousands bool       `json:"separatethousands,omitempty"`
	GridColor         string     `json:"gridcolor,omitempty"`
	ShowGrid          *bool      `json:"showgrid,omitempty"`
	Overlaying        string     `json:"overlaying,omitempty"`
	Side              string     `json:"side,omitempty"`
}

type AxisTitle struct {
	Text string `json:"text"`
}

// Figure builds the dual-axis chart for prepared data: portfolio value in
// millions on the left axis, BTC price on the right.
func (d Data) Figure() Figure {
	noGrid := false
	return Figure{
		Data: []Trace{
			{
				Type: "scatter", Mode: "lines",
				Name: valueSeriesName, X: d.Dates, Y: d.ValueSeries, YAxis: "y",
				Line: Line{Color: "blue"}, HoverTemplate: hoverTemplate,
			},
			{
				Type: "scatter", Mode: "lines",
				Name: priceSeriesName, X: d.Dates, Y: d.PriceSeries, YAxis: "y2",
				Line: Line{Color: "red"}, HoverTemplate: hoverTemplate,
			},
		},
		Layout: Layout{
			Margin:     Margin{L: 50, R: 50, T: 30, B: 30},
			HoverMode:  "x unified",
			ShowLegend: true,
			Legend: Legend{
				Orientation: "h", YAnchor: "bottom", Y: 1.02, XAnchor: "right", X: 1,
			},
			PlotBGColor:  "white",
			PaperBGColor: "white",
			Separators:   domain.ToCommaDecimal(periodDecimalSeparators),
			XAxis:        Axis{GridColor: gridColor},
			YAxis: Axis{
				Title:             &AxisTitle{Text: valueSeriesName},
				TickFormat:        axisTickFormat,
				SeparateThousands: true,
				GridColor:         gridColor,
			},
			YAxis2: Axis{
				Title:             &AxisTitle{Text: priceSeriesName},
				TickFormat:        axisTickFormat,
				SeparateThousands: true,
				GridColor:         gridColor,
				ShowGrid:          &noGrid,
				Overlaying:        "y",
				Side:              "right",
			},
		},
	}
}
