package dashboard

import (
	"encoding/json"

	"fintrack/internal/core"
)

const (
	CategoryChartTitle = "Where Your Money Goes"
	TrendChartTitle    = "Money In vs Money Out by Month"

	CategoryCanvas = "expenseChart"
	TrendCanvas    = "monthlyChart"
)

var categoryColors = []string{
	"#e74c3c", "#3498db", "#2ecc71", "#f1c40f",
	"#9b59b6", "#e67e22", "#1abc9c", "#34495e",
}

const (
	moneyInColor  = "#2ecc71"
	moneyOutColor = "#e74c3c"
)

// Palette holds the theme-dependent colours charts need.
type Palette struct {
	Theme     core.Theme
	TextColor string
}

var palettes = map[core.Theme]Palette{
	core.Light: {Theme: core.Light, TextColor: "#2c3e50"},
	core.Dark:  {Theme: core.Dark, TextColor: "#ecf0f1"},
}

// PaletteFor returns the palette of t, light for anything unknown.
func PaletteFor(t core.Theme) Palette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[core.Light]
}

// ChartSpec is a Chart.js configuration.
type ChartSpec struct {
	Type    string       `json:"type"`
	Data    ChartData    `json:"data"`
	Options ChartOptions `json:"options"`
}

type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Dataset struct {
	Label           string    `json:"label,omitempty"`
	Data            []float64 `json:"data"`
	BackgroundColor any       `json:"backgroundColor"`
}

type ChartOptions struct {
	Responsive bool         `json:"responsive"`
	Scales     *Scales      `json:"scales,omitempty"`
	Plugins    ChartPlugins `json:"plugins"`
}

type Scales struct {
	X Axis `json:"x"`
	Y Axis `json:"y"`
}

type Axis struct {
	Stacked bool      `json:"stacked"`
	Ticks   TextStyle `json:"ticks"`
}

type ChartPlugins struct {
	Legend Legend `json:"legend"`
	Title  Title  `json:"title"`
}

type Legend struct {
	Position string    `json:"position"`
	Labels   TextStyle `json:"labels"`
}

type Title struct {
	Display bool   `json:"display"`
	Text    string `json:"text"`
	Color   string `json:"color"`
}

type TextStyle struct {
	Color string `json:"color"`
}

// JSON returns the spec encoded for embedding in the page.
func (c ChartSpec) JSON() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func plugins(title string, p Palette) ChartPlugins {
	return ChartPlugins{
		Legend: Legend{Position: "bottom", Labels: TextStyle{Color: p.TextColor}},
		Title:  Title{Display: true, Text: title, Color: p.TextColor},
	}
}

// CategoryChart builds the expense breakdown pie.
func CategoryChart(cats []core.CategoryAmount, p Palette) ChartSpec {
	labels := make([]string, 0, len(cats))
	data := make([]float64, 0, len(cats))
	for _, c := range cats {
		labels = append(labels, c.Name)
		data = append(data, c.Amount.Decimal().InexactFloat64())
	}
	return ChartSpec{
		Type: "pie",
		Data: ChartData{
			Labels:   labels,
			Datasets: []Dataset{{Data: data, BackgroundColor: categoryColors}},
		},
		Options: ChartOptions{Responsive: true, Plugins: plugins(CategoryChartTitle, p)},
	}
}

// TrendChart builds the monthly income/expense bars.
func TrendChart(months []core.MonthTotals, p Palette) ChartSpec {
	labels := make([]string, 0, len(months))
	in := make([]float64, 0, len(months))
	out := make([]float64, 0, len(months))
	for _, m := range months {
		labels = append(labels, m.Label())
		in = append(in, m.Income.Decimal().InexactFloat64())
		out = append(out, m.Expenses.Decimal().InexactFloat64())
	}
	ticks := TextStyle{Color: p.TextColor}
	return ChartSpec{
		Type: "bar",
		Data: ChartData{
			Labels: labels,
			Datasets: []Dataset{
				{Label: "Money In", Data: in, BackgroundColor: moneyInColor},
				{Label: "Money Out", Data: out, BackgroundColor: moneyOutColor},
			},
		},
		Options: ChartOptions{
			Responsive: true,
			Scales:     &Scales{X: Axis{Ticks: ticks}, Y: Axis{Ticks: ticks}},
			Plugins:    plugins(TrendChartTitle, p),
		},
	}
}
