// Package chart renders author rankings as PNG bar charts.
package chart

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/robalyx/hivesync/pkg/utils"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("ranking has no entries to chart")

// Chart dimensions and styling constants.
const (
	// chartWidth is the rendered image width in pixels.
	chartWidth = 1024
	// chartHeight is the rendered image height in pixels.
	chartHeight = 512
	// barWidth is the width of each bar in pixels.
	barWidth = 40
	// barSpacing is the gap between bars.
	barSpacing = 12

	titleFontSize = 12.0
	xAxisFontSize = 9.0
	yAxisFontSize = 10.0
	gridLineWidth = 1.0

	paddingTop    = 40
	paddingBottom = 20
	paddingLeft   = 20
	paddingRight  = 20
)

var barColor = drawing.ColorFromHex("e31337")

// RankingChartBuilder creates a bar chart from an author ranking.
type RankingChartBuilder struct {
	title   string
	metrics []types.AuthorMetric
	format  func(float64) string
}

// NewRankingChartBuilder creates a builder for the given ranking, already sorted and truncated.
func NewRankingChartBuilder(title string, metrics []types.AuthorMetric) *RankingChartBuilder {
	return &RankingChartBuilder{
		title:   title,
		metrics: metrics,
		format: func(v float64) string {
			return fmt.Sprintf("%.0f", v)
		},
	}
}

// WithValueFormat sets how y-axis values are labelled.
func (b *RankingChartBuilder) WithValueFormat(format func(float64) string) *RankingChartBuilder {
	b.format = format
	return b
}

// Build renders the chart to PNG.
func (b *RankingChartBuilder) Build() (*bytes.Buffer, error) {
	if len(b.metrics) == 0 {
		return nil, ErrNoData
	}

	graph := chart.BarChart{
		Title:      b.title,
		TitleStyle: chart.Style{FontSize: titleFontSize},
		Background: chart.Style{
			Padding: chart.Box{
				Top:    paddingTop,
				Left:   paddingLeft,
				Right:  paddingRight,
				Bottom: paddingBottom,
			},
		},
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		XAxis: chart.Style{
			FontSize:            xAxisFontSize,
			TextRotationDegrees: 45.0,
		},
		YAxis: chart.YAxis{
			Style: chart.Style{FontSize: yAxisFontSize},
			GridMajorStyle: chart.Style{
				StrokeColor: chart.ColorAlternateGray,
				StrokeWidth: gridLineWidth,
			},
			Range: b.valueRange(),
			ValueFormatter: func(v any) string {
				if f, ok := v.(float64); ok {
					return b.format(f)
				}
				return ""
			},
		},
		Bars: b.bars(),
	}

	buf := new(bytes.Buffer)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("failed to render ranking chart: %w", err)
	}

	return buf, nil
}

// bars converts the ranking into labelled bars.
func (b *RankingChartBuilder) bars() []chart.Value {
	bars := make([]chart.Value, len(b.metrics))
	for i, m := range b.metrics {
		bars[i] = chart.Value{
			Label: utils.NormalizeName(m.Author),
			Value: m.Value,
			Style: chart.Style{
				FillColor:   barColor,
				StrokeColor: barColor,
			},
		}
	}
	return bars
}

// valueRange spans zero to the largest value so equal bars still render.
func (b *RankingChartBuilder) valueRange() *chart.ContinuousRange {
	lowest, highest := 0.0, 0.0
	for _, m := range b.metrics {
		lowest = min(lowest, m.Value)
		highest = max(highest, m.Value)
	}

	if highest == lowest {
		highest = lowest + 1
	}

	return &chart.ContinuousRange{Min: lowest, Max: highest}
}
