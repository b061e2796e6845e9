package chart_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/robalyx/hivesync/internal/chart"
	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestRankingChartBuilder_Build(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		metrics []types.AuthorMetric
	}{
		{
			name: "payout ranking",
			metrics: []types.AuthorMetric{
				{Author: "Alice.Writer", Value: 200},
				{Author: "bob", Value: 50},
				{Author: "carol-x", Value: 12.5},
			},
		},
		{
			name:    "single author",
			metrics: []types.AuthorMetric{{Author: "solo", Value: 3}},
		},
		{
			name: "all zero",
			metrics: []types.AuthorMetric{
				{Author: "a", Value: 0},
				{Author: "b", Value: 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf, err := chart.NewRankingChartBuilder("Top authors", tt.metrics).
				WithValueFormat(func(v float64) string { return fmt.Sprintf("$%.1f", v) }).
				Build()
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(buf.Bytes(), pngSignature))
		})
	}
}

func TestRankingChartBuilder_Empty(t *testing.T) {
	t.Parallel()

	_, err := chart.NewRankingChartBuilder("Top authors", nil).Build()
	require.ErrorIs(t, err, chart.ErrNoData)
}
