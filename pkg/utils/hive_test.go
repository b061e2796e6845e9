package utils_test

import (
	"testing"

	"github.com/robalyx/hivesync/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "asset string", input: "10.700 HIVE", want: 10.7},
		{name: "hbd asset", input: "5.123 HBD", want: 5.123},
		{name: "integer", input: "42", want: 42},
		{name: "leading dot", input: ".5 HIVE", want: 0.5},
		{name: "surrounding space", input: "  3.25 HIVE ", want: 3.25},
		{name: "empty", input: "", want: 0},
		{name: "non numeric", input: "HIVE 10", want: 0},
		{name: "trailing dot", input: "7. HIVE", want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, utils.ParseAmount(tt.input), 1e-9)
		})
	}
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "Alice", want: "alice"},
		{input: "bob.dev", want: "bob_dev"},
		{input: "hive-io", want: "hive_io"},
		{input: "snake_case9", want: "snake_case9"},
		{input: "José", want: "jose"},
		{input: "日本", want: "__"},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.NormalizeName(tt.input))
		})
	}
}
