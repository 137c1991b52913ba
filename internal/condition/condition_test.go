package condition

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAllSymbols(t *testing.T) {
	tests := []struct {
		op   string
		want Kind
	}{
		{"<", LessThan},
		{">", GreaterThan},
		{"<=", LessOrEqual},
		{">=", GreaterOrEqual},
		{"==", Equal},
		{"!=", NotEqual},
		{" > ", GreaterThan},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			got, err := Parse(tt.op)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejectsUnknownOperator(t *testing.T) {
	for _, op := range []string{"~=", "=", "<>", "", "gt", "eval(1)"} {
		_, err := Parse(op)
		var invalid *InvalidConditionError
		require.True(t, errors.As(err, &invalid), "operator %q", op)
		assert.Equal(t, op, invalid.Operator)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		op        string
		threshold float64
		value     float64
		want      bool
	}{
		{"<", 3, 2, true},
		{"<", 3, 3, false},
		{">", 3, 5, true},
		{">", 0, 0, false},
		{"<=", 3, 3, true},
		{">=", 3, 2.999, false},
		{"==", 1.5, 1.5, true},
		{"!=", 1.5, 1.5, false},
		{"!=", 1.5, 2, true},
	}

	for _, tt := range tests {
		c, err := New(tt.op, tt.threshold)
		require.NoError(t, err)
		assert.Equal(t, tt.want, c.Match(tt.value), "%v %s %v", tt.value, tt.op, tt.threshold)
	}
}

func TestNewRejectsNaNThreshold(t *testing.T) {
	_, err := New(">", math.NaN())
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}

func TestKindStringRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		got, err := Parse(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
		assert.True(t, k.Valid())
	}
	assert.False(t, Kind(0).Valid())
	assert.Equal(t, []string{"<", ">", "<=", ">=", "==", "!="}, Symbols())
}

func TestZeroConditionNeverMatches(t *testing.T) {
	var c Condition
	assert.False(t, c.Match(1))
}
