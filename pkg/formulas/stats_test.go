package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.True(t, math.IsNaN(Mean(nil)))
	assert.InDelta(t, 0.02, Mean([]float64{0.01, 0.03}), 1e-12)
	assert.InDelta(t, -0.005, Mean([]float64{0.01, -0.02}), 1e-12)
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name     string
		data     []float64
		expected float64
	}{
		{"odd count", []float64{5, 1, 3}, 3},
		{"even count averages middle pair", []float64{4, 1, 3, 2}, 2.5},
		{"single value", []float64{7}, 7},
		{"duplicates", []float64{100, 100, 100, 500}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Median(tt.data))
		})
	}

	assert.True(t, math.IsNaN(Median(nil)))
}

func TestMedian_DoesNotReorderInput(t *testing.T) {
	data := []float64{3, 1, 2}
	Median(data)
	assert.Equal(t, []float64{3, 1, 2}, data)
}

func TestCompoundReturn(t *testing.T) {
	tests := []struct {
		name     string
		returns  []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"two days", []float64{0.01, 0.02}, 1.01*1.02 - 1},
		{"gain then loss", []float64{0.10, -0.10}, 1.1*0.9 - 1},
		{"three days", []float64{0.01, -0.005, 0.02}, 1.01 * 0.995 * 1.02 - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CompoundReturn(tt.returns), 1e-12)
		})
	}
}

func TestCompoundReturn_SingleDayIsExact(t *testing.T) {
	for _, r := range []float64{0.1, -0.0337, 0.0123456789, 0} {
		assert.Equal(t, r, CompoundReturn([]float64{r}))
	}
}

func TestCompoundReturn_NotSimpleSum(t *testing.T) {
	returns := []float64{0.5, 0.5}
	assert.InDelta(t, 1.25, CompoundReturn(returns), 1e-12)
	assert.NotEqual(t, 1.0, CompoundReturn(returns))
}

func TestShareAtLeast(t *testing.T) {
	assert.True(t, math.IsNaN(ShareAtLeast(nil, 0)))
	assert.Equal(t, 0.5, ShareAtLeast([]float64{0.01, -0.02}, 0))
	assert.Equal(t, 1.0, ShareAtLeast([]float64{0, 0.3}, 0))
	assert.Equal(t, 0.0, ShareAtLeast([]float64{-0.1}, 0))
}

func TestSum(t *testing.T) {
	assert.Equal(t, 0.0, Sum(nil))
	assert.InDelta(t, 600.0, Sum([]float64{100, 200, 300}), 1e-9)
}
