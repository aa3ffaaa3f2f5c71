package weights

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestRecency(t *testing.T) {
	cases := []struct {
		age      float64
		expected float64
	}{
		{age: 0, expected: 1.0},
		{age: 3, expected: 1.0},
		{age: 6.99, expected: 1.0},
		{age: 7, expected: 0.75},
		{age: 13.5, expected: 0.75},
		{age: 14, expected: 0.5},
		{age: 28, expected: 0.25},
		{age: 41.999, expected: 0.25},
		{age: 42, expected: 0.1},
		{age: 400, expected: 0.1},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, Recency(test.age), "age %v", test.age)
	}
}

func TestPollster(t *testing.T) {
	table := DefaultTable()

	require.Equal(t, 1.1, table.Pollster("YouGov"))
	require.Equal(t, 1.1, table.Pollster(" yougov "))
	require.Equal(t, 1.1, table.Pollster("More  in Common"))
	require.Equal(t, 1.0, table.Pollster("Opinium"))
	require.Equal(t, 0.9, table.Pollster("Find Out Now"))
	require.Equal(t, 0.9, table.Pollster("Unknown Pollster Ltd"))
	require.Equal(t, UnknownPollster, table.Pollster(""))
}

func TestSample(t *testing.T) {
	require.InDelta(t, math.Sqrt(3000), Sample(ptr(3600)), 0.0001)
	require.InDelta(t, math.Sqrt(1000), Sample(nil), 0.0001)
	require.InDelta(t, math.Sqrt(1000), Sample(ptr(0)), 0.0001)
	require.InDelta(t, 40.0, Sample(ptr(1600)), 0.0001)
}

func TestWeight(t *testing.T) {
	table := DefaultTable()

	w := table.Weight(3, "YouGov", ptr(2500))
	require.InDelta(t, 1.1*50, w, 0.0001)

	// negative ages are clamped
	require.Equal(t, table.Weight(0, "Opinium", nil), table.Weight(-5, "Opinium", nil))

	for _, age := range []float64{0, 10, 20, 30, 1000} {
		require.Greater(t, table.Weight(age, "nobody", nil), 0.0)
	}
}

func TestNewTable(t *testing.T) {
	table, err := NewTable(map[string]float64{
		"YouGov":         0.5,
		"  New Pollster": 1.2,
	})
	require.NoError(t, err)
	require.Equal(t, 0.5, table.Pollster("yougov"))
	require.Equal(t, 1.2, table.Pollster("new pollster"))
	require.Contains(t, table.Pollsters(), "New Pollster")
	require.Len(t, table.Pollsters(), len(defaultPollsters)+1)

	// the default table is unaffected
	require.Equal(t, 1.1, DefaultTable().Pollster("yougov"))

	_, err = NewTable(map[string]float64{"YouGov": 0})
	require.Error(t, err)
	_, err = NewTable(map[string]float64{"YouGov": -1})
	require.Error(t, err)
	_, err = NewTable(map[string]float64{" ": 1})
	require.Error(t, err)
}
