package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeHeader(t *testing.T) {
	cases := []struct {
		in     string
		expect string
	}{
		{in: "Sample\nsize[12]", expect: "sample size"},
		{in: "  Dates conducted ", expect: "dates conducted"},
		{in: "Lab[a]", expect: "lab"},
		{in: "Pollster[note 3]", expect: "pollster"},
		{in: "", expect: ""},
	}
	for _, test := range cases {
		require.Equal(t, test.expect, NormalizeHeader(test.in), test.in)
	}
}

func TestNormalizeKey(t *testing.T) {
	require.Equal(t, "ipsos mori", NormalizeKey("  Ipsos   MORI "))
	require.Equal(t, "yougov", NormalizeKey(" yougov "))
}

func TestContainsAny(t *testing.T) {
	require.True(t, ContainsAny("lib dem", []string{"lib", "ld"}))
	require.False(t, ContainsAny("green", []string{"lib", "ld"}))
	require.False(t, ContainsAny("anything", nil))
}

func TestCanonicalize(t *testing.T) {
	known := []string{"YouGov", "Ipsos MORI", "More in Common", "Find Out Now"}

	cases := []struct {
		in     string
		expect string
	}{
		{in: "YouGov", expect: "YouGov"},
		{in: "Yougov[4]", expect: "YouGov"},
		{in: "More In  Common", expect: "More in Common"},
		{in: "Unknown Pollster Ltd", expect: "Unknown Pollster Ltd"},
		{in: " Opinium ", expect: "Opinium"},
		{in: "", expect: ""},
	}
	for _, test := range cases {
		require.Equal(t, test.expect, Canonicalize(test.in, known), test.in)
	}
}
