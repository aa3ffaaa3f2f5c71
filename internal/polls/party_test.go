package polls

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisplayNames(t *testing.T) {
	require.Len(t, NationalParties, 7)
	require.NotContains(t, NationalParties, Others)

	for _, p := range Parties {
		name := p.DisplayName()
		back, ok := PartyFromDisplayName(name)
		require.True(t, ok, name)
		require.Equal(t, p, back)
	}

	_, ok := PartyFromDisplayName("Independent")
	require.False(t, ok)
}

func TestColor(t *testing.T) {
	require.Equal(t, "#E4003B", Color("Labour"))
	require.Equal(t, "#9a9a9a", Color("Other"))
	require.Equal(t, "#9a9a9a", Color("Residents Association"))
}
