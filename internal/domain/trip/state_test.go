package trip

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateMerge(t *testing.T) {
	state := State{
		Destination: "Lisbon",
		Adults:      2,
		Interests:   []string{"Sightseeing"},
		Notes:       "original notes",
	}

	state.Merge(State{
		Destination:        "Porto",
		DestinationCountry: "Portugal",
		Interests:          []string{"Beaches", "Food & Dining"},
	})

	require.Equal(t, "Porto", state.Destination)
	require.Equal(t, "Portugal", state.DestinationCountry)
	require.Equal(t, 2, state.Adults, "zero values must not clobber")
	require.Equal(t, []string{"Beaches", "Food & Dining"}, state.Interests, "slices replace wholesale")
	require.Equal(t, "original notes", state.Notes)
}

func TestStateMergeAccumulatesLearnedPreferences(t *testing.T) {
	state := State{LearnedPreferences: []LearnedPreference{
		{Type: "dietary", Detail: "vegetarian"},
	}}

	state.Merge(State{LearnedPreferences: []LearnedPreference{
		{Type: "Dietary", Detail: "Vegetarian"}, // duplicate, case-insensitive
		{Type: "pace", Detail: "slow mornings"},
	}})

	require.Len(t, state.LearnedPreferences, 2)
	require.Equal(t, "vegetarian", state.LearnedPreferences[0].Detail)
	require.Equal(t, "slow mornings", state.LearnedPreferences[1].Detail)
}

func TestStateIsEmpty(t *testing.T) {
	require.True(t, State{}.IsEmpty())
	require.True(t, State{Notes: "   "}.IsEmpty())
	require.False(t, State{Destination: "Lisbon"}.IsEmpty())
	require.False(t, State{Pets: 1}.IsEmpty())
}

func TestDedupLearnedPreferences(t *testing.T) {
	prefs := DedupLearnedPreferences([]LearnedPreference{
		{Type: "dietary", Detail: "vegan", Item: "first"},
		{Type: "DIETARY", Detail: "Vegan", Item: "second"},
		{Type: "dietary", Detail: "gluten-free"},
	})
	require.Len(t, prefs, 2)
	require.Equal(t, "first", prefs[0].Item, "first occurrence wins")
}
