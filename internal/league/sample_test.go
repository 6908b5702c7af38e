package league

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleLeagueShape(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	state := SampleLeague(now)

	abbrs := state.TeamAbbreviations()
	require.Len(t, abbrs, 30)

	for _, abbr := range abbrs {
		team := state.TeamByAbbreviation(abbr)
		assert.Len(t, team.Roster, 15, "team %s", abbr)
		assert.Len(t, team.DraftPicks, 5, "team %s", abbr)
		assert.Equal(t, float64(DefaultSalaryCap), team.SalaryCap)
		assert.Equal(t, float64(DefaultLuxuryTax), team.LuxuryTax)
	}

	bos := state.TeamByAbbreviation("BOS")
	require.NotNil(t, bos)
	assert.Equal(t, "Boston Celtics", bos.FullName())
	assert.Equal(t, "East", bos.Conference)
	assert.Equal(t, "Atlantic", bos.Division)
}

func TestSamplePlayersDeterministic(t *testing.T) {
	a := SamplePlayers("TOR", 15)
	b := SamplePlayers("TOR", 15)
	assert.Equal(t, a, b)

	// Top roster slots carry the biggest salaries.
	assert.Greater(t, a[0].Salary, a[14].Salary)

	// Positions rotate through the full set.
	counts := make(map[Position]int)
	for _, p := range a {
		counts[p.Position]++
	}
	for _, pos := range AllPositions {
		assert.Equal(t, 3, counts[pos], "position %s", pos)
	}
}

func TestSampleDraftPicksFuture(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	state := SampleLeague(now)
	for _, pick := range state.TeamByAbbreviation("MIA").DraftPicks {
		assert.Greater(t, pick.Year, now.Year())
		assert.Equal(t, "MIA", pick.OriginalTeam)
	}
}
