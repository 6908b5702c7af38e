package valuation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raptors65/nba-gm-simulator/internal/league"
)

// scorer builds a player whose efficiency factor works out to exactly 1.0
// (salary = base production / 10, in millions), so PlayerValue reduces to
// base * needFactor * ageFactor * contractFactor.
func scorer(id string, pos league.Position, ppg float64) league.Player {
	return league.Player{
		ID:            id,
		Name:          "Player " + id,
		Position:      pos,
		Age:           26,
		Salary:        ppg / 10 * 1_000_000,
		ContractYears: 1,
		Stats:         league.StatLine{league.StatPPG: ppg},
	}
}

// balancedTeam has exactly ideal depth at every position, so need factors are
// 1.0 and no positional penalties apply to symmetric trades.
func balancedTeam(abbr string) *league.Team {
	team := &league.Team{
		ID: abbr, Name: abbr, Abbreviation: abbr, City: abbr,
		SalaryCap: league.DefaultSalaryCap,
		LuxuryTax: league.DefaultLuxuryTax,
	}
	for _, pos := range league.AllPositions {
		for i := 1; i <= league.IdealCountPerPosition; i++ {
			id := fmt.Sprintf("%s_%s%d", abbr, pos, i)
			team.Roster = append(team.Roster, scorer(id, pos, 10))
		}
	}
	return team
}

func twoTeamState(bos, lal *league.Team) *league.State {
	state := league.NewState()
	state.AddTeam(bos)
	state.AddTeam(lal)
	return state
}

func TestPlayerValueBaseline(t *testing.T) {
	team := balancedTeam("BOS")
	e := NewEvaluator(team)

	// base 10, every factor 1.0.
	v := e.PlayerValue(scorer("x", league.PointGuard, 10))
	assert.InDelta(t, 10.0, v, 1e-9)
}

func TestPlayerValueMonotonicInStats(t *testing.T) {
	team := balancedTeam("BOS")
	e := NewEvaluator(team)

	low := scorer("low", league.PointGuard, 10)
	high := scorer("high", league.PointGuard, 10)
	high.Stats = league.StatLine{
		league.StatPPG: 12,
		league.StatRPG: 4,
		league.StatAPG: 3,
	}
	high.Salary = low.Salary // same cost, more production

	assert.Greater(t, e.PlayerValue(high), e.PlayerValue(low))
}

func TestPlayerValueAgeCurve(t *testing.T) {
	team := balancedTeam("BOS")
	e := NewEvaluator(team)

	tests := []struct {
		age    int
		factor float64
	}{
		{19, 0.80},
		{22, 0.95},
		{24, 1.00},
		{29, 1.00},
		{32, 0.90},
		{35, 0.75},
	}
	for _, tc := range tests {
		p := scorer("x", league.PointGuard, 10)
		p.Age = tc.age
		assert.InDelta(t, 10*tc.factor, e.PlayerValue(p), 1e-9, "age %d", tc.age)
	}
}

func TestPlayerValueContractLength(t *testing.T) {
	team := balancedTeam("BOS")
	e := NewEvaluator(team)

	p := scorer("x", league.PointGuard, 10)
	p.ContractYears = 3
	assert.InDelta(t, 10*0.9, e.PlayerValue(p), 1e-9)
}

func TestPlayerValueEfficiencyClamped(t *testing.T) {
	team := balancedTeam("BOS")
	e := NewEvaluator(team)

	overpaid := scorer("x", league.PointGuard, 20)
	overpaid.Salary = 100_000_000
	assert.InDelta(t, 20*0.5, e.PlayerValue(overpaid), 1e-9)

	bargain := scorer("y", league.PointGuard, 20)
	bargain.Salary = 500_000
	assert.InDelta(t, 20*1.5, e.PlayerValue(bargain), 1e-9)
}

func TestPlayerValueNeedFactor(t *testing.T) {
	// A team with no centers values a center at 2x.
	team := balancedTeam("BOS")
	kept := team.Roster[:0]
	for _, p := range team.Roster {
		if p.Position != league.Center {
			kept = append(kept, p)
		}
	}
	team.Roster = kept

	e := NewEvaluator(team)
	assert.InDelta(t, 20.0, e.PlayerValue(scorer("c", league.Center, 10)), 1e-9)
}

func TestPositionalNeeds(t *testing.T) {
	team := balancedTeam("BOS")
	needs := PositionalNeeds(team)
	for _, pos := range league.AllPositions {
		assert.InDelta(t, 1.0, needs[pos], 1e-9, "position %s", pos)
	}
}

func tradeBetween(bos, lal *league.Team, out, in []string) *league.Trade {
	trade := league.NewTrade(bos.Abbreviation, lal.Abbreviation, bos.Abbreviation, time.Now())
	trade.Team1Players = out
	trade.Team2Players = in
	return trade
}

func TestEvaluateTradeAcceptable(t *testing.T) {
	bos := balancedTeam("BOS")
	lal := balancedTeam("LAL")
	lal.Roster = append(lal.Roster, scorer("LAL_star", league.PointGuard, 12))
	state := twoTeamState(bos, lal)

	trade := tradeBetween(bos, lal, []string{"BOS_PG1"}, []string{"LAL_star"})

	eval, err := NewEvaluator(bos).EvaluateTrade(trade, state)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, eval.ValueDifference, 1e-9)
	assert.True(t, eval.Acceptable)
	assert.False(t, eval.CounterNeeded)
	assert.Equal(t, "This trade provides good value for our team.", eval.Reasoning)
}

func TestEvaluateTradeCounterBand(t *testing.T) {
	bos := balancedTeam("BOS")
	lal := balancedTeam("LAL")
	lal.Roster = append(lal.Roster, scorer("LAL_role", league.PointGuard, 4))
	state := twoTeamState(bos, lal)

	trade := tradeBetween(bos, lal, []string{"BOS_PG1"}, []string{"LAL_role"})

	eval, err := NewEvaluator(bos).EvaluateTrade(trade, state)
	require.NoError(t, err)

	assert.InDelta(t, -6.0, eval.ValueDifference, 1e-9)
	assert.False(t, eval.Acceptable)
	assert.True(t, eval.CounterNeeded)
}

func TestEvaluateTradeRejected(t *testing.T) {
	bos := balancedTeam("BOS")
	lal := balancedTeam("LAL")
	lal.Roster = append(lal.Roster, scorer("LAL_scrub", league.PointGuard, 0))
	state := twoTeamState(bos, lal)

	trade := tradeBetween(bos, lal, []string{"BOS_PG1"}, []string{"LAL_scrub"})

	eval, err := NewEvaluator(bos).EvaluateTrade(trade, state)
	require.NoError(t, err)

	assert.InDelta(t, -10.0, eval.ValueDifference, 1e-9)
	assert.False(t, eval.Acceptable)
	assert.False(t, eval.CounterNeeded)
	assert.Equal(t, "This trade provides insufficient value for our team.", eval.Reasoning)
}

func TestEvaluateTradePositionalDeficitPenalty(t *testing.T) {
	bos := balancedTeam("BOS")
	lal := balancedTeam("LAL")
	lal.Roster = append(lal.Roster, scorer("LAL_sf", league.SmallForward, 10))
	state := twoTeamState(bos, lal)

	// Swap a PG out for an SF: even value, but we drop below ideal PG depth.
	trade := tradeBetween(bos, lal, []string{"BOS_PG1"}, []string{"LAL_sf"})

	eval, err := NewEvaluator(bos).EvaluateTrade(trade, state)
	require.NoError(t, err)

	assert.Equal(t, -1, eval.PositionBalance[league.PointGuard])
	assert.Equal(t, 1, eval.PositionBalance[league.SmallForward])
	assert.InDelta(t, -5.0, eval.ValueDifference, 1e-9)
	assert.False(t, eval.Acceptable)
}

func TestEvaluateTradeTaxCrossingPenalty(t *testing.T) {
	bos := balancedTeam("BOS")
	// Push BOS just under the luxury tax line.
	for i := range bos.Roster {
		bos.Roster[i].Salary = 14_900_000
	}
	lal := balancedTeam("LAL")
	incoming := scorer("LAL_big", league.PointGuard, 10)
	incoming.Salary = 2_000_000
	lal.Roster = append(lal.Roster, incoming)
	state := twoTeamState(bos, lal)

	trade := tradeBetween(bos, lal, nil, []string{"LAL_big"})

	eval, err := NewEvaluator(bos).EvaluateTrade(trade, state)
	require.NoError(t, err)

	assert.False(t, eval.CapStatus.CurrentOverTax)
	assert.True(t, eval.CapStatus.NewOverTax)
	assert.True(t, eval.CapStatus.CurrentOverCap)
	// Incoming value 5 (efficiency floor), minus the flat crossing penalty.
	assert.InDelta(t, -5.0, eval.ValueDifference, 1e-9)
}

func TestEvaluateTradeNotAParty(t *testing.T) {
	bos := balancedTeam("BOS")
	lal := balancedTeam("LAL")
	nyk := balancedTeam("NYK")
	state := twoTeamState(bos, lal)
	state.AddTeam(nyk)

	trade := tradeBetween(bos, lal, []string{"BOS_PG1"}, []string{"LAL_PG1"})

	_, err := NewEvaluator(nyk).EvaluateTrade(trade, state)
	assert.Error(t, err)
}

func TestEvaluateTradeUnknownCounterparty(t *testing.T) {
	bos := balancedTeam("BOS")
	state := league.NewState()
	state.AddTeam(bos)

	trade := tradeBetween(bos, balancedTeam("LAL"), []string{"BOS_PG1"}, nil)

	_, err := NewEvaluator(bos).EvaluateTrade(trade, state)
	assert.ErrorIs(t, err, league.ErrUnknownTeam)
}

func TestReasoningTiers(t *testing.T) {
	tests := []struct {
		vd   float64
		want string
	}{
		{15, "This trade is highly favorable for our team, providing significant value."},
		{5, "This trade provides good value for our team."},
		{-2, "This trade is close to fair value, with only minor disadvantages."},
		{-7, "This trade is slightly unfavorable but could be acceptable with modifications."},
		{-20, "This trade provides insufficient value for our team."},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, reasoning(tc.vd), "vd %.1f", tc.vd)
	}
}
