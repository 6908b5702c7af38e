package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raptors65/nba-gm-simulator/internal/league"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "league.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestHasStateEmpty(t *testing.T) {
	db := openTestDB(t)
	assert.False(t, db.HasState())

	state, err := db.LoadState()
	require.NoError(t, err)
	assert.Empty(t, state.Teams)
	assert.Empty(t, state.Trades)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := openTestDB(t)

	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	state := league.SampleLeague(now)

	// One executed trade and one still pending, in a known order.
	executed := league.NewTrade("BOS", "LAL", "BOS", now.Add(time.Hour))
	executed.Team1Players = []string{"BOS_1"}
	executed.Team2Players = []string{"LAL_1"}
	require.NoError(t, state.ExecuteTrade(executed))

	pending := league.NewTrade("TOR", "MIA", league.ProposedByUser, now.Add(2*time.Hour))
	pending.Team1Players = []string{"TOR_3"}
	pending.CounterTradeID = executed.ID
	state.AppendTrade(pending)

	require.NoError(t, db.SaveState(state))
	assert.True(t, db.HasState())

	loaded, err := db.LoadState()
	require.NoError(t, err)

	// Teams and rosters survive, including the executed swap.
	assert.Len(t, loaded.Teams, 30)
	assert.NotNil(t, loaded.TeamByAbbreviation("LAL").PlayerByID("BOS_1"))
	assert.NotNil(t, loaded.TeamByAbbreviation("BOS").PlayerByID("LAL_1"))
	assert.Len(t, loaded.TeamByAbbreviation("TOR").DraftPicks, 5)

	tor3, team := loaded.PlayerByID("TOR_3")
	require.NotNil(t, tor3)
	assert.Equal(t, "TOR", team.Abbreviation)
	assert.Equal(t, state.TeamByAbbreviation("TOR").PlayerByID("TOR_3").Stats, tor3.Stats)

	// The trade ledger survives in order, with statuses and timestamps.
	require.Len(t, loaded.Trades, 2)
	first, second := loaded.Trades[0], loaded.Trades[1]

	assert.Equal(t, executed.ID, first.ID)
	assert.Equal(t, league.StatusAccepted, first.Status)
	assert.Equal(t, []string{"BOS_1"}, first.Team1Players)
	assert.True(t, first.Timestamp.Equal(executed.Timestamp), "timestamp must survive to the second")

	assert.Equal(t, pending.ID, second.ID)
	assert.Equal(t, league.StatusProposed, second.Status)
	assert.Equal(t, executed.ID, second.CounterTradeID)
	assert.Equal(t, league.ProposedByUser, second.ProposedBy)
	assert.Empty(t, second.Team2Players)
}

func TestSaveStateIsFullReplace(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.SaveState(league.SampleLeague(now)))

	// Save a smaller league over it.
	small := league.NewState()
	small.AddTeam(&league.Team{
		ID: "1", Name: "Celtics", Abbreviation: "BOS", City: "Boston",
		Roster:    league.SamplePlayers("BOS", 3),
		SalaryCap: league.DefaultSalaryCap,
		LuxuryTax: league.DefaultLuxuryTax,
	})
	require.NoError(t, db.SaveState(small))

	loaded, err := db.LoadState()
	require.NoError(t, err)
	assert.Len(t, loaded.Teams, 1)
	assert.Len(t, loaded.TeamByAbbreviation("BOS").Roster, 3)
	assert.Empty(t, loaded.Trades)
}

func TestMetaRoundTrip(t *testing.T) {
	db := openTestDB(t)

	val, err := db.GetMeta("user_team")
	require.NoError(t, err)
	assert.Empty(t, val)

	require.NoError(t, db.SaveMeta("user_team", "TOR"))
	require.NoError(t, db.SaveMeta("user_team", "BOS")) // upsert

	val, err = db.GetMeta("user_team")
	require.NoError(t, err)
	assert.Equal(t, "BOS", val)
}

func TestSaveStateDuringConcurrentTrades(t *testing.T) {
	db := openTestDB(t)

	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	state := league.SampleLeague(now)

	errCh := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			trade := league.NewTrade("BOS", "LAL", "BOS", time.Now())
			if i%2 == 0 {
				trade.Team1Players = []string{"BOS_1"}
				trade.Team2Players = []string{"LAL_1"}
			} else {
				trade.Team1Players = []string{"LAL_1"}
				trade.Team2Players = []string{"BOS_1"}
			}
			if err := state.ExecuteTrade(trade); err != nil {
				errCh <- err
				return
			}
		}
	}()

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		require.NoError(t, db.SaveState(state))
	}

	select {
	case err := <-errCh:
		require.NoError(t, err)
	default:
	}

	loaded, err := db.LoadState()
	require.NoError(t, err)
	assert.Equal(t, 30, loaded.TeamCount())
	assert.Equal(t, 50, loaded.TradeCount())
}
