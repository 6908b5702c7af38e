package league

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Trade execution failures. All of them leave the league untouched.
var (
	ErrUnknownTeam       = errors.New("unknown team abbreviation")
	ErrSameTeam          = errors.New("trade must involve two different teams")
	ErrPlayerNotOnRoster = errors.New("player not on the named team's roster")
	ErrAlreadyExecuted   = errors.New("trade already executed")
	ErrPicksUnsupported  = errors.New("draft pick exchange is not supported")
	ErrTradeNotFound     = errors.New("trade not found")
)

// State is the aggregate root: every team keyed by abbreviation plus the
// append-only ledger of all trades ever created, superseded and rejected ones
// included. All roster mutation goes through ExecuteTrade so the one-roster
// invariant holds.
//
// Teams and Trades are exported for construction and for callers that
// serialize their own access. Anything that reads them concurrently with
// trade execution must go through TeamSnapshot/TradesSnapshot instead.
type State struct {
	mu     sync.Mutex
	Teams  map[string]*Team
	Trades []*Trade
}

// NewState creates an empty league.
func NewState() *State {
	return &State{Teams: make(map[string]*Team)}
}

// AddTeam registers a team under its abbreviation.
func (s *State) AddTeam(t *Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Teams[t.Abbreviation] = t
}

// TeamByAbbreviation returns the team with the given abbreviation, or nil.
func (s *State) TeamByAbbreviation(abbr string) *Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Teams[abbr]
}

// TeamAbbreviations returns every registered abbreviation, sorted.
func (s *State) TeamAbbreviations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	abbrs := make([]string, 0, len(s.Teams))
	for abbr := range s.Teams {
		abbrs = append(abbrs, abbr)
	}
	sort.Strings(abbrs)
	return abbrs
}

// TeamSnapshot returns a deep copy of the team, taken under the state lock.
// Safe to read while trades execute; TeamByAbbreviation hands out the live
// team and belongs on serialized paths only.
func (s *State) TeamSnapshot(abbr string) (Team, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.Teams[abbr]
	if t == nil {
		return Team{}, false
	}
	c := *t
	c.Roster = append([]Player(nil), t.Roster...)
	c.DraftPicks = append([]DraftPick(nil), t.DraftPicks...)
	return c, true
}

// TradesSnapshot returns deep copies of the ledger in insertion order, taken
// under the state lock.
func (s *State) TradesSnapshot() []Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	trades := make([]Trade, 0, len(s.Trades))
	for _, t := range s.Trades {
		trades = append(trades, *t.Clone())
	}
	return trades
}

// TeamCount returns the number of registered teams.
func (s *State) TeamCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Teams)
}

// TradeCount returns the number of ledger entries.
func (s *State) TradeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Trades)
}

// PlayerByID finds a player anywhere in the league, returning the player and
// the team that rosters them.
func (s *State) PlayerByID(id string) (*Player, *Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.Teams {
		if p := t.PlayerByID(id); p != nil {
			return p, t
		}
	}
	return nil, nil
}

// AppendTrade adds a trade to the ledger if its id is not already present.
func (s *State) AppendTrade(t *Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendTradeLocked(t)
}

func (s *State) appendTradeLocked(t *Trade) {
	for _, existing := range s.Trades {
		if existing.ID == t.ID {
			return
		}
	}
	s.Trades = append(s.Trades, t)
}

// TradeByID returns the ledger entry with the given id, or nil.
func (s *State) TradeByID(id string) *Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.Trades {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// MarkTradeStatus sets the status of the ledger entry with the given id.
func (s *State) MarkTradeStatus(id string, status TradeStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.Trades {
		if t.ID == id {
			t.Status = status
			return nil
		}
	}
	return ErrTradeNotFound
}

// ExecuteTrade swaps the named players between the two rosters. All-or-
// nothing: every validation failure returns before any roster is touched.
// Re-executing an already-accepted trade id fails with ErrAlreadyExecuted
// rather than silently succeeding.
func (s *State) ExecuteTrade(trade *Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trade.Team1 == trade.Team2 {
		return ErrSameTeam
	}
	team1 := s.Teams[trade.Team1]
	team2 := s.Teams[trade.Team2]
	if team1 == nil || team2 == nil {
		return fmt.Errorf("%w: %s/%s", ErrUnknownTeam, trade.Team1, trade.Team2)
	}
	if len(trade.Team1Picks) > 0 || len(trade.Team2Picks) > 0 {
		return ErrPicksUnsupported
	}
	for _, existing := range s.Trades {
		if existing.ID == trade.ID && existing.Status == StatusAccepted {
			return ErrAlreadyExecuted
		}
	}

	// Resolve every player before moving any.
	outgoing1, err := collectPlayers(team1, trade.Team1Players)
	if err != nil {
		return err
	}
	outgoing2, err := collectPlayers(team2, trade.Team2Players)
	if err != nil {
		return err
	}

	team1.Roster = removePlayers(team1.Roster, trade.Team1Players)
	team2.Roster = removePlayers(team2.Roster, trade.Team2Players)
	team1.Roster = append(team1.Roster, outgoing2...)
	team2.Roster = append(team2.Roster, outgoing1...)

	trade.Status = StatusAccepted
	for _, existing := range s.Trades {
		if existing.ID == trade.ID {
			existing.Status = StatusAccepted
		}
	}
	s.appendTradeLocked(trade)

	slog.Info("trade executed",
		"trade_id", trade.ID,
		"team1", trade.Team1,
		"team2", trade.Team2,
		"team1_players", len(trade.Team1Players),
		"team2_players", len(trade.Team2Players),
	)
	return nil
}

func collectPlayers(team *Team, ids []string) ([]Player, error) {
	players := make([]Player, 0, len(ids))
	for _, id := range ids {
		p := team.PlayerByID(id)
		if p == nil {
			return nil, fmt.Errorf("%w: %s on %s", ErrPlayerNotOnRoster, id, team.Abbreviation)
		}
		players = append(players, *p)
	}
	return players, nil
}

func removePlayers(roster []Player, ids []string) []Player {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := roster[:0]
	for _, p := range roster {
		if !drop[p.ID] {
			kept = append(kept, p)
		}
	}
	return kept
}

// ActivitySide describes one side of a trade in the activity feed.
type ActivitySide struct {
	Abbr    string   `json:"abbr"`
	Name    string   `json:"name"`
	Players []string `json:"players"`
}

// ActivityItem is one trade rendered for the activity feed.
type ActivityItem struct {
	ID         string       `json:"id"`
	Timestamp  string       `json:"timestamp"`
	Status     TradeStatus  `json:"status"`
	Team1      ActivitySide `json:"team1"`
	Team2      ActivitySide `json:"team2"`
	ProposedBy string       `json:"proposed_by"`
}

// RecentActivity returns up to limit trades, most recent first, with player
// ids resolved to names. Trades referencing teams that no longer exist are
// skipped.
func (s *State) RecentActivity(limit int) []ActivityItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := append([]*Trade(nil), s.Trades...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	items := make([]ActivityItem, 0, limit)
	for _, trade := range sorted {
		if len(items) >= limit {
			break
		}
		team1 := s.Teams[trade.Team1]
		team2 := s.Teams[trade.Team2]
		if team1 == nil || team2 == nil {
			continue
		}
		items = append(items, ActivityItem{
			ID:        trade.ID,
			Timestamp: trade.Timestamp.Format(time.RFC3339),
			Status:    trade.Status,
			Team1: ActivitySide{
				Abbr:    trade.Team1,
				Name:    team1.FullName(),
				Players: s.playerNamesLocked(trade.Team1Players),
			},
			Team2: ActivitySide{
				Abbr:    trade.Team2,
				Name:    team2.FullName(),
				Players: s.playerNamesLocked(trade.Team2Players),
			},
			ProposedBy: trade.ProposedBy,
		})
	}
	return items
}

func (s *State) playerNamesLocked(ids []string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		for _, t := range s.Teams {
			if p := t.PlayerByID(id); p != nil {
				names = append(names, p.Name)
				break
			}
		}
	}
	return names
}
