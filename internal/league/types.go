// Package league provides the entity model and the shared league registry:
// players, teams, draft picks, trades, and the aggregate State that owns all
// roster mutation.
package league

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Position is a player's on-court position.
type Position string

const (
	PointGuard    Position = "PG"
	ShootingGuard Position = "SG"
	SmallForward  Position = "SF"
	PowerForward  Position = "PF"
	Center        Position = "C"
)

// AllPositions lists every position in roster order.
var AllPositions = []Position{PointGuard, ShootingGuard, SmallForward, PowerForward, Center}

// IdealCountPerPosition is the roster depth a team aims for at each position.
const IdealCountPerPosition = 2

// StatKey identifies a per-game statistic. The set is closed — payloads
// carrying unknown keys are dropped at the ingestion boundary.
type StatKey string

const (
	StatPPG    StatKey = "ppg"
	StatRPG    StatKey = "rpg"
	StatAPG    StatKey = "apg"
	StatSPG    StatKey = "spg"
	StatBPG    StatKey = "bpg"
	StatFGPct  StatKey = "fg_pct"
	StatFG3Pct StatKey = "fg3_pct"
)

// StatLine maps stat keys to per-game values.
type StatLine map[StatKey]float64

// Get returns the value for a key, defaulting absent keys to 0.
func (s StatLine) Get(k StatKey) float64 {
	if s == nil {
		return 0
	}
	return s[k]
}

// Player is a rostered player. Owned by exactly one team at any time; moves
// only through State.ExecuteTrade.
type Player struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Position      Position `json:"position"`
	Age           int      `json:"age"`
	Height        string   `json:"height"`
	Weight        int      `json:"weight"`
	Salary        float64  `json:"salary"`
	ContractYears int      `json:"contract_years"`
	Stats         StatLine `json:"stats"`
}

// DraftPick is a future draft asset. Tracked on the roster but never
// transferred by trade execution — trades carrying picks are rejected at
// validation time.
type DraftPick struct {
	Year              int    `json:"year"`
	Round             int    `json:"round"`
	OriginalTeam      string `json:"original_team"`
	Protected         bool   `json:"protected"`
	ProtectionDetails string `json:"protection_details,omitempty"`
}

// Default cap figures (2023-24 NBA season).
const (
	DefaultSalaryCap = 123_000_000
	DefaultLuxuryTax = 150_000_000
)

// Team is a franchise with a roster and draft assets. Abbreviation is the
// unique key used in all cross-references.
type Team struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Abbreviation string      `json:"abbreviation"`
	City         string      `json:"city"`
	Conference   string      `json:"conference"`
	Division     string      `json:"division"`
	Roster       []Player    `json:"players"`
	DraftPicks   []DraftPick `json:"draft_picks"`
	SalaryCap    float64     `json:"salary_cap"`
	LuxuryTax    float64     `json:"luxury_tax"`
}

// FullName returns "City Name", e.g. "Boston Celtics".
func (t *Team) FullName() string {
	return fmt.Sprintf("%s %s", t.City, t.Name)
}

// TotalSalary sums the salaries of every rostered player.
func (t *Team) TotalSalary() float64 {
	var total float64
	for _, p := range t.Roster {
		total += p.Salary
	}
	return total
}

// OverCap reports whether total salary exceeds the salary cap.
func (t *Team) OverCap() bool {
	return t.TotalSalary() > t.SalaryCap
}

// OverLuxuryTax reports whether total salary exceeds the luxury tax threshold.
func (t *Team) OverLuxuryTax() bool {
	return t.TotalSalary() > t.LuxuryTax
}

// AvailableCapSpace returns remaining cap room, never negative.
func (t *Team) AvailableCapSpace() float64 {
	if t.OverCap() {
		return 0
	}
	return t.SalaryCap - t.TotalSalary()
}

// PlayerByID returns the rostered player with the given id, or nil.
func (t *Team) PlayerByID(id string) *Player {
	for i := range t.Roster {
		if t.Roster[i].ID == id {
			return &t.Roster[i]
		}
	}
	return nil
}

// CountByPosition tallies rostered players at each position.
func (t *Team) CountByPosition() map[Position]int {
	counts := make(map[Position]int, len(AllPositions))
	for _, pos := range AllPositions {
		counts[pos] = 0
	}
	for _, p := range t.Roster {
		if _, ok := counts[p.Position]; ok {
			counts[p.Position]++
		}
	}
	return counts
}

// TradeStatus is the lifecycle state of a trade.
type TradeStatus string

const (
	StatusProposed  TradeStatus = "proposed"
	StatusAccepted  TradeStatus = "accepted"
	StatusRejected  TradeStatus = "rejected"
	StatusCountered TradeStatus = "countered"
)

// ProposedByUser is the sentinel actor for human-initiated trades.
const ProposedByUser = "user"

// Trade is a proposed player exchange between two teams. Created in the
// proposed state; moves to exactly one of accepted/rejected, or to countered
// when a sibling trade supersedes it.
type Trade struct {
	ID             string      `json:"id"`
	Team1          string      `json:"team1"`
	Team2          string      `json:"team2"`
	Team1Players   []string    `json:"team1_players"`
	Team2Players   []string    `json:"team2_players"`
	Team1Picks     []DraftPick `json:"team1_picks"`
	Team2Picks     []DraftPick `json:"team2_picks"`
	Status         TradeStatus `json:"status"`
	ProposedBy     string      `json:"proposed_by"`
	Timestamp      time.Time   `json:"timestamp"`
	CounterTradeID string      `json:"counter_trade_id,omitempty"`
}

// NewTrade creates a proposed trade between two teams. The id is time-based
// with a short random suffix so trades created in the same second stay
// unique.
func NewTrade(team1, team2, proposedBy string, now time.Time) *Trade {
	return &Trade{
		ID:         fmt.Sprintf("trade_%s_%s", now.Format("20060102150405"), uuid.NewString()[:8]),
		Team1:      team1,
		Team2:      team2,
		Status:     StatusProposed,
		ProposedBy: proposedBy,
		Timestamp:  now.Truncate(time.Second),
	}
}

// OutgoingFor returns the player ids the given team sends in this trade.
// Second return is false when the team is not a party to the trade.
func (t *Trade) OutgoingFor(abbr string) ([]string, bool) {
	switch abbr {
	case t.Team1:
		return t.Team1Players, true
	case t.Team2:
		return t.Team2Players, true
	}
	return nil, false
}

// IncomingFor returns the player ids the given team receives in this trade.
func (t *Trade) IncomingFor(abbr string) ([]string, bool) {
	switch abbr {
	case t.Team1:
		return t.Team2Players, true
	case t.Team2:
		return t.Team1Players, true
	}
	return nil, false
}

// OtherTeam returns the counterparty abbreviation for the given team.
func (t *Trade) OtherTeam(abbr string) string {
	if abbr == t.Team1 {
		return t.Team2
	}
	return t.Team1
}

// Clone returns a deep copy of the trade.
func (t *Trade) Clone() *Trade {
	c := *t
	c.Team1Players = append([]string(nil), t.Team1Players...)
	c.Team2Players = append([]string(nil), t.Team2Players...)
	c.Team1Picks = append([]DraftPick(nil), t.Team1Picks...)
	c.Team2Picks = append([]DraftPick(nil), t.Team2Picks...)
	return &c
}

// TradeProposal is a trade plus the proposing GM's pitch — the unit an agent
// receives as negotiation input.
type TradeProposal struct {
	Trade   *Trade `json:"trade"`
	Message string `json:"message"`
}

// TradeResponse is the outcome of a negotiation. CounterTrade is set only
// when Status is countered.
type TradeResponse struct {
	TradeID      string      `json:"trade_id"`
	Status       TradeStatus `json:"status"`
	Message      string      `json:"message"`
	CounterTrade *Trade      `json:"counter_trade,omitempty"`
}
