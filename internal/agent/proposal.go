package agent

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Raptors65/nba-gm-simulator/internal/league"
	"github.com/Raptors65/nba-gm-simulator/internal/valuation"
)

const (
	// needThreshold is the fill ratio under which a position counts as a
	// need worth shopping for.
	needThreshold = 1.5

	// valueCeiling excludes our best players from outgoing packages.
	valueCeiling = 50.0

	// salaryMatchRatio is the outgoing-salary target as a fraction of
	// incoming salary; minOutgoingSalary is the floor.
	salaryMatchRatio  = 0.7
	minOutgoingSalary = 1_000_000
)

// GenerateTradeProposal builds a proposal targeting another team: pick their
// players at our most-needed positions (or a mid-value player when no need
// qualifies), then assemble an outgoing package of our lower-value players
// that roughly matches salary. Returns nil when no target player can be
// identified.
func (a *Agent) GenerateTradeProposal(targetAbbr string) *league.TradeProposal {
	team := a.team()
	targetTeam := a.state.TeamByAbbreviation(targetAbbr)
	if team == nil || targetTeam == nil {
		return nil
	}

	evaluator := valuation.NewEvaluator(team)
	needs := valuation.PositionalNeeds(team)

	// Rank positions most-needed first (lowest fill ratio).
	ranked := make([]league.Position, 0, len(needs))
	for pos := range needs {
		ranked = append(ranked, pos)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if needs[ranked[i]] != needs[ranked[j]] {
			return needs[ranked[i]] < needs[ranked[j]]
		}
		return ranked[i] < ranked[j] // stable order for equal ratios
	})

	var targets []league.Player
	for _, pos := range ranked[:min(2, len(ranked))] {
		if needs[pos] >= needThreshold {
			continue
		}
		var matching []league.Player
		for _, p := range targetTeam.Roster {
			if p.Position == pos {
				matching = append(matching, p)
			}
		}
		if len(matching) == 0 {
			continue
		}
		sort.SliceStable(matching, func(i, j int) bool {
			return evaluator.PlayerValue(matching[i]) > evaluator.PlayerValue(matching[j])
		})
		targets = append(targets, matching[0])
	}

	// No positional match — shop for value instead, deliberately avoiding
	// their best asset.
	if len(targets) == 0 && len(targetTeam.Roster) > 0 {
		byValue := append([]league.Player(nil), targetTeam.Roster...)
		sort.SliceStable(byValue, func(i, j int) bool {
			return evaluator.PlayerValue(byValue[i]) > evaluator.PlayerValue(byValue[j])
		})
		idx := len(byValue) / 3
		if idx > len(byValue)-1 {
			idx = len(byValue) - 1
		}
		targets = []league.Player{byValue[idx]}
	}

	if len(targets) == 0 {
		return nil
	}

	var incomingSalary float64
	for _, p := range targets {
		incomingSalary += p.Salary
	}
	targetOutgoing := incomingSalary * salaryMatchRatio
	if targetOutgoing < minOutgoingSalary {
		targetOutgoing = minOutgoingSalary
	}

	// Assemble the outgoing package from our cheapest useful players.
	ourSorted := append([]league.Player(nil), team.Roster...)
	sort.SliceStable(ourSorted, func(i, j int) bool {
		return evaluator.PlayerValue(ourSorted[i]) < evaluator.PlayerValue(ourSorted[j])
	})

	var outgoing []league.Player
	var outgoingSalary float64
	for _, p := range ourSorted {
		if evaluator.PlayerValue(p) > valueCeiling {
			continue
		}
		outgoing = append(outgoing, p)
		outgoingSalary += p.Salary
		if len(outgoing) >= 1 && outgoingSalary >= targetOutgoing {
			break
		}
	}
	if len(outgoing) == 0 && len(ourSorted) > 0 {
		outgoing = []league.Player{ourSorted[0]}
		outgoingSalary = ourSorted[0].Salary
	}
	if len(outgoing) == 0 {
		return nil
	}

	trade := league.NewTrade(a.TeamAbbr, targetAbbr, a.TeamAbbr, a.clock())
	for _, p := range outgoing {
		trade.Team1Players = append(trade.Team1Players, p.ID)
	}
	for _, p := range targets {
		trade.Team2Players = append(trade.Team2Players, p.ID)
	}

	slog.Debug("trade proposal built",
		"from", a.TeamAbbr,
		"to", targetAbbr,
		"outgoing_salary", dollars(outgoingSalary),
		"incoming_salary", dollars(incomingSalary),
	)

	return &league.TradeProposal{
		Trade:   trade,
		Message: proposalMessage(outgoing, targets, targetTeam),
	}
}

func proposalMessage(outgoing, targets []league.Player, targetTeam *league.Team) string {
	var b strings.Builder
	b.WriteString("I'm proposing a trade where we send ")
	b.WriteString(joinNames(outgoing))
	fmt.Fprintf(&b, " to the %s in exchange for ", targetTeam.FullName())
	b.WriteString(joinNames(targets))
	b.WriteString(". This trade addresses our need for ")
	positions := make([]string, 0, len(targets))
	for _, p := range targets {
		positions = append(positions, string(p.Position))
	}
	b.WriteString(strings.Join(positions, ", "))
	return b.String()
}

func joinNames(players []league.Player) string {
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}
