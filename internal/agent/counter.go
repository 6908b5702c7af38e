package agent

import (
	"sort"

	"github.com/Raptors65/nba-gm-simulator/internal/league"
	"github.com/Raptors65/nba-gm-simulator/internal/valuation"
)

// removeFromDealProbability biases the counter-offer search toward pulling
// our best player out of the deal rather than asking for more back.
const removeFromDealProbability = 0.7

// CreateCounterOffer searches for a modification of the trade that is more
// favorable to us: usually removing our single highest-valued outgoing
// player, otherwise adding one of their mid-to-lower value players (a
// reasonable ask, not their best asset). Returns nil when no modification is
// possible — the fixed point of the search.
func (a *Agent) CreateCounterOffer(original *league.Trade) *league.Trade {
	team := a.team()
	otherTeam := a.state.TeamByAbbreviation(original.OtherTeam(a.TeamAbbr))
	if team == nil || otherTeam == nil {
		return nil
	}

	counter := league.NewTrade(original.Team1, original.Team2, a.TeamAbbr, a.clock())
	counter.Team1Players = append([]string(nil), original.Team1Players...)
	counter.Team2Players = append([]string(nil), original.Team2Players...)
	counter.Team1Picks = append([]league.DraftPick(nil), original.Team1Picks...)
	counter.Team2Picks = append([]league.DraftPick(nil), original.Team2Picks...)
	counter.CounterTradeID = original.ID

	outgoingIDs, _ := original.OutgoingFor(a.TeamAbbr)
	incomingIDs, _ := original.IncomingFor(a.TeamAbbr)

	evaluator := valuation.NewEvaluator(team)
	modified := false

	if len(outgoingIDs) > 0 && a.rng.Bool(removeFromDealProbability) {
		// Pull our most valuable piece out of the deal.
		highestID := ""
		highestValue := 0.0
		for _, id := range outgoingIDs {
			p := team.PlayerByID(id)
			if p == nil {
				continue
			}
			if v := evaluator.PlayerValue(*p); highestID == "" || v > highestValue {
				highestID = id
				highestValue = v
			}
		}
		if highestID != "" {
			if a.TeamAbbr == counter.Team1 {
				counter.Team1Players = removeID(counter.Team1Players, highestID)
			} else {
				counter.Team2Players = removeID(counter.Team2Players, highestID)
			}
			modified = true
		}
	} else {
		// Ask for one more of their players, from the middle of their
		// value distribution.
		inTrade := make(map[string]bool, len(incomingIDs))
		for _, id := range incomingIDs {
			inTrade[id] = true
		}
		var available []league.Player
		for _, p := range otherTeam.Roster {
			if !inTrade[p.ID] {
				available = append(available, p)
			}
		}
		if len(available) > 0 {
			sort.SliceStable(available, func(i, j int) bool {
				return evaluator.PlayerValue(available[i]) > evaluator.PlayerValue(available[j])
			})
			index := len(available) / 3
			if index > len(available)-1 {
				index = len(available) - 1
			}
			pick := available[index]
			if a.TeamAbbr == counter.Team1 {
				counter.Team2Players = append(counter.Team2Players, pick.ID)
			} else {
				counter.Team1Players = append(counter.Team1Players, pick.ID)
			}
			modified = true
		}
	}

	if !modified {
		return nil
	}
	return counter
}

func removeID(ids []string, id string) []string {
	kept := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			kept = append(kept, v)
		}
	}
	return kept
}
