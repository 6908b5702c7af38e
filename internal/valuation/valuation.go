// Package valuation converts players and proposed trades into scalar values
// from one team's perspective. The model is deterministic: stats, positional
// need, age curve, contract length, and salary efficiency — no external
// lookups.
package valuation

import (
	"fmt"

	"github.com/Raptors65/nba-gm-simulator/internal/league"
)

// Stat weights for the base value.
const (
	ppgWeight = 1.0
	rpgWeight = 0.7
	apgWeight = 0.7
)

// Evaluation is the deterministic fairness breakdown of a trade from the
// evaluating team's perspective. ValueDifference is signed: positive favors
// us.
type Evaluation struct {
	OurValue         float64                 `json:"our_value"`
	TheirValue       float64                 `json:"their_value"`
	ValueDifference  float64                 `json:"value_difference"`
	SalaryDifference float64                 `json:"salary_difference"`
	CapStatus        CapStatus               `json:"cap_status"`
	PositionBalance  map[league.Position]int `json:"position_balance"`
	Acceptable       bool                    `json:"acceptable"`
	CounterNeeded    bool                    `json:"counter_needed"`
	Reasoning        string                  `json:"reasoning"`
}

// CapStatus captures pre- and post-trade cap and luxury tax positions.
type CapStatus struct {
	CurrentOverCap bool `json:"current_over_cap"`
	NewOverCap     bool `json:"new_over_cap"`
	CurrentOverTax bool `json:"current_over_tax"`
	NewOverTax     bool `json:"new_over_tax"`
}

// Evaluator values players and trades for one team. The positional-needs
// snapshot is taken from the roster at construction, so build a fresh
// Evaluator per evaluation — needs must reflect the current roster.
type Evaluator struct {
	team  *league.Team
	needs map[league.Position]float64
}

// NewEvaluator builds an evaluator around the team's current roster.
func NewEvaluator(team *league.Team) *Evaluator {
	return &Evaluator{team: team, needs: PositionalNeeds(team)}
}

// PositionalNeeds returns the fill ratio (count / ideal) per position.
// Below 1.0 means the team is short there.
func PositionalNeeds(team *league.Team) map[league.Position]float64 {
	counts := team.CountByPosition()
	needs := make(map[league.Position]float64, len(league.AllPositions))
	for _, pos := range league.AllPositions {
		needs[pos] = float64(counts[pos]) / float64(league.IdealCountPerPosition)
	}
	return needs
}

// PlayerValue scores a player for the evaluating team. Monotonically
// non-decreasing in ppg/rpg/apg with everything else held fixed.
func (e *Evaluator) PlayerValue(p league.Player) float64 {
	base := p.Stats.Get(league.StatPPG)*ppgWeight +
		p.Stats.Get(league.StatRPG)*rpgWeight +
		p.Stats.Get(league.StatAPG)*apgWeight

	// A position below ideal depth inflates value, above deflates it.
	needFactor := 1.0
	if ratio, ok := e.needs[p.Position]; ok {
		needFactor = 2.0 - ratio
	}

	// Young upside discount ramps 0.8→1.0 over 19–23, prime 24–29 is flat,
	// then value decays 0.05 per year past 29. No floor: very old veterans
	// can go value-negative.
	ageFactor := 1.0
	switch {
	case p.Age < 24:
		ageFactor = 0.8 + float64(p.Age-19)*0.05
	case p.Age <= 29:
		ageFactor = 1.0
	default:
		ageFactor = 1.0 - float64(p.Age-30)*0.05
	}

	// Shorter contracts mean flexibility.
	contractFactor := 1.0 - float64(p.ContractYears-1)*0.05

	salaryMillion := p.Salary / 1_000_000
	efficiency := base
	if salaryMillion > 0 {
		efficiency = base / salaryMillion
	}
	normalizedEfficiency := clamp(efficiency/10, 0.5, 1.5)

	return base * needFactor * ageFactor * contractFactor * normalizedEfficiency
}

// EvaluateTrade scores a trade from the evaluating team's side. Both the
// outgoing and incoming packages are valued with our positional-need context.
func (e *Evaluator) EvaluateTrade(trade *league.Trade, state *league.State) (Evaluation, error) {
	outgoingIDs, ok := trade.OutgoingFor(e.team.Abbreviation)
	if !ok {
		return Evaluation{}, fmt.Errorf("team %s is not a party to trade %s", e.team.Abbreviation, trade.ID)
	}
	incomingIDs, _ := trade.IncomingFor(e.team.Abbreviation)

	otherTeam := state.TeamByAbbreviation(trade.OtherTeam(e.team.Abbreviation))
	if otherTeam == nil {
		return Evaluation{}, fmt.Errorf("%w: %s", league.ErrUnknownTeam, trade.OtherTeam(e.team.Abbreviation))
	}

	outgoing := playersByID(e.team, outgoingIDs)
	incoming := playersByID(otherTeam, incomingIDs)

	var ourValue, theirValue, salaryOut, salaryIn float64
	for _, p := range outgoing {
		ourValue += e.PlayerValue(p)
		salaryOut += p.Salary
	}
	for _, p := range incoming {
		theirValue += e.PlayerValue(p)
		salaryIn += p.Salary
	}
	salaryDifference := salaryIn - salaryOut

	currentSalary := e.team.TotalSalary()
	newSalary := currentSalary - salaryOut + salaryIn
	capStatus := CapStatus{
		CurrentOverCap: currentSalary > e.team.SalaryCap,
		NewOverCap:     newSalary > e.team.SalaryCap,
		CurrentOverTax: currentSalary > e.team.LuxuryTax,
		NewOverTax:     newSalary > e.team.LuxuryTax,
	}

	// Post-trade positional balance relative to ideal depth.
	outSet := make(map[string]bool, len(outgoingIDs))
	for _, id := range outgoingIDs {
		outSet[id] = true
	}
	postCounts := make(map[league.Position]int, len(league.AllPositions))
	for _, pos := range league.AllPositions {
		postCounts[pos] = 0
	}
	for _, p := range e.team.Roster {
		if !outSet[p.ID] {
			if _, tracked := postCounts[p.Position]; tracked {
				postCounts[p.Position]++
			}
		}
	}
	for _, p := range incoming {
		if _, tracked := postCounts[p.Position]; tracked {
			postCounts[p.Position]++
		}
	}
	positionBalance := make(map[league.Position]int, len(postCounts))
	for pos, count := range postCounts {
		positionBalance[pos] = count - league.IdealCountPerPosition
	}

	valueDifference := theirValue - ourValue

	// Tax penalties: crossing into the tax is a flat hit; staying over
	// scales with how much the bill moves.
	if !capStatus.CurrentOverTax && capStatus.NewOverTax {
		valueDifference -= 10
	} else if capStatus.CurrentOverTax && capStatus.NewOverTax {
		if salaryDifference > 0 {
			valueDifference -= salaryDifference / 10_000_000
		} else {
			valueDifference += -salaryDifference / 10_000_000
		}
	}

	// Positional penalties: deficits hurt more than surpluses.
	for _, balance := range positionBalance {
		if balance < 0 {
			valueDifference -= float64(-balance) * 5
		} else if balance > 1 {
			valueDifference -= float64(balance-1) * 3
		}
	}

	return Evaluation{
		OurValue:         ourValue,
		TheirValue:       theirValue,
		ValueDifference:  valueDifference,
		SalaryDifference: salaryDifference,
		CapStatus:        capStatus,
		PositionBalance:  positionBalance,
		Acceptable:       valueDifference > -5,
		CounterNeeded:    valueDifference > -10 && valueDifference <= -5,
		Reasoning:        reasoning(valueDifference),
	}, nil
}

func reasoning(valueDifference float64) string {
	switch {
	case valueDifference > 10:
		return "This trade is highly favorable for our team, providing significant value."
	case valueDifference > 0:
		return "This trade provides good value for our team."
	case valueDifference > -5:
		return "This trade is close to fair value, with only minor disadvantages."
	case valueDifference > -10:
		return "This trade is slightly unfavorable but could be acceptable with modifications."
	default:
		return "This trade provides insufficient value for our team."
	}
}

func playersByID(team *league.Team, ids []string) []league.Player {
	players := make([]league.Player, 0, len(ids))
	for _, id := range ids {
		if p := team.PlayerByID(id); p != nil {
			players = append(players, *p)
		}
	}
	return players
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
