// Package agent implements the per-team GM agent: responding to incoming
// trades, searching for counter-offers, and initiating proposals of its own.
// Decisions prefer the language-model judge when one is configured and fall
// back to the deterministic evaluator on any judge failure.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Raptors65/nba-gm-simulator/internal/entropy"
	"github.com/Raptors65/nba-gm-simulator/internal/judge"
	"github.com/Raptors65/nba-gm-simulator/internal/league"
	"github.com/Raptors65/nba-gm-simulator/internal/valuation"
)

const (
	// DefaultCooldown is the minimum gap between trade-initiation checks.
	DefaultCooldown = 30 * time.Second

	// DefaultJudgeTimeout bounds a single judge call. Past it the agent
	// decides deterministically rather than stalling the cycle.
	DefaultJudgeTimeout = 45 * time.Second

	// initiateProbability is the chance an off-cooldown agent looks for
	// trades this cycle.
	initiateProbability = 0.7
)

// Agent is the autonomous GM for one team. It holds a reference to the
// shared league state; positional needs are recomputed from the live roster
// on every evaluation, never cached across calls.
type Agent struct {
	TeamAbbr string

	state        *league.State
	rng          *entropy.Source
	judge        judge.Judge // nil = deterministic only
	tools        []judge.Tool
	judgeTimeout time.Duration

	cooldown       time.Duration
	lastTradeCheck time.Time
	clock          func() time.Time
}

// Option customizes an agent.
type Option func(*Agent)

// WithJudge attaches a language-model judge and the tools it may call.
func WithJudge(j judge.Judge, tools []judge.Tool) Option {
	return func(a *Agent) {
		a.judge = j
		a.tools = tools
	}
}

// WithCooldown overrides the trade-initiation cooldown.
func WithCooldown(d time.Duration) Option {
	return func(a *Agent) { a.cooldown = d }
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(a *Agent) { a.clock = clock }
}

// WithJudgeTimeout overrides the per-call judge timeout.
func WithJudgeTimeout(d time.Duration) Option {
	return func(a *Agent) { a.judgeTimeout = d }
}

// New creates a GM agent for the given team.
func New(teamAbbr string, state *league.State, rng *entropy.Source, opts ...Option) *Agent {
	a := &Agent{
		TeamAbbr:     teamAbbr,
		state:        state,
		rng:          rng,
		judgeTimeout: DefaultJudgeTimeout,
		cooldown:     DefaultCooldown,
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) team() *league.Team {
	return a.state.TeamByAbbreviation(a.TeamAbbr)
}

// RespondToTrade evaluates an incoming trade and returns accepted, rejected,
// or countered. Judge failures never surface to the caller — the agent falls
// back to the deterministic evaluation.
func (a *Agent) RespondToTrade(ctx context.Context, trade *league.Trade) league.TradeResponse {
	team := a.team()
	if team == nil {
		return league.TradeResponse{
			TradeID: trade.ID,
			Status:  league.StatusRejected,
			Message: "Invalid team.",
		}
	}

	evaluator := valuation.NewEvaluator(team)
	eval, err := evaluator.EvaluateTrade(trade, a.state)
	if err != nil {
		slog.Warn("trade evaluation failed", "team", a.TeamAbbr, "trade_id", trade.ID, "error", err)
		return league.TradeResponse{
			TradeID: trade.ID,
			Status:  league.StatusRejected,
			Message: "We couldn't evaluate this trade as proposed.",
		}
	}

	decision, message := a.decide(ctx, trade, eval)

	switch decision {
	case "accept":
		return league.TradeResponse{TradeID: trade.ID, Status: league.StatusAccepted, Message: message}
	case "counter":
		counter := a.CreateCounterOffer(trade)
		if counter == nil {
			// No workable modification — degrade to a rejection.
			return league.TradeResponse{
				TradeID: trade.ID,
				Status:  league.StatusRejected,
				Message: message + " I couldn't find a counter-offer that works for us.",
			}
		}
		return league.TradeResponse{
			TradeID:      trade.ID,
			Status:       league.StatusCountered,
			Message:      message + " I have a counter-proposal that might work better for us.",
			CounterTrade: counter,
		}
	default:
		return league.TradeResponse{TradeID: trade.ID, Status: league.StatusRejected, Message: message}
	}
}

// decide returns the decision string (accept/reject/counter) and GM message,
// consulting the judge when configured.
func (a *Agent) decide(ctx context.Context, trade *league.Trade, eval valuation.Evaluation) (string, string) {
	if a.judge != nil {
		judgeCtx, cancel := context.WithTimeout(ctx, a.judgeTimeout)
		defer cancel()

		decision, err := a.judge.Evaluate(judgeCtx, a.buildJudgeContext(trade), a.tools)
		if err == nil {
			slog.Debug("judge decision",
				"team", a.TeamAbbr,
				"trade_id", trade.ID,
				"decision", decision.Decision,
				"value_for_us", decision.ValueForUs,
			)
			return decision.Decision, decision.Message
		}
		slog.Warn("judge unavailable, using deterministic evaluation",
			"team", a.TeamAbbr, "trade_id", trade.ID, "error", err)
	}

	switch {
	case eval.Acceptable:
		return "accept", "This looks like a deal that works for both sides."
	case eval.CounterNeeded:
		return "counter", "The offer is close, but not quite there."
	default:
		return "reject", "Thanks for the offer, but it's not the right fit for our team."
	}
}

// buildJudgeContext assembles the judge-facing view of the trade: both
// player packages, our needs, and our salary situation.
func (a *Agent) buildJudgeContext(trade *league.Trade) judge.TradeContext {
	team := a.team()
	otherTeam := a.state.TeamByAbbreviation(trade.OtherTeam(a.TeamAbbr))

	outgoingIDs, _ := trade.OutgoingFor(a.TeamAbbr)
	incomingIDs, _ := trade.IncomingFor(a.TeamAbbr)

	needs := make(map[string]float64)
	for pos, ratio := range valuation.PositionalNeeds(team) {
		needs[string(pos)] = ratio
	}

	otherName := trade.OtherTeam(a.TeamAbbr)
	if otherTeam != nil {
		otherName = otherTeam.FullName()
	}

	return judge.TradeContext{
		TeamName:      team.FullName(),
		OtherTeamName: otherName,
		Outgoing:      summarizePlayers(team, outgoingIDs),
		Incoming:      summarizePlayers(otherTeam, incomingIDs),
		Needs:         needs,
		TotalSalary:   dollars(team.TotalSalary()),
		SalaryCap:     dollars(team.SalaryCap),
		LuxuryTax:     dollars(team.LuxuryTax),
	}
}

func summarizePlayers(team *league.Team, ids []string) []judge.PlayerSummary {
	if team == nil {
		return nil
	}
	summaries := make([]judge.PlayerSummary, 0, len(ids))
	for _, id := range ids {
		p := team.PlayerByID(id)
		if p == nil {
			continue
		}
		statLine := make(map[string]string, len(p.Stats))
		for k, v := range p.Stats {
			statLine[string(k)] = fmt.Sprintf("%.1f", v)
		}
		summaries = append(summaries, judge.PlayerSummary{
			Name:          p.Name,
			Position:      string(p.Position),
			Age:           p.Age,
			Salary:        dollars(p.Salary),
			ContractYears: p.ContractYears,
			Stats:         statLine,
		})
	}
	return summaries
}

// dollars renders a salary figure for messages and prompts, e.g. "$12,500,000".
func dollars(v float64) string {
	return "$" + humanize.Commaf(v)
}

// ConsiderInitiatingTrades checks whether the agent wants to shop trades this
// cycle: a cooldown gate, then a random gate, then proposals against a small
// sample of other teams.
func (a *Agent) ConsiderInitiatingTrades() []league.TradeProposal {
	now := a.clock()
	if now.Sub(a.lastTradeCheck) < a.cooldown {
		return nil
	}
	a.lastTradeCheck = now

	if !a.rng.Bool(initiateProbability) {
		return nil
	}

	var others []string
	for _, abbr := range a.state.TeamAbbreviations() {
		if abbr != a.TeamAbbr {
			others = append(others, abbr)
		}
	}
	targets := a.rng.Sample(others, a.rng.IntBetween(2, 3))

	var proposals []league.TradeProposal
	for _, target := range targets {
		if proposal := a.GenerateTradeProposal(target); proposal != nil {
			proposals = append(proposals, *proposal)
		}
	}
	return proposals
}
