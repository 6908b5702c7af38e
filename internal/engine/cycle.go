// Package engine orchestrates league-wide negotiation: the per-cycle
// initiation/response loop and the tick scheduler that drives cycles in
// serve mode.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Raptors65/nba-gm-simulator/internal/agent"
	"github.com/Raptors65/nba-gm-simulator/internal/entropy"
	"github.com/Raptors65/nba-gm-simulator/internal/league"
)

// minTradesPerCycle is the liveness backstop: below this, one extra proposal
// is forced between two random non-user teams.
const minTradesPerCycle = 2

// ErrNoUserTeam is returned by operations that need a designated
// human-controlled team.
var ErrNoUserTeam = errors.New("no user team selected")

// CycleResult pairs a proposal with the response it drew.
type CycleResult struct {
	Proposal league.TradeProposal `json:"proposal"`
	Response league.TradeResponse `json:"response"`
}

// Orchestrator owns the league state and one GM agent per team, and drives
// negotiation cycles. Cycles and user proposals are serialized: roster
// mutation is single-writer, while evaluation inside a negotiation may fan
// out to the judge concurrently.
type Orchestrator struct {
	mu       sync.Mutex
	state    *league.State
	agents   map[string]*agent.Agent
	rng      *entropy.Source
	userTeam string
}

// NewOrchestrator builds an orchestrator with one agent per registered team.
// Agent options (judge, cooldown, clock) apply to every agent.
func NewOrchestrator(state *league.State, rng *entropy.Source, agentOpts ...agent.Option) *Orchestrator {
	agents := make(map[string]*agent.Agent)
	for _, abbr := range state.TeamAbbreviations() {
		agents[abbr] = agent.New(abbr, state, rng, agentOpts...)
	}
	return &Orchestrator{state: state, agents: agents, rng: rng}
}

// State returns the shared league state.
func (o *Orchestrator) State() *league.State {
	return o.state
}

// SelectUserTeam designates the human-controlled team. Agents never initiate
// trades on its behalf.
func (o *Orchestrator) SelectUserTeam(abbr string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.agents[abbr]; !ok {
		return fmt.Errorf("%w: %s", league.ErrUnknownTeam, abbr)
	}
	o.userTeam = abbr
	slog.Info("user team selected", "team", abbr)
	return nil
}

// UserTeam returns the designated human team, or "" when none is selected.
func (o *Orchestrator) UserTeam() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.userTeam
}

// RunCycle drives one round of league-wide trade initiation and resolution.
// A no-op when no user team has been designated. Failures in one agent's
// consideration are isolated — logged and skipped, never aborting the cycle.
// The context is checked between trades only: a response, once computed, is
// applied as a unit.
func (o *Orchestrator) RunCycle(ctx context.Context) []CycleResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.userTeam == "" {
		return nil
	}

	teams := o.state.TeamAbbreviations()
	o.rng.Shuffle(teams) // no permanent first-mover advantage

	var results []CycleResult
	for _, abbr := range teams {
		if abbr == o.userTeam {
			continue
		}
		if ctx.Err() != nil {
			slog.Info("cycle abandoned", "completed_trades", len(results))
			return results
		}

		results = append(results, o.considerTeam(ctx, abbr)...)
	}

	// Liveness backstop: a quiet league is a boring simulation.
	if len(results) < minTradesPerCycle && len(teams) >= 4 && ctx.Err() == nil {
		if forced := o.forceTrade(ctx, teams); forced != nil {
			results = append(results, *forced)
		}
	}

	slog.Info("cycle complete", "trades", len(results))
	return results
}

// considerTeam runs one agent's initiation pass with panic isolation.
func (o *Orchestrator) considerTeam(ctx context.Context, abbr string) (results []CycleResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("agent trade consideration panicked", "team", abbr, "panic", r)
		}
	}()

	gm := o.agents[abbr]
	for _, proposal := range gm.ConsiderInitiatingTrades() {
		response, err := o.processProposal(ctx, abbr, proposal)
		if err != nil {
			slog.Warn("proposal processing failed", "team", abbr, "error", err)
			continue
		}
		results = append(results, CycleResult{Proposal: proposal, Response: response})
	}
	return results
}

// forceTrade makes one extra proposal between two random non-user teams.
func (o *Orchestrator) forceTrade(ctx context.Context, teams []string) *CycleResult {
	var available []string
	for _, abbr := range teams {
		if abbr != o.userTeam {
			available = append(available, abbr)
		}
	}
	if len(available) < 2 {
		return nil
	}
	pair := o.rng.Sample(available, 2)
	source, target := pair[0], pair[1]

	proposal := o.agents[source].GenerateTradeProposal(target)
	if proposal == nil {
		slog.Debug("forced proposal not generated", "from", source, "to", target)
		return nil
	}
	response, err := o.processProposal(ctx, source, *proposal)
	if err != nil {
		slog.Warn("forced proposal failed", "from", source, "to", target, "error", err)
		return nil
	}
	slog.Info("forced trade proposal", "from", source, "to", target, "status", response.Status)
	return &CycleResult{Proposal: *proposal, Response: response}
}

// processProposal records a proposal, routes it to the target agent, and
// applies the outcome to league state.
func (o *Orchestrator) processProposal(ctx context.Context, sourceTeam string, proposal league.TradeProposal) (league.TradeResponse, error) {
	trade := proposal.Trade
	targetTeam := trade.OtherTeam(sourceTeam)

	target, ok := o.agents[targetTeam]
	if !ok {
		return league.TradeResponse{}, fmt.Errorf("%w: %s", league.ErrUnknownTeam, targetTeam)
	}

	o.state.AppendTrade(trade)
	response := target.RespondToTrade(ctx, trade)
	return response, o.applyResponse(trade, response)
}

// applyResponse mutates league state per a negotiation outcome. Applied as a
// unit — never half-applied.
func (o *Orchestrator) applyResponse(trade *league.Trade, response league.TradeResponse) error {
	switch response.Status {
	case league.StatusAccepted:
		if err := o.state.ExecuteTrade(trade); err != nil {
			// Execution can fail even after acceptance (e.g. a roster
			// changed under the negotiation); record the rejection.
			o.state.MarkTradeStatus(trade.ID, league.StatusRejected)
			return fmt.Errorf("execute accepted trade %s: %w", trade.ID, err)
		}
	case league.StatusCountered:
		if response.CounterTrade != nil {
			o.state.AppendTrade(response.CounterTrade)
		}
		o.state.MarkTradeStatus(trade.ID, league.StatusCountered)
	case league.StatusRejected:
		o.state.MarkTradeStatus(trade.ID, league.StatusRejected)
	}
	return nil
}

// ProcessUserProposal handles a human-initiated trade: record it, route it to
// the counterparty's agent, and apply the outcome.
func (o *Orchestrator) ProcessUserProposal(ctx context.Context, proposal league.TradeProposal) (league.TradeResponse, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.userTeam == "" {
		return league.TradeResponse{}, ErrNoUserTeam
	}
	return o.processProposal(ctx, o.userTeam, proposal)
}

// RespondToExisting resolves an existing ledger trade on the user's behalf:
// accept executes it, reject marks it, counter records the counter trade and
// routes it to the counterparty's agent.
func (o *Orchestrator) RespondToExisting(ctx context.Context, tradeID string, action string, counter *league.Trade) (league.TradeResponse, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	trade := o.state.TradeByID(tradeID)
	if trade == nil {
		return league.TradeResponse{}, league.ErrTradeNotFound
	}

	switch action {
	case "accept":
		if err := o.state.ExecuteTrade(trade); err != nil {
			return league.TradeResponse{}, err
		}
		return league.TradeResponse{TradeID: tradeID, Status: league.StatusAccepted, Message: "Trade accepted"}, nil

	case "reject":
		if err := o.state.MarkTradeStatus(tradeID, league.StatusRejected); err != nil {
			return league.TradeResponse{}, err
		}
		return league.TradeResponse{TradeID: tradeID, Status: league.StatusRejected, Message: "Trade rejected"}, nil

	case "counter":
		if counter == nil {
			return league.TradeResponse{}, errors.New("missing counter trade")
		}
		counter.CounterTradeID = tradeID
		o.state.AppendTrade(counter)
		o.state.MarkTradeStatus(tradeID, league.StatusCountered)

		targetTeam := counter.OtherTeam(o.userTeam)
		target, ok := o.agents[targetTeam]
		if !ok {
			return league.TradeResponse{}, fmt.Errorf("%w: %s", league.ErrUnknownTeam, targetTeam)
		}
		response := target.RespondToTrade(ctx, counter)
		if err := o.applyResponse(counter, response); err != nil {
			return response, err
		}
		return response, nil

	default:
		return league.TradeResponse{}, fmt.Errorf("invalid action %q", action)
	}
}

// RunCycles runs n sequential cycles, for offline simulation.
func (o *Orchestrator) RunCycles(ctx context.Context, n int, pause time.Duration) []CycleResult {
	var all []CycleResult
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		all = append(all, o.RunCycle(ctx)...)
		if pause > 0 && i < n-1 {
			time.Sleep(pause)
		}
	}
	return all
}
