// Package api exposes the league over HTTP: team and roster queries, the
// activity feed, user trade flows, and the simulate trigger.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Raptors65/nba-gm-simulator/internal/engine"
	"github.com/Raptors65/nba-gm-simulator/internal/league"
	"github.com/Raptors65/nba-gm-simulator/internal/persistence"
)

// Server serves the league over HTTP.
type Server struct {
	Orch *engine.Orchestrator
	DB   *persistence.DB // nil = no persistence between requests
	Port int

	addr string
	done chan struct{}
}

// Start binds the listener and begins serving in a goroutine. Cancelling ctx
// drains in-flight requests before the listener closes; Done reports when
// serving has fully stopped.
func (s *Server) Start(ctx context.Context) error {
	// Simulate triggers a full negotiation cycle of judge calls — keep it
	// behind a limiter.
	simulateLimiter := NewRateLimiter(30, time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/teams", s.handleTeams)
	mux.HandleFunc("/api/v1/team/select", s.handleSelectTeam)
	mux.HandleFunc("/api/v1/team/roster/", s.handleRoster)
	mux.HandleFunc("/api/v1/league/activity", s.handleActivity)
	mux.HandleFunc("/api/v1/trade/propose", s.handleProposeTrade)
	mux.HandleFunc("/api/v1/trade/respond", s.handleRespondTrade)
	mux.HandleFunc("/api/v1/league/simulate", RateLimitMiddleware(simulateLimiter, s.handleSimulate))

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.addr = ln.Addr().String()
	s.done = make(chan struct{})
	srv := &http.Server{Handler: corsMiddleware(mux)}

	slog.Info("HTTP API starting", "addr", s.addr)

	go func() {
		defer close(s.done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP shutdown", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound listen address. Valid after Start returns.
func (s *Server) Addr() string {
	return s.addr
}

// Done is closed once the server has stopped serving.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// corsMiddleware allows the local frontend dev servers.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	type teamEntry struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Abbreviation string `json:"abbreviation"`
		City         string `json:"city"`
		Conference   string `json:"conference"`
		Division     string `json:"division"`
	}

	state := s.Orch.State()
	teams := make([]teamEntry, 0, 30)
	for _, abbr := range state.TeamAbbreviations() {
		t, ok := state.TeamSnapshot(abbr)
		if !ok {
			continue
		}
		teams = append(teams, teamEntry{
			ID:           t.ID,
			Name:         t.Name,
			Abbreviation: t.Abbreviation,
			City:         t.City,
			Conference:   t.Conference,
			Division:     t.Division,
		})
	}
	writeJSON(w, map[string]any{"teams": teams})
}

func (s *Server) handleSelectTeam(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Team string `json:"team"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Team == "" {
		writeJSON(w, map[string]any{"success": false, "message": "Invalid team selection"})
		return
	}
	if err := s.Orch.SelectUserTeam(body.Team); err != nil {
		writeJSON(w, map[string]any{"success": false, "message": "Invalid team selection"})
		return
	}
	s.persist()
	writeJSON(w, map[string]any{"success": true, "message": fmt.Sprintf("Team %s selected", body.Team)})
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	abbr := strings.TrimPrefix(r.URL.Path, "/api/v1/team/roster/")
	// Snapshot: the cycle ticker may be executing trades right now.
	team, ok := s.Orch.State().TeamSnapshot(abbr)
	if !ok {
		http.Error(w, "team not found", http.StatusNotFound)
		return
	}

	roster := team.Roster
	sort.SliceStable(roster, func(i, j int) bool {
		return roster[i].Salary > roster[j].Salary
	})

	writeJSON(w, map[string]any{
		"team": map[string]any{
			"id":           team.ID,
			"name":         team.Name,
			"abbreviation": team.Abbreviation,
			"city":         team.City,
			"conference":   team.Conference,
			"division":     team.Division,
		},
		"players": roster,
		"salary_info": map[string]any{
			"total":           team.TotalSalary(),
			"cap":             team.SalaryCap,
			"luxury_tax":      team.LuxuryTax,
			"available_space": team.AvailableCapSpace(),
			"over_cap":        team.OverCap(),
			"over_tax":        team.OverLuxuryTax(),
		},
	})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	writeJSON(w, map[string]any{"activity": s.Orch.State().RecentActivity(limit)})
}

func (s *Server) handleProposeTrade(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Trade *struct {
			Team1        string             `json:"team1"`
			Team2        string             `json:"team2"`
			Team1Players []string           `json:"team1_players"`
			Team2Players []string           `json:"team2_players"`
			Team1Picks   []league.DraftPick `json:"team1_picks"`
			Team2Picks   []league.DraftPick `json:"team2_picks"`
		} `json:"trade"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Trade == nil {
		writeJSON(w, map[string]any{"success": false, "message": "Missing trade data"})
		return
	}

	trade := league.NewTrade(body.Trade.Team1, body.Trade.Team2, league.ProposedByUser, time.Now())
	trade.Team1Players = body.Trade.Team1Players
	trade.Team2Players = body.Trade.Team2Players
	trade.Team1Picks = body.Trade.Team1Picks
	trade.Team2Picks = body.Trade.Team2Picks

	message := body.Message
	if message == "" {
		message = "Trade proposal from user"
	}

	response, err := s.Orch.ProcessUserProposal(r.Context(), league.TradeProposal{Trade: trade, Message: message})
	if err != nil {
		if errors.Is(err, engine.ErrNoUserTeam) || errors.Is(err, league.ErrUnknownTeam) {
			writeJSON(w, map[string]any{"success": false, "message": err.Error()})
			return
		}
		slog.Error("propose trade failed", "error", err)
		writeJSON(w, map[string]any{"success": false, "message": "Server error"})
		return
	}
	s.persist()

	writeJSON(w, map[string]any{
		"success":       true,
		"trade_id":      response.TradeID,
		"status":        response.Status,
		"message":       response.Message,
		"counter_trade": response.CounterTrade,
	})
}

func (s *Server) handleRespondTrade(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		TradeID      string `json:"trade_id"`
		Action       string `json:"action"`
		CounterTrade *struct {
			Team1        string   `json:"team1"`
			Team2        string   `json:"team2"`
			Team1Players []string `json:"team1_players"`
			Team2Players []string `json:"team2_players"`
		} `json:"counter_trade"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TradeID == "" || body.Action == "" {
		writeJSON(w, map[string]any{"success": false, "message": "Missing trade_id or action"})
		return
	}

	var counter *league.Trade
	if body.CounterTrade != nil {
		counter = league.NewTrade(body.CounterTrade.Team1, body.CounterTrade.Team2, league.ProposedByUser, time.Now())
		counter.Team1Players = body.CounterTrade.Team1Players
		counter.Team2Players = body.CounterTrade.Team2Players
	}

	response, err := s.Orch.RespondToExisting(r.Context(), body.TradeID, body.Action, counter)
	if err != nil {
		writeJSON(w, map[string]any{"success": false, "message": err.Error()})
		return
	}
	s.persist()

	writeJSON(w, map[string]any{
		"success":       true,
		"trade_id":      response.TradeID,
		"status":        response.Status,
		"message":       response.Message,
		"counter_trade": response.CounterTrade,
	})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	results := s.Orch.RunCycle(r.Context())
	s.persist()

	writeJSON(w, map[string]any{
		"success":  true,
		"trades":   results,
		"activity": s.Orch.State().RecentActivity(15),
	})
}

func (s *Server) persist() {
	if s.DB == nil {
		return
	}
	if err := s.DB.SaveState(s.Orch.State()); err != nil {
		slog.Error("state save failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response failed", "error", err)
	}
}
