// Command leaguesim runs the NBA GM trade negotiation sandbox.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Raptors65/nba-gm-simulator/internal/agent"
	"github.com/Raptors65/nba-gm-simulator/internal/api"
	"github.com/Raptors65/nba-gm-simulator/internal/config"
	"github.com/Raptors65/nba-gm-simulator/internal/engine"
	"github.com/Raptors65/nba-gm-simulator/internal/entropy"
	"github.com/Raptors65/nba-gm-simulator/internal/judge"
	"github.com/Raptors65/nba-gm-simulator/internal/league"
	"github.com/Raptors65/nba-gm-simulator/internal/persistence"
	"github.com/Raptors65/nba-gm-simulator/internal/stats"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "leaguesim",
		Short: "NBA GM trade negotiation sandbox",
		Long: `leaguesim simulates an NBA front office: thirty GM agents value players,
propose trades to each other, and negotiate with accept/reject/counter
responses. Run "serve" for the HTTP API with a background negotiation
cycle, or "simulate" for offline cycles.`,
	}

	rootCmd.AddCommand(newServeCmd(cfg))
	rootCmd.AddCommand(newSimulateCmd(cfg))
	rootCmd.AddCommand(newInitCmd(cfg))
	return rootCmd
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with a background negotiation cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			team, _ := cmd.Flags().GetString("team")
			return runServe(cfg, team)
		},
	}
	cmd.Flags().String("team", "", "Pre-select the user-controlled team (abbreviation)")
	return cmd
}

func newSimulateCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run negotiation cycles offline and save the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cycles, _ := cmd.Flags().GetInt("cycles")
			team, _ := cmd.Flags().GetString("team")
			if team == "" {
				return fmt.Errorf("--team is required for offline simulation")
			}
			return runSimulate(cfg, team, cycles)
		},
	}
	cmd.Flags().Int("cycles", 1, "Number of negotiation cycles to run")
	cmd.Flags().String("team", "", "The user-controlled team (abbreviation); agents never trade on its behalf")
	return cmd
}

func newInitCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a fresh sample league and save it, replacing any existing state",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			state := league.SampleLeague(time.Now())
			if err := db.SaveState(state); err != nil {
				return fmt.Errorf("save sample league: %w", err)
			}
			fmt.Printf("Sample league generated: %d teams saved to %s\n", state.TeamCount(), cfg.DBPath)
			return nil
		},
	}
}

func openDB(cfg *config.Config) (*persistence.DB, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	slog.Info("database opened", "path", cfg.DBPath)
	return db, nil
}

// loadOrGenerate restores the saved league, or generates and saves the sample
// league on first run.
func loadOrGenerate(cfg *config.Config, db *persistence.DB) (*league.State, error) {
	if db.HasState() {
		slog.Info("found saved league state, loading...")
		state, err := db.LoadState()
		if err != nil {
			return nil, fmt.Errorf("load league: %w", err)
		}
		slog.Info("league state restored", "teams", state.TeamCount(), "trades", state.TradeCount())
		return state, nil
	}

	slog.Info("no saved state found, generating sample league...")
	state := league.SampleLeague(time.Now())
	if err := db.SaveState(state); err != nil {
		return nil, fmt.Errorf("save sample league: %w", err)
	}
	return state, nil
}

// buildOrchestrator wires entropy, judge, and stats tools into an orchestrator
// over the given state.
func buildOrchestrator(cfg *config.Config, state *league.State) *engine.Orchestrator {
	var rng *entropy.Source
	if cfg.Seed != 0 {
		rng = entropy.NewSource(cfg.Seed)
		slog.Info("rng seeded", "seed", cfg.Seed)
	} else {
		rng = entropy.NewTimeSource()
	}

	judgeClient := judge.NewClient(cfg.AnthropicAPIKey)
	if judgeClient != nil {
		slog.Info("judge enabled (Sonnet)")
	} else {
		slog.Warn("ANTHROPIC_API_KEY not set — GM agents run on deterministic valuation only")
	}

	provider := stats.NewProvider(stats.Config{
		BaseURL: cfg.StatsAPIBaseURL,
		APIKey:  cfg.StatsAPIKey,
	})
	if provider != nil {
		slog.Info("stats tools enabled", "base_url", cfg.StatsAPIBaseURL)
	}

	opts := []agent.Option{agent.WithJudgeTimeout(cfg.JudgeTimeout)}
	if judgeClient != nil {
		opts = append(opts, agent.WithJudge(judgeClient, provider.Toolset()))
	}
	return engine.NewOrchestrator(state, rng, opts...)
}

func runServe(cfg *config.Config, team string) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	state, err := loadOrGenerate(cfg, db)
	if err != nil {
		return err
	}

	orch := buildOrchestrator(cfg, state)
	if team != "" {
		if err := orch.SelectUserTeam(team); err != nil {
			return err
		}
	} else if saved, err := db.GetMeta("user_team"); err == nil && saved != "" {
		if err := orch.SelectUserTeam(saved); err != nil {
			slog.Warn("saved user team no longer valid", "team", saved)
		}
	}
	if ut := orch.UserTeam(); ut != "" {
		if err := db.SaveMeta("user_team", ut); err != nil {
			slog.Warn("meta save failed", "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apiServer := &api.Server{
		Orch: orch,
		DB:   db,
		Port: cfg.APIPort,
	}
	if err := apiServer.Start(ctx); err != nil {
		return err
	}

	ticker := engine.NewTicker(orch, cfg.CycleInterval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		ticker.Stop()
		cancel()
	}()

	fmt.Printf("\nLeague is open for business: %d teams, %d trades on the ledger.\n",
		state.TeamCount(), state.TradeCount())
	fmt.Printf("API: http://localhost:%d/api/v1/teams\n", cfg.APIPort)
	fmt.Println("Starting negotiation cycles... (Ctrl+C to stop)")

	ticker.Run(ctx)

	// Let in-flight requests drain before the final snapshot.
	cancel()
	<-apiServer.Done()

	slog.Info("final save...")
	if err := db.SaveState(orch.State()); err != nil {
		slog.Error("final save failed", "error", err)
	}
	fmt.Println("Simulation stopped. League state saved.")
	return nil
}

func runSimulate(cfg *config.Config, team string, cycles int) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	state, err := loadOrGenerate(cfg, db)
	if err != nil {
		return err
	}

	orch := buildOrchestrator(cfg, state)
	if err := orch.SelectUserTeam(team); err != nil {
		return err
	}

	results := orch.RunCycles(context.Background(), cycles, 0)
	for _, r := range results {
		fmt.Printf("[%s] %s -> %s: %s\n",
			r.Response.Status, r.Proposal.Trade.Team1, r.Proposal.Trade.Team2, r.Response.Message)
	}
	fmt.Printf("%d cycles complete, %d trades negotiated.\n", cycles, len(results))

	return db.SaveState(orch.State())
}
