// Package stats provides the external NBA statistics lookup service. It is
// consulted only through the judge's tool-use loop — deterministic valuation
// never depends on it.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Config controls how the provider reaches the upstream stats API.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Provider fetches player and team data from a balldontlie-style API.
type Provider struct {
	client *resty.Client
}

// NewProvider constructs a stats provider. Returns nil when no base URL is
// configured (judge runs without lookup tools).
func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout)
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", cfg.APIKey)
	}
	return &Provider{client: client}
}

// PlayerInfo is the upstream view of a player.
type PlayerInfo struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Position  string `json:"position"`
	Team      struct {
		FullName     string `json:"full_name"`
		Abbreviation string `json:"abbreviation"`
	} `json:"team"`
}

// TeamInfo is the upstream view of a team.
type TeamInfo struct {
	ID           int    `json:"id"`
	FullName     string `json:"full_name"`
	Abbreviation string `json:"abbreviation"`
	City         string `json:"city"`
	Conference   string `json:"conference"`
	Division     string `json:"division"`
}

// SeasonAverages is a player's per-game line for one season.
type SeasonAverages struct {
	Season int     `json:"season"`
	Games  int     `json:"games_played"`
	PTS    float64 `json:"pts"`
	REB    float64 `json:"reb"`
	AST    float64 `json:"ast"`
	STL    float64 `json:"stl"`
	BLK    float64 `json:"blk"`
	FGPct  float64 `json:"fg_pct"`
	FG3Pct float64 `json:"fg3_pct"`
}

// LookupPlayer searches for players by name.
func (p *Provider) LookupPlayer(ctx context.Context, name string) ([]PlayerInfo, error) {
	var payload struct {
		Data []PlayerInfo `json:"data"`
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("search", name).
		SetResult(&payload).
		Get("/players")
	if err != nil {
		return nil, fmt.Errorf("lookup player %q: %w", name, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("lookup player %q: unexpected status %d", name, resp.StatusCode())
	}
	return payload.Data, nil
}

// LookupTeam searches for teams by name.
func (p *Provider) LookupTeam(ctx context.Context, name string) ([]TeamInfo, error) {
	var payload struct {
		Data []TeamInfo `json:"data"`
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("search", name).
		SetResult(&payload).
		Get("/teams")
	if err != nil {
		return nil, fmt.Errorf("lookup team %q: %w", name, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("lookup team %q: unexpected status %d", name, resp.StatusCode())
	}
	return payload.Data, nil
}

// CareerStats retrieves season averages for a player id.
func (p *Provider) CareerStats(ctx context.Context, playerID int) ([]SeasonAverages, error) {
	var payload struct {
		Data []SeasonAverages `json:"data"`
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("player_id", fmt.Sprintf("%d", playerID)).
		SetResult(&payload).
		Get("/season_averages")
	if err != nil {
		return nil, fmt.Errorf("career stats for %d: %w", playerID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("career stats for %d: unexpected status %d", playerID, resp.StatusCode())
	}
	return payload.Data, nil
}
