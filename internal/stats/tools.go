package stats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Raptors65/nba-gm-simulator/internal/judge"
)

// Toolset adapts the provider's lookups into judge tools. A nil provider
// yields no tools — the judge decides from the trade context alone.
func (p *Provider) Toolset() []judge.Tool {
	if p == nil {
		return nil
	}
	return []judge.Tool{
		{
			Name:        "nba_get_player_info",
			Description: "Search for an NBA player by name and return basic information: id, name, position, and current team.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"player_name": map[string]any{
						"type":        "string",
						"description": "Name of the NBA player to search for",
					},
				},
				"required": []string{"player_name"},
			},
			Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
				var in struct {
					PlayerName string `json:"player_name"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return "", fmt.Errorf("bad player info arguments: %w", err)
				}
				players, err := p.LookupPlayer(ctx, in.PlayerName)
				if err != nil {
					return "", err
				}
				return marshalResult(players)
			},
		},
		{
			Name:        "nba_get_team_info",
			Description: "Search for an NBA team by name and return its id, full name, city, abbreviation, conference, and division.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"team_name": map[string]any{
						"type":        "string",
						"description": "Name of the NBA team to search for",
					},
				},
				"required": []string{"team_name"},
			},
			Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
				var in struct {
					TeamName string `json:"team_name"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return "", fmt.Errorf("bad team info arguments: %w", err)
				}
				teams, err := p.LookupTeam(ctx, in.TeamName)
				if err != nil {
					return "", err
				}
				return marshalResult(teams)
			},
		},
		{
			Name:        "nba_get_player_stats",
			Description: "Retrieve per-game season averages for an NBA player by numeric id.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"player_id": map[string]any{
						"type":        "integer",
						"description": "The NBA player id",
					},
				},
				"required": []string{"player_id"},
			},
			Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
				var in struct {
					PlayerID int `json:"player_id"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return "", fmt.Errorf("bad player stats arguments: %w", err)
				}
				averages, err := p.CareerStats(ctx, in.PlayerID)
				if err != nil {
					return "", err
				}
				return marshalResult(averages)
			},
		},
	}
}

func marshalResult(v any) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal tool result: %w", err)
	}
	return string(out), nil
}
