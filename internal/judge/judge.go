package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrUnparsable reports that the judge returned output the decision parser
// could not understand. Callers treat it like any other judge failure and
// fall back to the deterministic evaluator — never a guess-and-retry loop.
var ErrUnparsable = errors.New("unparsable judge response")

// maxToolRounds bounds the tool-use loop so a chatty model cannot stall a
// negotiation indefinitely.
const maxToolRounds = 5

// Decision is the judge's structured verdict on a trade.
type Decision struct {
	Decision     string `json:"decision"` // accept | reject | counter
	ValueForUs   int    `json:"value_for_us"`
	ValueForThem int    `json:"value_for_them"`
	Reasoning    string `json:"reasoning"`
	Message      string `json:"message"`
}

// Tool is an auxiliary lookup the judge may invoke before deciding. The
// handler receives the model's JSON arguments and returns a result payload
// fed back into the conversation.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
	Handler     func(ctx context.Context, args json.RawMessage) (string, error)
}

// PlayerSummary is the judge-facing view of one player in a trade.
type PlayerSummary struct {
	Name          string            `json:"name"`
	Position      string            `json:"position"`
	Age           int               `json:"age"`
	Salary        string            `json:"salary"`
	ContractYears int               `json:"contract_years"`
	Stats         map[string]string `json:"stats"`
}

// TradeContext is everything the judge sees about a proposed trade: the
// evaluating team's identity, salary situation, needs, and both player
// packages.
type TradeContext struct {
	TeamName      string
	OtherTeamName string
	Outgoing      []PlayerSummary
	Incoming      []PlayerSummary
	Needs         map[string]float64
	TotalSalary   string
	SalaryCap     string
	LuxuryTax     string
}

// Judge decides trades qualitatively, optionally consulting lookup tools.
type Judge interface {
	Evaluate(ctx context.Context, tc TradeContext, tools []Tool) (Decision, error)
}

// Evaluate asks the model for a trade verdict, running the tool-use loop
// until the model stops requesting tools or the round budget runs out.
func (c *Client) Evaluate(ctx context.Context, tc TradeContext, tools []Tool) (Decision, error) {
	if !c.Enabled() {
		return Decision{}, fmt.Errorf("judge client not configured")
	}

	handlers := make(map[string]Tool, len(tools))
	defs := make([]toolDef, 0, len(tools))
	for _, t := range tools {
		handlers[t.Name] = t
		defs = append(defs, toolDef{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}

	messages := []message{{
		Role:    "user",
		Content: []contentBlock{{Type: "text", Text: buildPrompt(tc)}},
	}}

	req := request{
		Model:       c.model,
		MaxTokens:   1000,
		Temperature: 0.7,
		System:      "You are an experienced NBA General Manager making trade decisions. Your response must be valid JSON.",
		Messages:    messages,
		Tools:       defs,
	}

	var finalText string
	for round := 0; round <= maxToolRounds; round++ {
		resp, err := c.complete(ctx, req)
		if err != nil {
			return Decision{}, fmt.Errorf("judge evaluate: %w", err)
		}

		var toolUses []contentBlock
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				if block.Text != "" {
					finalText = block.Text
				}
			case "tool_use":
				toolUses = append(toolUses, block)
			}
		}

		if len(toolUses) == 0 {
			break
		}

		// Feed each tool result back into the conversation before asking
		// for the next step. Tool errors become error results, not hard
		// failures.
		results := make([]contentBlock, 0, len(toolUses))
		for _, use := range toolUses {
			tool, ok := handlers[use.Name]
			if !ok {
				results = append(results, contentBlock{
					Type: "tool_result", ToolUseID: use.ID,
					Content: fmt.Sprintf("unknown tool %q", use.Name), IsError: true,
				})
				continue
			}
			slog.Debug("judge tool call", "tool", use.Name)
			out, err := tool.Handler(ctx, use.Input)
			if err != nil {
				results = append(results, contentBlock{
					Type: "tool_result", ToolUseID: use.ID,
					Content: err.Error(), IsError: true,
				})
				continue
			}
			results = append(results, contentBlock{Type: "tool_result", ToolUseID: use.ID, Content: out})
		}

		req.Messages = append(req.Messages,
			message{Role: "assistant", Content: resp.Content},
			message{Role: "user", Content: results},
		)
	}

	return parseDecision(finalText)
}

func buildPrompt(tc TradeContext) string {
	outgoing, _ := json.MarshalIndent(tc.Outgoing, "", "  ")
	incoming, _ := json.MarshalIndent(tc.Incoming, "", "  ")
	needs, _ := json.Marshal(tc.Needs)

	var b strings.Builder
	fmt.Fprintf(&b, "You are the General Manager of the %s.\n", tc.TeamName)
	fmt.Fprintf(&b, "You're considering a trade with the %s.\n\n", tc.OtherTeamName)
	fmt.Fprintf(&b, "In this trade:\nYou send: %s\n\nYou receive: %s\n\n", outgoing, incoming)
	fmt.Fprintf(&b, "Your current team needs are: %s\n", needs)
	fmt.Fprintf(&b, "Your current salary situation: %s (Cap: %s, Tax: %s)\n\n",
		tc.TotalSalary, tc.SalaryCap, tc.LuxuryTax)
	b.WriteString(`Evaluate this trade from your perspective. Consider:
1. Player value and team fit
2. Salary implications
3. Position balance
4. Short and long-term impact

Then respond in the following JSON format:
{
    "decision": "accept" or "reject" or "counter",
    "value_for_us": A number from 1-10,
    "value_for_them": A number from 1-10,
    "reasoning": Your reasoning in 2-3 sentences,
    "message": What you would tell the other GM
}`)
	return b.String()
}

// parseDecision extracts the JSON object from the model's final text. The
// model may wrap the object in prose, so scan for the outermost braces.
func parseDecision(text string) (Decision, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return Decision{}, fmt.Errorf("%w: no JSON object in %q", ErrUnparsable, truncate(text, 80))
	}

	var d Decision
	if err := json.Unmarshal([]byte(text[start:end+1]), &d); err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	switch d.Decision {
	case "accept", "reject", "counter":
	default:
		return Decision{}, fmt.Errorf("%w: unknown decision %q", ErrUnparsable, d.Decision)
	}
	return d, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
