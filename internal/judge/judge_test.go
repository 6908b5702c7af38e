package judge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresKey(t *testing.T) {
	assert.Nil(t, NewClient(""))

	c := NewClient("key")
	require.NotNil(t, c)
	assert.True(t, c.Enabled())
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{
			name: "bare JSON",
			text: `{"decision": "accept", "value_for_us": 8, "value_for_them": 6, "reasoning": "good deal", "message": "deal"}`,
			want: "accept",
		},
		{
			name: "JSON wrapped in prose",
			text: `Here is my analysis: {"decision": "counter", "value_for_us": 4, "value_for_them": 7, "reasoning": "lopsided", "message": "close"} Let me know.`,
			want: "counter",
		},
		{
			name:    "no JSON at all",
			text:    "I think this is a fine trade.",
			wantErr: true,
		},
		{
			name:    "invalid JSON",
			text:    `{"decision": "accept",`,
			wantErr: true,
		},
		{
			name:    "unknown decision value",
			text:    `{"decision": "maybe", "reasoning": "unsure"}`,
			wantErr: true,
		},
		{
			name:    "empty text",
			text:    "",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := parseDecision(tc.text)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrUnparsable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, d.Decision)
		})
	}
}

func textResponse(text string) response {
	return response{
		Content:    []contentBlock{{Type: "text", Text: text}},
		StopReason: "end_turn",
	}
}

func sampleContext() TradeContext {
	return TradeContext{
		TeamName:      "Boston Celtics",
		OtherTeamName: "Los Angeles Lakers",
		Needs:         map[string]float64{"PG": 0.5},
		TotalSalary:   "$120,000,000",
		SalaryCap:     "$123,000,000",
		LuxuryTax:     "$150,000,000",
	}
}

func TestEvaluateDirectDecision(t *testing.T) {
	var gotReq request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(textResponse(
			`{"decision": "accept", "value_for_us": 8, "value_for_them": 5, "reasoning": "fills a need", "message": "We have a deal."}`,
		))
	}))
	defer server.Close()

	c := NewClientForURL("key", server.URL)
	d, err := c.Evaluate(context.Background(), sampleContext(), nil)
	require.NoError(t, err)

	assert.Equal(t, "accept", d.Decision)
	assert.Equal(t, 8, d.ValueForUs)
	assert.Equal(t, "We have a deal.", d.Message)
	assert.Contains(t, gotReq.Messages[0].Content[0].Text, "Boston Celtics")
	assert.Contains(t, gotReq.Messages[0].Content[0].Text, "Los Angeles Lakers")
}

func TestEvaluateToolUseLoop(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if calls == 1 {
			json.NewEncoder(w).Encode(response{
				Content: []contentBlock{{
					Type:  "tool_use",
					ID:    "tu_1",
					Name:  "nba_get_player_info",
					Input: json.RawMessage(`{"player_name": "Test Player"}`),
				}},
				StopReason: "tool_use",
			})
			return
		}

		// The second round must carry the tool result back.
		last := req.Messages[len(req.Messages)-1]
		require.Equal(t, "user", last.Role)
		require.Equal(t, "tool_result", last.Content[0].Type)
		assert.Equal(t, "tu_1", last.Content[0].ToolUseID)
		assert.Equal(t, `{"ppg": 22.5}`, last.Content[0].Content)

		json.NewEncoder(w).Encode(textResponse(
			`{"decision": "reject", "reasoning": "not enough", "message": "Pass."}`,
		))
	}))
	defer server.Close()

	handlerCalled := false
	tools := []Tool{{
		Name:        "nba_get_player_info",
		Description: "lookup",
		InputSchema: map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			handlerCalled = true
			var in struct {
				PlayerName string `json:"player_name"`
			}
			require.NoError(t, json.Unmarshal(args, &in))
			assert.Equal(t, "Test Player", in.PlayerName)
			return `{"ppg": 22.5}`, nil
		},
	}}

	c := NewClientForURL("key", server.URL)
	d, err := c.Evaluate(context.Background(), sampleContext(), tools)
	require.NoError(t, err)

	assert.True(t, handlerCalled)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "reject", d.Decision)
}

func TestEvaluateUnparsableOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(textResponse("I cannot decide right now."))
	}))
	defer server.Close()

	c := NewClientForURL("key", server.URL)
	_, err := c.Evaluate(context.Background(), sampleContext(), nil)
	assert.ErrorIs(t, err, ErrUnparsable)
}

func TestEvaluateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "overloaded"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClientForURL("key", server.URL)
	_, err := c.Evaluate(context.Background(), sampleContext(), nil)
	assert.Error(t, err)
}

func TestEvaluateHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(textResponse(`{"decision": "accept"}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClientForURL("key", server.URL)
	_, err := c.Evaluate(ctx, sampleContext(), nil)
	assert.Error(t, err)
}

func TestClientRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(textResponse(`{"decision": "accept"}`))
	}))
	defer server.Close()

	c := NewClientForURL("key", server.URL)
	c.maxPerMin = 2

	ctx := context.Background()
	_, err := c.Evaluate(ctx, sampleContext(), nil)
	require.NoError(t, err)
	_, err = c.Evaluate(ctx, sampleContext(), nil)
	require.NoError(t, err)
	_, err = c.Evaluate(ctx, sampleContext(), nil)
	assert.Error(t, err, "third call inside the window must be limited")
}
