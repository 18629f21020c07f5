package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deskhand/deskhand/internal/config"
)

func testConfig() *config.Config {
	return config.DefaultConfig()
}

func TestConvertMessagesSkipsApprovalBookkeeping(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: "delete it"},
		{
			Role:      RoleAssistant,
			ToolCalls: []ToolCall{{ID: "c1", Name: "delete_resource", Input: json.RawMessage(`{"id":7}`)}},
			ApprovalRequests: []ApprovalRequest{
				{ApprovalID: "ap-1", ToolCallID: "c1"},
			},
		},
		{
			Role:              RoleTool,
			ApprovalResponses: []ApprovalResponse{{ApprovalID: "ap-1", Approved: true}},
		},
		{Role: RoleTool, Content: "done", ToolCallID: "c1"},
	}

	wire := convertMessages("be helpful", messages)
	if len(wire) != 4 {
		t.Fatalf("expected system + 3 messages, got %d", len(wire))
	}
	if wire[0]["role"] != RoleSystem || wire[0]["content"] != "be helpful" {
		t.Errorf("system message wrong: %v", wire[0])
	}

	assistant := wire[2]
	toolCalls, ok := assistant["tool_calls"].([]map[string]any)
	if !ok || len(toolCalls) != 1 {
		t.Fatalf("expected serialized tool calls, got %v", assistant)
	}
	fn := toolCalls[0]["function"].(map[string]any)
	if fn["name"] != "delete_resource" || fn["arguments"] != `{"id":7}` {
		t.Errorf("unexpected function encoding: %v", fn)
	}
	if _, present := assistant["approval_requests"]; present {
		t.Error("approval requests must never reach the wire")
	}

	toolResult := wire[3]
	if toolResult["tool_call_id"] != "c1" || toolResult["content"] != "done" {
		t.Errorf("unexpected tool result: %v", toolResult)
	}
}

func TestParseResponseToolCalls(t *testing.T) {
	resp := &openAIResponse{}
	resp.Choices = []openAIChoice{{
		FinishReason: "tool_calls",
		Message: openAIMessage{
			Role:    "assistant",
			Content: "checking",
			ToolCalls: []openAIToolCall{
				func() openAIToolCall {
					tc := openAIToolCall{ID: "c1", Type: "function"}
					tc.Function.Name = "search_catalog"
					tc.Function.Arguments = `{"query":"db"}`
					return tc
				}(),
			},
		},
	}}

	out, err := parseResponse(resp)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if len(out.ToolCalls) != 1 || out.ToolCalls[0].Name != "search_catalog" {
		t.Fatalf("unexpected tool calls: %+v", out.ToolCalls)
	}
	if string(out.ToolCalls[0].Input) != `{"query":"db"}` {
		t.Errorf("input not preserved: %s", out.ToolCalls[0].Input)
	}
}

func TestParseResponseInvalidArguments(t *testing.T) {
	resp := &openAIResponse{}
	tc := openAIToolCall{ID: "c1", Type: "function"}
	tc.Function.Name = "deploy"
	tc.Function.Arguments = `{"env":`
	resp.Choices = []openAIChoice{{Message: openAIMessage{ToolCalls: []openAIToolCall{tc}}}}

	out, err := parseResponse(resp)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	var wrapped map[string]string
	if err := json.Unmarshal(out.ToolCalls[0].Input, &wrapped); err != nil {
		t.Fatalf("wrapped input not valid JSON: %v", err)
	}
	if wrapped["raw"] != `{"env":` {
		t.Errorf("truncated arguments not preserved: %v", wrapped)
	}
}

func TestParseResponseNoChoices(t *testing.T) {
	if _, err := parseResponse(&openAIResponse{}); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestChatAgainstMockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "test-model" {
			http.Error(w, "wrong model", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "2"}, "finish_reason": "stop"},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 1, "total_tokens": 11},
		})
	}))
	defer server.Close()

	p := NewOpenAIProvider("test-key", server.URL, "test-model")
	resp, err := p.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "1 + 1"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "2" || resp.Usage.TotalTokens != 11 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestResolvePrecedence(t *testing.T) {
	cfg := testConfig()
	cfg.Providers.Anthropic.APIKey = "ak"
	cfg.Providers.OpenAI.APIKey = "ok"
	p, err := Resolve(cfg)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.DefaultModel() != cfg.Model.Name {
		t.Errorf("expected configured model, got %s", p.DefaultModel())
	}

	cfg.Providers.Anthropic.APIKey = ""
	if _, err := Resolve(cfg); err != nil {
		t.Errorf("OpenAI key alone should resolve: %v", err)
	}

	cfg.Providers.OpenAI.APIKey = ""
	if _, err := Resolve(cfg); err == nil {
		t.Error("expected error with no API keys")
	}
}
