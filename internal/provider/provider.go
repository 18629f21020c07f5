// Package provider implements LLM provider interfaces and clients.
package provider

import (
	"context"
	"encoding/json"
)

// LLMProvider is the interface for LLM API clients.
type LLMProvider interface {
	// Chat sends a completion request and returns the response.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	// DefaultModel returns the configured default model.
	DefaultModel() string
}

// ChatRequest contains the parameters for a chat completion request.
type ChatRequest struct {
	Messages    []Message
	Tools       []ToolDefinition
	Model       string
	System      string
	MaxTokens   int
	Temperature float64
}

// ChatResponse contains the response from a chat completion request.
type ChatResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        Usage
}

// Message represents a chat message. Assistant messages may carry tool-call
// parts and approval-request markers; tool messages carry either a single
// tool result (ToolCallID + Content) or a batch of approval responses.
type Message struct {
	Role              string             `json:"role"`
	Content           string             `json:"content"`
	ToolCalls         []ToolCall         `json:"toolCalls,omitempty"`
	ToolCallID        string             `json:"toolCallId,omitempty"`
	ApprovalRequests  []ApprovalRequest  `json:"approvalRequests,omitempty"`
	ApprovalResponses []ApprovalResponse `json:"approvalResponses,omitempty"`
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall represents a tool call emitted by the LLM. Input is kept as raw
// JSON so payloads round-trip through encode/decode without reshaping.
type ToolCall struct {
	ID    string          `json:"toolCallId"`
	Name  string          `json:"toolName"`
	Input json.RawMessage `json:"input"`
}

// ApprovalRequest marks a tool call in an assistant message as requiring a
// human decision before execution. It is a loop-internal marker and is never
// sent to the completion API.
type ApprovalRequest struct {
	ApprovalID string `json:"approvalId"`
	ToolCallID string `json:"toolCallId"`
}

// ApprovalResponse carries the human decision for one approval request.
type ApprovalResponse struct {
	ApprovalID string `json:"approvalId"`
	Approved   bool   `json:"approved"`
	Reason     string `json:"reason,omitempty"`
}

// ToolDefinition defines a tool that can be called by the LLM.
type ToolDefinition struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef describes a function that can be called.
type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Usage contains token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
