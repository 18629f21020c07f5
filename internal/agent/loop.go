// Package agent drives the bounded tool-call loop: model call, gate
// check, tool execution, repeat until the model answers in plain text,
// the step cap is reached, or a gated tool call suspends the run.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deskhand/deskhand/internal/approval"
	"github.com/deskhand/deskhand/internal/provider"
	"github.com/deskhand/deskhand/internal/tools"
)

// Recorder receives an audit record per executed or denied tool call.
// Implementations must tolerate being called concurrently with the loop's
// other side effects; recording failures never abort the run.
type Recorder interface {
	RecordToolCall(ctx context.Context, call provider.ToolCall, result string, duration time.Duration, execErr error)
}

// Result is the outcome of one loop invocation. Pending is non-empty when
// the run suspended for approval; Text carries the final answer otherwise
// (and any partial text alongside a suspension).
type Result struct {
	Text      string
	Trace     []provider.Message
	Steps     int
	ToolCalls []provider.ToolCall
	Pending   []approval.PendingApproval
}

// Suspended reports whether the run stopped for a human decision.
func (r *Result) Suspended() bool {
	return len(r.Pending) > 0
}

// Config carries the loop's model parameters.
type Config struct {
	Model         string
	SystemPrompt  string
	MaxTokens     int
	Temperature   float64
	MaxIterations int
}

// Loop runs conversations against a provider with a gated tool registry.
type Loop struct {
	provider provider.LLMProvider
	registry *tools.Registry
	gate     *approval.Gate
	recorder Recorder
	cfg      Config
}

// StepFunc is invoked after each completed step that emitted tool calls.
// It runs on the loop goroutine; keep it fast or hand off.
type StepFunc func(step int, toolCalls []provider.ToolCall)

func NewLoop(p provider.LLMProvider, registry *tools.Registry, gate *approval.Gate, recorder Recorder, cfg Config) *Loop {
	if cfg.Model == "" {
		cfg.Model = p.DefaultModel()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 20
	}
	return &Loop{
		provider: p,
		registry: registry,
		gate:     gate,
		recorder: recorder,
		cfg:      cfg,
	}
}

// Run executes the loop over the given conversation. A trailing
// continuation frame (assistant tool calls followed by a tool turn of
// approval responses) is resolved first: approved calls execute now,
// denied ones yield a denial result, and the loop proceeds from there.
// Hitting the iteration cap is not an error; the run returns whatever
// text was produced.
func (l *Loop) Run(ctx context.Context, messages []provider.Message, onStep StepFunc) (*Result, error) {
	msgs := make([]provider.Message, len(messages))
	copy(msgs, messages)

	result := &Result{}
	msgs = l.resolveContinuation(ctx, msgs, result)

	toolDefs := l.registry.Definitions()

	for step := 1; step <= l.cfg.MaxIterations; step++ {
		resp, err := l.provider.Chat(ctx, &provider.ChatRequest{
			Messages:    msgs,
			Tools:       toolDefs,
			Model:       l.cfg.Model,
			System:      l.cfg.SystemPrompt,
			MaxTokens:   l.cfg.MaxTokens,
			Temperature: l.cfg.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("LLM call failed: %w", err)
		}
		result.Steps = step

		if len(resp.ToolCalls) == 0 {
			assistant := provider.Message{Role: provider.RoleAssistant, Content: resp.Content}
			result.Trace = append(result.Trace, assistant)
			result.Text = resp.Content
			return result, nil
		}

		assistant := provider.Message{
			Role:      provider.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		}
		result.ToolCalls = append(result.ToolCalls, resp.ToolCalls...)

		var exempt []provider.ToolCall
		for _, tc := range resp.ToolCalls {
			if l.gate.RequiresApproval(tc.Name) {
				assistant.ApprovalRequests = append(assistant.ApprovalRequests, provider.ApprovalRequest{
					ApprovalID: uuid.NewString(),
					ToolCallID: tc.ID,
				})
			} else {
				exempt = append(exempt, tc)
			}
		}

		msgs = append(msgs, assistant)
		result.Trace = append(result.Trace, assistant)

		if onStep != nil {
			onStep(step, resp.ToolCalls)
		}

		toolResults := make([]provider.Message, 0, len(exempt))
		for _, tc := range exempt {
			toolResults = append(toolResults, l.executeTool(ctx, tc))
		}
		msgs = append(msgs, toolResults...)
		result.Trace = append(result.Trace, toolResults...)

		if len(assistant.ApprovalRequests) > 0 {
			result.Text = resp.Content
			result.Pending = approval.Collect(result.Trace)
			slog.Info("Agent loop suspended for approval",
				"step", step, "pending", len(result.Pending))
			return result, nil
		}
	}

	slog.Warn("Agent loop hit iteration cap", "maxIterations", l.cfg.MaxIterations)
	return result, nil
}

// resolveContinuation turns a trailing approval-response turn into real
// tool results so the provider sees a well-formed tool exchange.
func (l *Loop) resolveContinuation(ctx context.Context, msgs []provider.Message, result *Result) []provider.Message {
	if len(msgs) < 2 {
		return msgs
	}
	last := msgs[len(msgs)-1]
	assistant := msgs[len(msgs)-2]
	if last.Role != provider.RoleTool || len(last.ApprovalResponses) == 0 {
		return msgs
	}
	if assistant.Role != provider.RoleAssistant || len(assistant.ToolCalls) == 0 {
		return msgs
	}

	responses := make(map[string]provider.ApprovalResponse, len(last.ApprovalResponses))
	for _, resp := range last.ApprovalResponses {
		responses[resp.ApprovalID] = resp
	}
	decisionByCall := make(map[string]provider.ApprovalResponse, len(assistant.ApprovalRequests))
	for _, req := range assistant.ApprovalRequests {
		if resp, ok := responses[req.ApprovalID]; ok {
			decisionByCall[req.ToolCallID] = resp
		}
	}

	msgs = msgs[:len(msgs)-1]
	for _, tc := range assistant.ToolCalls {
		decision, ok := decisionByCall[tc.ID]
		if !ok || !decision.Approved {
			content := "Denied by user"
			if decision.Reason != "" {
				content += ": " + decision.Reason
			}
			denied := provider.Message{Role: provider.RoleTool, Content: content, ToolCallID: tc.ID}
			msgs = append(msgs, denied)
			result.Trace = append(result.Trace, denied)
			l.record(ctx, tc, content, 0, nil)
			continue
		}
		executed := l.executeTool(ctx, tc)
		msgs = append(msgs, executed)
		result.Trace = append(result.Trace, executed)
	}
	return msgs
}

func (l *Loop) executeTool(ctx context.Context, tc provider.ToolCall) provider.Message {
	start := time.Now()
	output, err := l.registry.Execute(ctx, tc.Name, tc.Input)
	duration := time.Since(start)
	if err != nil {
		slog.Warn("Tool execution failed", "tool", tc.Name, "error", err)
		output = fmt.Sprintf("Error: %v", err)
	}
	l.record(ctx, tc, output, duration, err)
	return provider.Message{Role: provider.RoleTool, Content: output, ToolCallID: tc.ID}
}

func (l *Loop) record(ctx context.Context, tc provider.ToolCall, result string, duration time.Duration, execErr error) {
	if l.recorder == nil {
		return
	}
	l.recorder.RecordToolCall(ctx, tc, result, duration, execErr)
}

// FormatToolStatus renders the running status line shown while tools
// execute, deduplicating repeated names.
func FormatToolStatus(toolCalls []provider.ToolCall) string {
	seen := make(map[string]bool, len(toolCalls))
	var names []string
	for _, tc := range toolCalls {
		if seen[tc.Name] {
			continue
		}
		seen[tc.Name] = true
		names = append(names, tc.Name)
	}
	return "Tool called: " + strings.Join(names, ", ")
}
