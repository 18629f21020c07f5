// Package approval implements the approval-gated tool-call protocol: the
// payload codec embedded in interactive controls, the pairing of
// approval-request markers with tool calls, and the synthetic continuation
// frame used to resume a suspended loop.
package approval

import (
	"encoding/json"

	"github.com/deskhand/deskhand/internal/provider"
)

// PendingApproval is one tool call awaiting a human decision.
type PendingApproval struct {
	ApprovalID string            `json:"approvalId"`
	ToolCall   provider.ToolCall `json:"toolCall"`
}

// Payload is the set of pending approvals carried by a rendered message.
// It is the sole persisted representation of a suspended loop.
type Payload struct {
	Approvals []PendingApproval `json:"approvals"`
}

// EncodePayload serializes pending approvals into the string embedded in
// the approve/deny controls.
func EncodePayload(approvals []PendingApproval) string {
	data, err := json.Marshal(Payload{Approvals: approvals})
	if err != nil {
		return ""
	}
	return string(data)
}

// DecodePayload parses an embedded control value. It returns nil on any
// parse or shape failure; callers treat nil as "no recoverable payload",
// never as an error.
func DecodePayload(value string) *Payload {
	var payload Payload
	if err := json.Unmarshal([]byte(value), &payload); err != nil {
		return nil
	}
	if payload.Approvals == nil {
		return nil
	}
	return &payload
}

// Collect scans a step trace for approval-request markers and pairs each
// with the tool call sharing its toolCallId, preferring the most recent
// tool call seen earlier in trace order. A marker referencing an unseen
// tool call gets a synthesized placeholder so the decision path still has
// something to act on.
func Collect(trace []provider.Message) []PendingApproval {
	toolCallsByID := make(map[string]provider.ToolCall)
	var approvals []PendingApproval
	for _, msg := range trace {
		if msg.Role != provider.RoleAssistant {
			continue
		}
		for _, tc := range msg.ToolCalls {
			toolCallsByID[tc.ID] = tc
		}
		for _, req := range msg.ApprovalRequests {
			tc, ok := toolCallsByID[req.ToolCallID]
			if !ok {
				input, _ := json.Marshal(map[string]string{"toolCallId": req.ToolCallID})
				tc = provider.ToolCall{
					ID:    req.ToolCallID,
					Name:  "unknown",
					Input: input,
				}
			}
			approvals = append(approvals, PendingApproval{
				ApprovalID: req.ApprovalID,
				ToolCall:   tc,
			})
		}
	}
	return approvals
}

// ContinuationFrame builds the synthetic two-turn extension appended at
// resumption: an assistant turn restating the tool calls and approval
// requests, followed by a tool turn carrying one approval response per
// pending approval. The frame is reconstructed fresh from the recovered
// payload on every decision event; it must match what the loop itself
// would have produced at suspension time, or the model context is not
// faithfully resumed.
func ContinuationFrame(approvals []PendingApproval, approved bool, reason string) []provider.Message {
	assistant := provider.Message{Role: provider.RoleAssistant}
	responses := make([]provider.ApprovalResponse, 0, len(approvals))
	for _, a := range approvals {
		assistant.ToolCalls = append(assistant.ToolCalls, a.ToolCall)
		assistant.ApprovalRequests = append(assistant.ApprovalRequests, provider.ApprovalRequest{
			ApprovalID: a.ApprovalID,
			ToolCallID: a.ToolCall.ID,
		})
		responses = append(responses, provider.ApprovalResponse{
			ApprovalID: a.ApprovalID,
			Approved:   approved,
			Reason:     reason,
		})
	}
	return []provider.Message{
		assistant,
		{Role: provider.RoleTool, ApprovalResponses: responses},
	}
}
