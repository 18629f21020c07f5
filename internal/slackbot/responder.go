package slackbot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/deskhand/deskhand/internal/agent"
	"github.com/deskhand/deskhand/internal/approval"
	"github.com/deskhand/deskhand/internal/audit"
	"github.com/deskhand/deskhand/internal/conversation"
	"github.com/deskhand/deskhand/internal/provider"
)

const (
	updateTimeout  = 10 * time.Second
	maxPostRetries = 3
)

// SlackClient is the full chat API surface the responder depends on.
type SlackClient interface {
	MessagePoster
	conversation.HistoryClient
	AddReactionContext(ctx context.Context, name string, item slack.ItemRef) error
	RemoveReactionContext(ctx context.Context, name string, item slack.ItemRef) error
}

// LoopRunner runs one conversation through the agent loop.
type LoopRunner interface {
	Run(ctx context.Context, messages []provider.Message, onStep agent.StepFunc) (*agent.Result, error)
}

// Responder handles one inbound event end to end: rebuild the
// conversation, run the loop, and render either the answer or a new
// approval prompt. It holds no per-conversation state between events.
type Responder struct {
	client  SlackClient
	builder *conversation.Builder
	loop    LoopRunner
	auditor *audit.Service
}

func NewResponder(client SlackClient, builder *conversation.Builder, loop LoopRunner, auditor *audit.Service) *Responder {
	return &Responder{
		client:  client,
		builder: builder,
		loop:    loop,
		auditor: auditor,
	}
}

// HandleMessage processes a plain message or app mention. Text matching
// the decision vocabulary resumes a pending approval in the thread when
// one exists; everything else goes through the normal agent path.
func (r *Responder) HandleMessage(ctx context.Context, channel, threadTS, messageTS, text string) {
	item := slack.ItemRef{Channel: channel, Timestamp: messageTS}
	if err := r.client.AddReactionContext(ctx, "eyes", item); err != nil {
		slog.Warn("Failed to add reaction", "error", err)
	}
	defer func() {
		if err := r.client.RemoveReactionContext(ctx, "eyes", item); err != nil {
			slog.Warn("Failed to remove reaction", "error", err)
		}
	}()

	if strings.TrimSpace(text) == "" {
		r.postText(ctx, channel, threadTS, "Please send some text.")
		return
	}

	if decision := approval.ParseDecision(text); decision.Matched {
		if payload := r.findLatestPayload(ctx, channel, threadTS); payload != nil {
			r.resume(ctx, channel, threadTS, payload, decision.Approved, decision.Reason, text)
			return
		}
		// decision words with nothing pending fall through to the agent
	}

	messages, err := r.builder.Build(ctx, channel, threadTS, text)
	if err != nil {
		slog.Error("Failed to build conversation", "channel", channel, "error", err)
		r.postText(ctx, channel, threadTS, "Sorry, I could not read the conversation history.")
		return
	}
	r.runAndDeliver(ctx, channel, threadTS, messages)
}

// HandleDecision processes an approve/deny button click. The payload is
// recovered from the button value first, then from the rendered message's
// own controls.
func (r *Responder) HandleDecision(ctx context.Context, cb slack.InteractionCallback) {
	channel := cb.Channel.ID
	if channel == "" {
		channel = cb.Container.ChannelID
	}
	threadTS := cb.Message.Msg.ThreadTimestamp
	if threadTS == "" {
		threadTS = cb.Container.ThreadTs
	}

	var actionID, value string
	if len(cb.ActionCallback.BlockActions) > 0 {
		actionID = cb.ActionCallback.BlockActions[0].ActionID
		value = cb.ActionCallback.BlockActions[0].Value
	}
	if actionID != approval.ActionApprove && actionID != approval.ActionDeny {
		return
	}

	payload := approval.DecodePayload(value)
	if payload == nil {
		payload = approval.PayloadFromBlocks(cb.Message.Blocks.BlockSet)
	}
	if payload == nil || len(payload.Approvals) == 0 {
		r.postText(ctx, channel, threadTS, "No pending approval found.")
		return
	}

	approved := actionID == approval.ActionApprove
	r.resume(ctx, channel, threadTS, payload, approved, "", "")
}

// resume rebuilds the conversation as of the original request, appends
// the continuation frame carrying the decision, and re-runs the loop. The
// run may suspend again; nesting is bounded only by the loop's own cap.
func (r *Responder) resume(ctx context.Context, channel, threadTS string, payload *approval.Payload, approved bool, reason, decisionText string) {
	r.recordDecisions(ctx, channel, threadTS, payload, approved, reason)

	messages, err := r.builder.Build(ctx, channel, threadTS, "")
	if err != nil {
		slog.Error("Failed to rebuild conversation", "channel", channel, "error", err)
		r.postText(ctx, channel, threadTS, "Sorry, I could not read the conversation history.")
		return
	}
	if decisionText != "" {
		messages = conversation.DropTrailingUserMessage(messages, r.builder.ReplaceBotMention(decisionText))
	}
	messages = append(messages, approval.ContinuationFrame(payload.Approvals, approved, reason)...)

	r.runAndDeliver(ctx, channel, threadTS, messages)
}

func (r *Responder) runAndDeliver(ctx context.Context, channel, threadTS string, messages []provider.Message) {
	if len(messages) == 0 {
		return
	}

	progress := NewProgressReporter(r.client, channel, threadTS)
	progress.Start(ctx)

	result, err := r.loop.Run(ctx, messages, func(step int, toolCalls []provider.ToolCall) {
		progress.Step(step, agent.FormatToolStatus(toolCalls), len(toolCalls) > 0)
	})
	if err != nil {
		progress.Finish(ctx, true)
		slog.Error("Agent loop failed", "channel", channel, "error", err)
		r.postText(ctx, channel, threadTS, "Sorry, something went wrong while handling that.")
		return
	}
	progress.Finish(ctx, false)

	var text string
	var blocks []slack.Block
	if result.Suspended() {
		text = result.Text
		if text != "" {
			text += "\n\n"
		}
		text += approval.FormatPrompt(result.Pending)
		blocks = BuildApprovalBlocks(text, approval.EncodePayload(result.Pending))
	} else {
		text = result.Text
		if text == "" {
			text = "I don't have anything to add."
		}
		blocks = BuildTextBlocks(text)
	}

	ts := r.postBlocks(ctx, channel, threadTS, text, blocks)
	if ts == "" || len(result.ToolCalls) == 0 {
		return
	}

	// follow-up update appending the tool status line to the reply
	status := agent.FormatToolStatus(result.ToolCalls)
	if _, _, _, err := r.client.UpdateMessageContext(ctx, channel, ts,
		slack.MsgOptionText(AppendToolStatusToText(text, status), false),
		slack.MsgOptionBlocks(AppendToolStatusToBlocks(blocks, status)...),
	); err != nil {
		slog.Warn("Failed to append tool status", "channel", channel, "error", err)
	}
}

// findLatestPayload scans recent messages in the thread (or channel, when
// unthreaded) newest first for a rendered approval prompt whose controls
// still decode.
func (r *Responder) findLatestPayload(ctx context.Context, channel, threadTS string) *approval.Payload {
	var history []slack.Message
	if threadTS != "" {
		msgs, _, _, err := r.client.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
			ChannelID: channel,
			Timestamp: threadTS,
			Limit:     150,
		})
		if err != nil {
			slog.Warn("Failed to fetch thread for payload scan", "error", err)
			return nil
		}
		// replies arrive oldest first
		history = make([]slack.Message, len(msgs))
		for i, msg := range msgs {
			history[len(msgs)-1-i] = msg
		}
	} else {
		resp, err := r.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: channel,
			Limit:     20,
		})
		if err != nil {
			slog.Warn("Failed to fetch history for payload scan", "error", err)
			return nil
		}
		history = resp.Messages
	}

	for _, msg := range history {
		if payload := approval.PayloadFromBlocks(msg.Blocks.BlockSet); payload != nil && len(payload.Approvals) > 0 {
			return payload
		}
	}
	return nil
}

func (r *Responder) recordDecisions(ctx context.Context, channel, threadTS string, payload *approval.Payload, approved bool, reason string) {
	if r.auditor == nil {
		return
	}
	for _, pending := range payload.Approvals {
		if err := r.auditor.RecordDecision(ctx, pending.ApprovalID, pending.ToolCall.Name, approved, reason, channel, threadTS); err != nil {
			slog.Warn("Failed to record decision", "error", err)
		}
	}
}

func (r *Responder) postText(ctx context.Context, channel, threadTS, text string) {
	r.postBlocks(ctx, channel, threadTS, text, BuildTextBlocks(text))
}

// postBlocks sends a message with rate-limit retries and returns the
// posted timestamp, empty when every attempt failed.
func (r *Responder) postBlocks(ctx context.Context, channel, threadTS, text string, blocks []slack.Block) string {
	opts := []slack.MsgOption{
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(blocks...),
	}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	for attempt := 0; attempt < maxPostRetries; attempt++ {
		_, ts, err := r.client.PostMessageContext(ctx, channel, opts...)
		if err == nil {
			return ts
		}
		var rle *slack.RateLimitedError
		if errors.As(err, &rle) && rle != nil {
			select {
			case <-time.After(rle.RetryAfter):
				continue
			case <-ctx.Done():
				return ""
			}
		}
		slog.Error("Failed to post message", "channel", channel, "error", err)
		return ""
	}
	return ""
}
