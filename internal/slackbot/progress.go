package slackbot

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/slack-go/slack"
)

// MessagePoster is the slice of the chat API the progress reporter needs.
type MessagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error)
	DeleteMessageContext(ctx context.Context, channel, messageTimestamp string) (string, string, error)
}

// ProgressReporter posts a best-effort running status message while the
// loop works. Every call is non-fatal: post and update failures are
// logged and swallowed, and the reporter never blocks the response path.
type ProgressReporter struct {
	client   MessagePoster
	channel  string
	threadTS string

	mu         sync.Mutex
	ts         string
	lines      []string
	steps      int
	toolCalled bool
}

func NewProgressReporter(client MessagePoster, channel, threadTS string) *ProgressReporter {
	return &ProgressReporter{client: client, channel: channel, threadTS: threadTS}
}

// Start posts the initial in-progress message.
func (p *ProgressReporter) Start(ctx context.Context) {
	opts := []slack.MsgOption{slack.MsgOptionText("Working on it...", false)}
	if p.threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(p.threadTS))
	}
	_, ts, err := p.client.PostMessageContext(ctx, p.channel, opts...)
	if err != nil {
		slog.Warn("Failed to post progress message", "error", err)
		return
	}
	p.mu.Lock()
	p.ts = ts
	p.mu.Unlock()
}

// Step records a completed loop step and pushes an asynchronous update
// when the step produced tool calls.
func (p *ProgressReporter) Step(step int, line string, hadToolCalls bool) {
	p.mu.Lock()
	p.steps = step
	if hadToolCalls {
		p.toolCalled = true
		p.lines = append(p.lines, line)
	}
	ts := p.ts
	text := p.render("Working on it...")
	p.mu.Unlock()

	if ts == "" || !hadToolCalls {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
		defer cancel()
		if _, _, _, err := p.client.UpdateMessageContext(ctx, p.channel, ts, slack.MsgOptionText(text, false)); err != nil {
			slog.Warn("Failed to update progress message", "error", err)
		}
	}()
}

// Finish collapses the progress message to a terminal state. A run that
// finished in a single step with no tool calls produced nothing worth
// keeping, so the message is deleted instead.
func (p *ProgressReporter) Finish(ctx context.Context, failed bool) {
	p.mu.Lock()
	ts := p.ts
	keep := p.steps >= 2 || p.toolCalled
	final := "Done"
	if failed {
		final = "Stopped due to error"
	}
	text := p.render(final)
	p.mu.Unlock()

	if ts == "" {
		return
	}
	if !keep {
		if _, _, err := p.client.DeleteMessageContext(ctx, p.channel, ts); err != nil {
			slog.Warn("Failed to delete progress message", "error", err)
		}
		return
	}
	if _, _, _, err := p.client.UpdateMessageContext(ctx, p.channel, ts, slack.MsgOptionText(text, false)); err != nil {
		slog.Warn("Failed to finalize progress message", "error", err)
	}
}

func (p *ProgressReporter) render(status string) string {
	if len(p.lines) == 0 {
		return status
	}
	return strings.Join(p.lines, "\n") + "\n" + status
}
