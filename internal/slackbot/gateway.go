package slackbot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

const dedupeTTL = 10 * time.Minute

// Gateway owns the socket-mode connection and routes events to the
// responder. Event delivery is at-least-once, so inbound events are
// deduplicated by ID within a short TTL.
type Gateway struct {
	api       *slack.Client
	socket    *socketmode.Client
	responder *Responder
	botUserID string

	seenMu sync.Mutex
	seen   map[string]time.Time
}

func NewGateway(api *slack.Client, responder *Responder, botUserID string) *Gateway {
	return &Gateway{
		api:       api,
		socket:    socketmode.New(api),
		responder: responder,
		botUserID: botUserID,
		seen:      map[string]time.Time{},
	}
}

// Run resolves the bot's own identity when not already known and blocks
// on the socket-mode event loop until the context is cancelled.
func (g *Gateway) Run(ctx context.Context) error {
	if g.botUserID == "" {
		auth, err := g.api.AuthTestContext(ctx)
		if err != nil {
			return fmt.Errorf("auth test failed: %w", err)
		}
		g.botUserID = auth.UserID
	}
	slog.Info("Connected to Slack", "botUserID", g.botUserID)

	go g.handleEvents(ctx)
	return g.socket.RunContext(ctx)
}

// BotUserID returns the resolved bot identity, empty before Run.
func (g *Gateway) BotUserID() string {
	return g.botUserID
}

func (g *Gateway) handleEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-g.socket.Events:
			if !ok {
				return
			}
			switch evt.Type {
			case socketmode.EventTypeEventsAPI:
				if evt.Request != nil {
					g.socket.Ack(*evt.Request)
				}
				ev, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok || ev.Type != slackevents.CallbackEvent {
					continue
				}
				g.dispatchCallback(ctx, ev)
			case socketmode.EventTypeInteractive:
				if evt.Request != nil {
					g.socket.Ack(*evt.Request)
				}
				cb, ok := evt.Data.(slack.InteractionCallback)
				if !ok {
					continue
				}
				go g.responder.HandleDecision(ctx, cb)
			case socketmode.EventTypeConnecting:
				slog.Info("Connecting to Slack socket mode")
			case socketmode.EventTypeConnectionError:
				slog.Warn("Slack socket connection error")
			case socketmode.EventTypeConnected:
				slog.Info("Slack socket connected")
			}
		}
	}
}

func (g *Gateway) dispatchCallback(ctx context.Context, ev slackevents.EventsAPIEvent) {
	switch in := ev.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		if in == nil || !g.shouldHandleMessage(in) {
			return
		}
		if g.seenEvent("msg:" + in.Channel + ":" + in.TimeStamp) {
			return
		}
		go g.responder.HandleMessage(ctx, in.Channel, in.ThreadTimeStamp, in.TimeStamp, in.Text)
	case *slackevents.AppMentionEvent:
		if in == nil || in.User == g.botUserID {
			return
		}
		if g.seenEvent("mention:" + in.Channel + ":" + in.TimeStamp) {
			return
		}
		go g.responder.HandleMessage(ctx, in.Channel, in.ThreadTimeStamp, in.TimeStamp, in.Text)
	}
}

// shouldHandleMessage filters the plain-message path: direct messages
// only, no subtypes (edits, joins), nothing bot-authored. Channel
// messages reach the agent through app mentions instead.
func (g *Gateway) shouldHandleMessage(in *slackevents.MessageEvent) bool {
	if in.SubType != "" || in.BotID != "" {
		return false
	}
	if in.User == "" || in.User == g.botUserID {
		return false
	}
	return in.ChannelType == "im"
}

func (g *Gateway) seenEvent(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	now := time.Now()
	g.seenMu.Lock()
	defer g.seenMu.Unlock()
	for k, expiry := range g.seen {
		if now.After(expiry) {
			delete(g.seen, k)
		}
	}
	if _, ok := g.seen[key]; ok {
		return true
	}
	g.seen[key] = now.Add(dedupeTTL)
	return false
}
