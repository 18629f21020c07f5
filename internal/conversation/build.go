// Package conversation rebuilds a model conversation from chat history.
// The thread transcript is the only durable conversation state; every
// agent run starts by reading it back.
package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/deskhand/deskhand/internal/provider"
	"github.com/deskhand/deskhand/internal/transcript"
)

// HistoryClient is the slice of the chat API the builder needs.
type HistoryClient interface {
	GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error)
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
}

// Builder turns Slack history into provider messages.
type Builder struct {
	client       HistoryClient
	botUserID    string
	threadLimit  int
	channelLimit int
}

func NewBuilder(client HistoryClient, botUserID string, threadLimit, channelLimit int) *Builder {
	if threadLimit <= 0 {
		threadLimit = 150
	}
	if channelLimit <= 0 {
		channelLimit = 20
	}
	return &Builder{
		client:       client,
		botUserID:    botUserID,
		threadLimit:  threadLimit,
		channelLimit: channelLimit,
	}
}

// Build fetches history and converts it into alternating user/assistant
// turns. Inside a thread the full reply chain is read in order; outside
// one, recent channel history is read and reversed into chronological
// order. currentText, when non-empty, is appended as the final user turn
// unless the transcript already ends with it.
func (b *Builder) Build(ctx context.Context, channel, threadTS, currentText string) ([]provider.Message, error) {
	var history []slack.Message
	if threadTS != "" {
		msgs, _, _, err := b.client.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
			ChannelID: channel,
			Timestamp: threadTS,
			Limit:     b.threadLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("fetching thread replies: %w", err)
		}
		history = msgs
	} else {
		resp, err := b.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: channel,
			Limit:     b.channelLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("fetching channel history: %w", err)
		}
		history = make([]slack.Message, len(resp.Messages))
		for i, msg := range resp.Messages {
			history[len(resp.Messages)-1-i] = msg
		}
	}

	currentText = b.ReplaceBotMention(currentText)

	if len(history) == 0 {
		if currentText != "" {
			return []provider.Message{{Role: provider.RoleUser, Content: currentText}}, nil
		}
		return nil, nil
	}

	var messages []provider.Message
	for _, msg := range history {
		blockText := transcript.ExtractText(msg.Blocks.BlockSet)
		baseText := strings.TrimSpace(msg.Text)
		content := transcript.MergeMessageText(blockText, baseText)
		if content == "" {
			continue
		}
		role := provider.RoleUser
		if msg.BotID != "" || (b.botUserID != "" && msg.User == b.botUserID) {
			role = provider.RoleAssistant
		}
		messages = append(messages, provider.Message{
			Role:    role,
			Content: b.ReplaceBotMention(content),
		})
	}

	if currentText != "" {
		last := lastMessage(messages)
		if last == nil || last.Role != provider.RoleUser || last.Content != currentText {
			messages = append(messages, provider.Message{Role: provider.RoleUser, Content: currentText})
		}
	}
	return messages, nil
}

// ReplaceBotMention rewrites the bot's mention token into a stable name
// the model can read.
func (b *Builder) ReplaceBotMention(text string) string {
	if b.botUserID == "" {
		return text
	}
	return strings.ReplaceAll(text, "<@"+b.botUserID+">", "@assistant")
}

// DropTrailingUserMessage removes the final turn when it is a user turn
// with exactly the given text. Used at resumption so the decision message
// itself does not leak into the rebuilt context.
func DropTrailingUserMessage(messages []provider.Message, text string) []provider.Message {
	last := lastMessage(messages)
	if last != nil && last.Role == provider.RoleUser && last.Content == text {
		return messages[:len(messages)-1]
	}
	return messages
}

func lastMessage(messages []provider.Message) *provider.Message {
	if len(messages) == 0 {
		return nil
	}
	return &messages[len(messages)-1]
}
