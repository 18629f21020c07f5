package conversation

import (
	"context"
	"testing"

	"github.com/slack-go/slack"

	"github.com/deskhand/deskhand/internal/provider"
)

type mockHistoryClient struct {
	replies      []slack.Message
	history      []slack.Message
	repliesCalls int
	historyCalls int
	lastReplies  *slack.GetConversationRepliesParameters
	lastHistory  *slack.GetConversationHistoryParameters
}

func (m *mockHistoryClient) GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error) {
	m.repliesCalls++
	m.lastReplies = params
	return m.replies, false, "", nil
}

func (m *mockHistoryClient) GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error) {
	m.historyCalls++
	m.lastHistory = params
	return &slack.GetConversationHistoryResponse{Messages: m.history}, nil
}

func textMessage(user, botID, text string) slack.Message {
	return slack.Message{Msg: slack.Msg{User: user, BotID: botID, Text: text}}
}

func TestBuildThreaded(t *testing.T) {
	client := &mockHistoryClient{
		replies: []slack.Message{
			textMessage("U1", "", "<@UBOT> what is 1 + 1"),
			textMessage("UBOT", "", "2"),
			textMessage("U1", "", "and 2 + 2?"),
		},
	}
	b := NewBuilder(client, "UBOT", 150, 20)

	messages, err := b.Build(context.Background(), "C1", "1000.0001", "and 2 + 2?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.repliesCalls != 1 || client.historyCalls != 0 {
		t.Errorf("expected one replies call, got replies=%d history=%d", client.repliesCalls, client.historyCalls)
	}
	if client.lastReplies.Limit != 150 {
		t.Errorf("expected thread limit 150, got %d", client.lastReplies.Limit)
	}

	want := []provider.Message{
		{Role: provider.RoleUser, Content: "@assistant what is 1 + 1"},
		{Role: provider.RoleAssistant, Content: "2"},
		{Role: provider.RoleUser, Content: "and 2 + 2?"},
	}
	assertMessages(t, messages, want)
}

func TestBuildChannelHistoryReversed(t *testing.T) {
	client := &mockHistoryClient{
		history: []slack.Message{
			// channel history arrives newest first
			textMessage("U1", "", "second"),
			textMessage("U1", "", "first"),
		},
	}
	b := NewBuilder(client, "UBOT", 150, 20)

	messages, err := b.Build(context.Background(), "C1", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.lastHistory.Limit != 20 {
		t.Errorf("expected channel limit 20, got %d", client.lastHistory.Limit)
	}
	want := []provider.Message{
		{Role: provider.RoleUser, Content: "first"},
		{Role: provider.RoleUser, Content: "second"},
	}
	assertMessages(t, messages, want)
}

func TestBuildAppendsCurrentTextOnce(t *testing.T) {
	client := &mockHistoryClient{
		replies: []slack.Message{
			textMessage("U1", "", "hello"),
		},
	}
	b := NewBuilder(client, "UBOT", 150, 20)

	messages, err := b.Build(context.Background(), "C1", "1000.0001", "new question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []provider.Message{
		{Role: provider.RoleUser, Content: "hello"},
		{Role: provider.RoleUser, Content: "new question"},
	}
	assertMessages(t, messages, want)

	// when the transcript already ends with the current text it is not duplicated
	client.replies = append(client.replies, textMessage("U1", "", "new question"))
	messages, err = b.Build(context.Background(), "C1", "1000.0001", "new question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertMessages(t, messages, want)
}

func TestBuildEmptyHistory(t *testing.T) {
	b := NewBuilder(&mockHistoryClient{}, "UBOT", 150, 20)

	messages, err := b.Build(context.Background(), "C1", "1000.0001", "<@UBOT> hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertMessages(t, messages, []provider.Message{
		{Role: provider.RoleUser, Content: "@assistant hi"},
	})

	messages, err = b.Build(context.Background(), "C1", "1000.0001", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected no messages, got %d", len(messages))
	}
}

func TestBuildSkipsEmptyAndAssignsBotRole(t *testing.T) {
	client := &mockHistoryClient{
		replies: []slack.Message{
			textMessage("U1", "", "question"),
			textMessage("", "B9", "bot reply"),
			textMessage("U1", "", "   "),
		},
	}
	b := NewBuilder(client, "UBOT", 150, 20)

	messages, err := b.Build(context.Background(), "C1", "1000.0001", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []provider.Message{
		{Role: provider.RoleUser, Content: "question"},
		{Role: provider.RoleAssistant, Content: "bot reply"},
	}
	assertMessages(t, messages, want)
}

func TestDropTrailingUserMessage(t *testing.T) {
	messages := []provider.Message{
		{Role: provider.RoleUser, Content: "hello"},
		{Role: provider.RoleAssistant, Content: "hi"},
		{Role: provider.RoleUser, Content: "yes"},
	}

	dropped := DropTrailingUserMessage(messages, "yes")
	if len(dropped) != 2 {
		t.Fatalf("expected trailing turn dropped, got %d messages", len(dropped))
	}

	kept := DropTrailingUserMessage(messages, "no")
	if len(kept) != 3 {
		t.Errorf("expected messages unchanged, got %d", len(kept))
	}

	kept = DropTrailingUserMessage(messages[:2], "hi")
	if len(kept) != 2 {
		t.Errorf("assistant tail should never be dropped, got %d", len(kept))
	}
}

func assertMessages(t *testing.T, got, want []provider.Message) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i].Role != want[i].Role || got[i].Content != want[i].Content {
			t.Errorf("message %d = {%s %q}, want {%s %q}",
				i, got[i].Role, got[i].Content, want[i].Role, want[i].Content)
		}
	}
}
