package transcript

import (
	"testing"

	"github.com/slack-go/slack"
)

func richText(elements ...slack.RichTextElement) *slack.RichTextBlock {
	return slack.NewRichTextBlock("", elements...)
}

func TestExtractTextSkipsMentions(t *testing.T) {
	blocks := []slack.Block{
		richText(
			slack.NewRichTextSection(
				slack.NewRichTextSectionUserElement("U0A68AR27J6", nil),
				slack.NewRichTextSectionTextElement("1 + 1", nil),
			),
		),
	}
	if got := ExtractText(blocks); got != "1 + 1" {
		t.Errorf("expected %q, got %q", "1 + 1", got)
	}
}

func TestExtractTextSectionAndHeader(t *testing.T) {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, "Deploy status", false, false)),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, "All systems go", false, false),
			[]*slack.TextBlockObject{
				slack.NewTextBlockObject(slack.MarkdownType, "region: us-east", false, false),
			},
			nil,
		),
	}
	want := "Deploy status\nAll systems go\nregion: us-east"
	if got := ExtractText(blocks); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestExtractTextLinksAndEmoji(t *testing.T) {
	blocks := []slack.Block{
		richText(
			slack.NewRichTextSection(
				slack.NewRichTextSectionTextElement("see ", nil),
				slack.NewRichTextSectionLinkElement("https://example.com/run/1", "the run", nil),
				slack.NewRichTextSectionTextElement(" ", nil),
				slack.NewRichTextSectionEmojiElement("rocket", 2, nil),
			),
		),
	}
	want := "see the run: https://example.com/run/1 :rocket:"
	if got := ExtractText(blocks); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestExtractTextList(t *testing.T) {
	blocks := []slack.Block{
		richText(
			slack.NewRichTextList(slack.RTEListBullet, 0,
				slack.NewRichTextSection(slack.NewRichTextSectionTextElement("first", nil)),
				slack.NewRichTextSection(slack.NewRichTextSectionTextElement("second", nil)),
			),
		),
	}
	want := "- first\n- second"
	if got := ExtractText(blocks); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestExtractTextButtons(t *testing.T) {
	blocks := []slack.Block{
		slack.NewActionBlock("actions",
			slack.NewButtonBlockElement("a1", "v1", slack.NewTextBlockObject(slack.PlainTextType, "Approve", false, false)),
		),
	}
	if got := ExtractText(blocks); got != "Approve" {
		t.Errorf("expected %q, got %q", "Approve", got)
	}
}

func TestExtractTextEmpty(t *testing.T) {
	if got := ExtractText(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
	if got := ExtractText([]slack.Block{slack.NewDividerBlock()}); got != "" {
		t.Errorf("expected empty string for unknown blocks, got %q", got)
	}
}

func TestMergeMessageText(t *testing.T) {
	cases := []struct {
		blockText string
		baseText  string
		want      string
	}{
		{"", "", ""},
		{"hello", "", "hello"},
		{"", "hello", "hello"},
		{"hello", "hello", "hello"},
		{"hello world", "world", "hello world"},
		{"hello", "goodbye", "hello\n\ngoodbye"},
	}
	for _, tc := range cases {
		if got := MergeMessageText(tc.blockText, tc.baseText); got != tc.want {
			t.Errorf("MergeMessageText(%q, %q) = %q, want %q", tc.blockText, tc.baseText, got, tc.want)
		}
	}
}

func TestMessageText(t *testing.T) {
	msg := slack.Message{Msg: slack.Msg{Text: "fallback"}}
	if got := MessageText(msg); got != "fallback" {
		t.Errorf("expected fallback text, got %q", got)
	}

	msg.Blocks = slack.Blocks{BlockSet: []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, "rendered", false, false), nil, nil),
	}}
	if got := MessageText(msg); got != "rendered\n\nfallback" {
		t.Errorf("expected merged text, got %q", got)
	}
}
