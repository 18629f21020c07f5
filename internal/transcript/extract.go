// Package transcript turns rendered chat messages back into plain text so
// a conversation can be rebuilt from thread history alone.
package transcript

import (
	"strings"

	"github.com/slack-go/slack"
)

// ExtractText flattens a message's layout blocks into plain text. Block
// texts are trimmed and joined with newlines; empty blocks are dropped.
// Unknown block types are skipped rather than erroring, so messages from
// other integrations degrade to whatever text they do carry.
func ExtractText(blocks []slack.Block) string {
	var parts []string
	for _, block := range blocks {
		switch b := block.(type) {
		case *slack.HeaderBlock:
			if b.Text != nil && b.Text.Text != "" {
				parts = append(parts, b.Text.Text)
			}
		case *slack.SectionBlock:
			if b.Text != nil && b.Text.Text != "" {
				parts = append(parts, b.Text.Text)
			}
			for _, field := range b.Fields {
				if field != nil && field.Text != "" {
					parts = append(parts, field.Text)
				}
			}
		case *slack.ActionBlock:
			if b.Elements == nil {
				continue
			}
			for _, element := range b.Elements.ElementSet {
				button, ok := element.(*slack.ButtonBlockElement)
				if !ok || button.Text == nil || button.Text.Text == "" {
					continue
				}
				if button.URL != "" {
					parts = append(parts, button.Text.Text+": "+button.URL)
				} else {
					parts = append(parts, button.Text.Text)
				}
			}
		case *slack.RichTextBlock:
			if text := extractRichText(b.Elements); text != "" {
				parts = append(parts, text)
			}
		}
	}

	var trimmed []string
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			trimmed = append(trimmed, part)
		}
	}
	return strings.Join(trimmed, "\n")
}

// extractRichText walks rich-text elements. Section contents concatenate
// with no separator so inline formatting runs read as one line. User
// mentions are dropped; the conversation layer reintroduces the bot
// mention in a model-friendly form.
func extractRichText(elements []slack.RichTextElement) string {
	var parts []string
	for _, element := range elements {
		switch e := element.(type) {
		case *slack.RichTextSection:
			if text := extractSectionText(e.Elements); text != "" {
				parts = append(parts, text)
			}
		case *slack.RichTextList:
			var items []string
			for _, item := range e.Elements {
				section, ok := item.(*slack.RichTextSection)
				if !ok {
					continue
				}
				if text := extractSectionText(section.Elements); text != "" {
					items = append(items, "- "+text)
				}
			}
			if len(items) > 0 {
				parts = append(parts, strings.Join(items, "\n"))
			}
		}
	}
	return strings.Join(parts, "")
}

func extractSectionText(elements []slack.RichTextSectionElement) string {
	var b strings.Builder
	for _, element := range elements {
		switch e := element.(type) {
		case *slack.RichTextSectionTextElement:
			b.WriteString(e.Text)
		case *slack.RichTextSectionLinkElement:
			if e.Text != "" && e.URL != "" {
				b.WriteString(e.Text + ": " + e.URL)
			} else if e.URL != "" {
				b.WriteString(e.URL)
			}
		case *slack.RichTextSectionEmojiElement:
			if e.Name != "" {
				b.WriteString(":" + e.Name + ":")
			}
		case *slack.RichTextSectionUserElement:
			// mentions carry no conversational content
		}
	}
	return b.String()
}

// MergeMessageText combines block-extracted text with a message's fallback
// text field. Block text wins when it already contains the fallback;
// otherwise differing non-empty texts are kept together so nothing the
// user saw is lost.
func MergeMessageText(blockText, baseText string) string {
	if blockText != "" && baseText != "" && blockText != baseText {
		if strings.Contains(blockText, baseText) {
			return blockText
		}
		return blockText + "\n\n" + baseText
	}
	if blockText != "" {
		return blockText
	}
	return baseText
}

// MessageText resolves the effective text of a stored message, preferring
// block content over the raw text field.
func MessageText(msg slack.Message) string {
	return MergeMessageText(ExtractText(msg.Blocks.BlockSet), msg.Text)
}
