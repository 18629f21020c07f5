// Package slackbot connects the agent loop to Slack: socket-mode event
// intake, message rendering, approval round-trips, and progress updates.
package slackbot

import (
	"strings"

	"github.com/slack-go/slack"

	"github.com/deskhand/deskhand/internal/approval"
)

// BuildTextBlocks renders plain answer text as a single markdown section.
func BuildTextBlocks(text string) []slack.Block {
	return []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
	}
}

// BuildApprovalBlocks renders the approval prompt: the formatted text plus
// approve and deny buttons. Both buttons carry the identical encoded
// payload so either control, or a later scan of the rendered message, can
// recover the pending state.
func BuildApprovalBlocks(text, payloadValue string) []slack.Block {
	approve := slack.NewButtonBlockElement(
		approval.ActionApprove,
		payloadValue,
		slack.NewTextBlockObject(slack.PlainTextType, "Approve", false, false),
	).WithStyle(slack.StylePrimary)
	deny := slack.NewButtonBlockElement(
		approval.ActionDeny,
		payloadValue,
		slack.NewTextBlockObject(slack.PlainTextType, "Deny", false, false),
	).WithStyle(slack.StyleDanger)

	return append(BuildTextBlocks(text), slack.NewActionBlock("tool_approval", approve, deny))
}

// AppendToolStatusToText adds the italic tool status line below the reply
// text.
func AppendToolStatusToText(text, status string) string {
	if strings.TrimSpace(text) == "" {
		return "_" + status + "_"
	}
	return text + "\n\n_" + status + "_"
}

// AppendToolStatusToBlocks appends the status as a trailing context line,
// leaving the existing blocks (including any approval controls) intact.
func AppendToolStatusToBlocks(blocks []slack.Block, status string) []slack.Block {
	out := make([]slack.Block, 0, len(blocks)+1)
	out = append(out, blocks...)
	return append(out, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, "_"+status+"_", false, false)))
}
