package approval

import (
	"github.com/slack-go/slack"
)

// Action IDs carried by the approve and deny controls. Both controls
// embed the identical encoded payload; only the action ID distinguishes
// the decision.
const (
	ActionApprove = "tool_approval_approve"
	ActionDeny    = "tool_approval_deny"
)

// PayloadFromBlocks recovers a pending-approval payload from a rendered
// message's blocks. It is the fallback path used when a decision event
// does not carry the control value directly, and the scan for free-text
// decisions. Unrelated interactive controls are skipped; the first
// control whose value decodes wins.
func PayloadFromBlocks(blocks []slack.Block) *Payload {
	for _, block := range blocks {
		action, ok := block.(*slack.ActionBlock)
		if !ok || action.Elements == nil {
			continue
		}
		for _, element := range action.Elements.ElementSet {
			button, ok := element.(*slack.ButtonBlockElement)
			if !ok {
				continue
			}
			if button.ActionID != ActionApprove && button.ActionID != ActionDeny {
				continue
			}
			if payload := DecodePayload(button.Value); payload != nil {
				return payload
			}
		}
	}
	return nil
}
