package slackbot

import (
	"encoding/json"
	"testing"

	"github.com/slack-go/slack"

	"github.com/deskhand/deskhand/internal/approval"
	"github.com/deskhand/deskhand/internal/provider"
)

func TestBuildApprovalBlocks(t *testing.T) {
	payload := approval.EncodePayload([]approval.PendingApproval{
		{ApprovalID: "ap-1", ToolCall: provider.ToolCall{ID: "c1", Name: "deploy", Input: json.RawMessage(`{"env":"prod"}`)}},
	})
	blocks := BuildApprovalBlocks("Tool approval required:", payload)

	if len(blocks) != 2 {
		t.Fatalf("expected section + actions, got %d blocks", len(blocks))
	}
	actions, ok := blocks[1].(*slack.ActionBlock)
	if !ok {
		t.Fatalf("expected action block, got %T", blocks[1])
	}
	if len(actions.Elements.ElementSet) != 2 {
		t.Fatalf("expected two buttons, got %d", len(actions.Elements.ElementSet))
	}

	for i, element := range actions.Elements.ElementSet {
		button, ok := element.(*slack.ButtonBlockElement)
		if !ok {
			t.Fatalf("element %d is %T, not a button", i, element)
		}
		if button.Value != payload {
			t.Errorf("button %d does not carry the payload", i)
		}
	}

	// either button's value must recover the identical payload
	recovered := approval.PayloadFromBlocks(blocks)
	if recovered == nil || len(recovered.Approvals) != 1 || recovered.Approvals[0].ApprovalID != "ap-1" {
		t.Errorf("payload not recoverable from rendered blocks: %+v", recovered)
	}
}

func TestBuildTextBlocks(t *testing.T) {
	blocks := BuildTextBlocks("hello")
	if len(blocks) != 1 {
		t.Fatalf("expected one block, got %d", len(blocks))
	}
	section, ok := blocks[0].(*slack.SectionBlock)
	if !ok || section.Text.Text != "hello" {
		t.Errorf("unexpected block: %+v", blocks[0])
	}
}
