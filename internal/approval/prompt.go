package approval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FormatPrompt renders the human-readable approval request text: one
// section per pending tool call with its name and pretty-printed input.
func FormatPrompt(approvals []PendingApproval) string {
	var b strings.Builder
	b.WriteString("Tool approval required:")
	for _, a := range approvals {
		b.WriteString(fmt.Sprintf("\n\n`%s`\n```\n%s\n```", a.ToolCall.Name, prettyInput(a.ToolCall.Input)))
	}
	return b.String()
}

func prettyInput(input json.RawMessage) string {
	if len(input) == 0 {
		return "{}"
	}
	var out bytes.Buffer
	if err := json.Indent(&out, input, "", "  "); err != nil {
		return string(input)
	}
	return out.String()
}
