package approval

import "strings"

// defaultExemptTools lists read-only tools that execute without a human
// decision. Anything not listed (and not matched by an exempt prefix) is
// gated.
var defaultExemptTools = []string{
	"search_catalog",
	"read_artifact_content",
	"search_catalog_changes",
	"describe_catalog",
	"list_catalog_types",
	"get_related_configs",
	"list_connections",
	"search_health_checks",
	"get_check_status",
	"list_all_checks",
	"get_playbook_run_steps",
	"get_playbook_failed_runs",
	"get_playbook_recent_runs",
	"get_all_playbooks",
	"get_notifications_for_resource",
	"get_notification_detail",
	"read_artifact_metadata",
}

// Gate decides which tool calls require approval before execution.
type Gate struct {
	exempt         map[string]bool
	exemptPrefixes []string
}

// NewGate returns a gate with the default exemption set. Extra names add
// to (never replace) the defaults.
func NewGate(extraExempt ...string) *Gate {
	g := &Gate{
		exempt:         make(map[string]bool, len(defaultExemptTools)+len(extraExempt)),
		exemptPrefixes: []string{"view_"},
	}
	for _, name := range defaultExemptTools {
		g.exempt[name] = true
	}
	for _, name := range extraExempt {
		g.exempt[name] = true
	}
	return g
}

// RequiresApproval reports whether a tool call must be held for a human
// decision before executing.
func (g *Gate) RequiresApproval(toolName string) bool {
	if g.exempt[toolName] {
		return false
	}
	for _, prefix := range g.exemptPrefixes {
		if strings.HasPrefix(toolName, prefix) {
			return false
		}
	}
	return true
}
