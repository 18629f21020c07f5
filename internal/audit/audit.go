// Package audit keeps a local SQLite record of tool calls and approval
// decisions. The audit log is observability only; conversation state
// always lives in the chat thread.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/deskhand/deskhand/internal/provider"
)

const schema = `
CREATE TABLE IF NOT EXISTS tool_calls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tool_call_id TEXT NOT NULL,
	tool_name TEXT NOT NULL,
	input TEXT,
	result TEXT,
	error_text TEXT,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tool_calls_name ON tool_calls(tool_name);

CREATE TABLE IF NOT EXISTS decisions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	approval_id TEXT NOT NULL,
	tool_name TEXT NOT NULL,
	approved BOOLEAN NOT NULL,
	reason TEXT,
	channel TEXT,
	thread_ts TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_decisions_approval ON decisions(approval_id);
`

// Service writes audit records to SQLite.
type Service struct {
	db *sql.DB
}

func NewService(dbPath string) (*Service, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open audit db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply audit schema: %w", err)
	}
	return &Service{db: db}, nil
}

// RecordToolCall stores one executed (or failed) tool call.
func (s *Service) RecordToolCall(ctx context.Context, call provider.ToolCall, result string, duration time.Duration, execErr error) {
	errText := ""
	if execErr != nil {
		errText = execErr.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tool_calls (tool_call_id, tool_name, input, result, error_text, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		call.ID, call.Name, string(call.Input), result, errText, duration.Milliseconds())
	if err != nil {
		// audit failures never abort the run
		return
	}
}

// RecordDecision stores one approval or denial.
func (s *Service) RecordDecision(ctx context.Context, approvalID, toolName string, approved bool, reason, channel, threadTS string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (approval_id, tool_name, approved, reason, channel, thread_ts)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		approvalID, toolName, approved, reason, channel, threadTS)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

// ToolCallCount reports how many tool calls are on record, used by the
// doctor command.
func (s *Service) ToolCallCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tool_calls`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tool calls: %w", err)
	}
	return n, nil
}

func (s *Service) Close() error {
	return s.db.Close()
}
