package slackbot

import (
	"context"
	"testing"
)

func TestProgressReporterDeletesUneventfulRun(t *testing.T) {
	client := &mockSlackClient{}
	p := NewProgressReporter(client, "C1", "1000.0001")

	ctx := context.Background()
	p.Start(ctx)
	p.Step(1, "", false)
	p.Finish(ctx, false)

	if len(client.deleted) != 1 {
		t.Errorf("expected progress message deleted, got %v", client.deleted)
	}
}

func TestProgressReporterFinalizesToolRun(t *testing.T) {
	client := &mockSlackClient{}
	p := NewProgressReporter(client, "C1", "")

	ctx := context.Background()
	p.Start(ctx)
	p.Step(1, "Tool called: search_catalog", true)
	p.Finish(ctx, false)

	if len(client.deleted) != 0 {
		t.Error("tool run progress must be retained")
	}
	client.mu.Lock()
	updates := len(client.updated)
	client.mu.Unlock()
	if updates == 0 {
		t.Error("expected a terminal update")
	}
}

func TestProgressReporterFinalizesMultiStepRun(t *testing.T) {
	client := &mockSlackClient{}
	p := NewProgressReporter(client, "C1", "")

	ctx := context.Background()
	p.Start(ctx)
	p.Step(1, "", false)
	p.Step(2, "", false)
	p.Finish(ctx, true)

	if len(client.deleted) != 0 {
		t.Error("multi-step progress must be retained")
	}
}

func TestProgressReporterSurvivesFailedStart(t *testing.T) {
	p := NewProgressReporter(&mockSlackClient{}, "C1", "")
	// never started: ts is empty, every call must be a no-op
	p.Step(1, "Tool called: x", true)
	p.Finish(context.Background(), false)
}
