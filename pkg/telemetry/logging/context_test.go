package logging

import (
	"context"
	"testing"
)

func TestContextRoundTrips(t *testing.T) {
	ctx := context.Background()

	if got := RunID(ctx); got != "" {
		t.Errorf("RunID(empty ctx) = %q, want empty", got)
	}

	ctx = WithRunID(ctx, "run-1")
	ctx = WithRuleID(ctx, "tree_walk.no_process_exit")
	ctx = WithEngine(ctx, "tree_walk")
	ctx = WithTrigger(ctx, "manual")

	if got := RunID(ctx); got != "run-1" {
		t.Errorf("RunID() = %q, want run-1", got)
	}
	if got := RuleID(ctx); got != "tree_walk.no_process_exit" {
		t.Errorf("RuleID() = %q, want tree_walk.no_process_exit", got)
	}
	if got := Engine(ctx); got != "tree_walk" {
		t.Errorf("Engine() = %q, want tree_walk", got)
	}
	if got := Trigger(ctx); got != "manual" {
		t.Errorf("Trigger() = %q, want manual", got)
	}
}

func TestContextAttrs(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-9")
	ctx = WithEngine(ctx, "semantic")

	attrs := contextAttrs(ctx)
	if len(attrs) != 2 {
		t.Fatalf("len(contextAttrs()) = %d, want 2", len(attrs))
	}
	if attrs[0].Key != "run_id" || attrs[0].Value.String() != "run-9" {
		t.Errorf("attrs[0] = %v, want run_id=run-9", attrs[0])
	}
	if attrs[1].Key != "engine" || attrs[1].Value.String() != "semantic" {
		t.Errorf("attrs[1] = %v, want engine=semantic", attrs[1])
	}
}

func TestContextAttrs_Empty(t *testing.T) {
	if attrs := contextAttrs(context.Background()); len(attrs) != 0 {
		t.Errorf("contextAttrs(empty ctx) = %v, want none", attrs)
	}
}
