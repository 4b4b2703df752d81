package spantree_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"spantree"
	"spantree/internal/trace"
)

func TestEnableAndProfile(t *testing.T) {
	var out bytes.Buffer
	spantree.SpanTreeTo(&out).
		Aggregate(true).
		Color(spantree.ColorNever).
		NameFormatter(func(m spantree.Metadata) string { return "app::" + m.Name }).
		Enable()

	// Only the first installation sticks.
	var other bytes.Buffer
	spantree.SpanTreeTo(&other).Enable()

	ctx, top := spantree.Start(context.Background(), "top_level")
	for r := 0; r < 3; r++ {
		_, mid := spantree.StartLevel(ctx, spantree.LevelDebug, "middle")
		time.Sleep(time.Microsecond)
		mid.End("")
	}
	top.End("")

	lines := strings.Split(out.String(), "\n")
	if len(lines) != 4 || lines[2] != "" || lines[3] != "" {
		t.Fatalf("unexpected output %q", out.String())
	}
	if fields := strings.Fields(lines[0]); len(fields) != 2 || fields[1] != "app::top_level" {
		t.Fatalf("root line %q", lines[0])
	}
	if fields := strings.Fields(lines[1]); len(fields) != 3 || fields[1] != "3" || fields[2] != "app::middle" {
		t.Fatalf("middle line %q", lines[1])
	}
	if other.Len() != 0 {
		t.Fatalf("second tracer printed %q", other.String())
	}
}

func TestBuildDoesNotInstall(t *testing.T) {
	before := trace.Global()

	var out bytes.Buffer
	tree := spantree.SpanTreeTo(&out).
		Color(spantree.ColorNever).
		MaxLevel(spantree.LevelInfo).
		MaxNameWidth(4).
		Build()

	if trace.Global() != before {
		t.Fatalf("Build installed a global tracer")
	}
	if trace.Global() == trace.Tracer(tree) {
		t.Fatalf("built tree is the global tracer")
	}
	if tree.Level() != spantree.LevelInfo {
		t.Fatalf("level = %v", tree.Level())
	}

	ctx := trace.WithTracer(context.Background(), tree)
	ctx, root := spantree.Start(ctx, "profile")
	_, hidden := spantree.StartLevel(ctx, spantree.LevelDebug, "hidden")
	hidden.End("")
	root.End("")

	lines := strings.Split(out.String(), "\n")
	if len(lines) != 3 || !strings.HasSuffix(lines[0], " pro…") || lines[1] != "" {
		t.Fatalf("unexpected output %q", out.String())
	}
}
