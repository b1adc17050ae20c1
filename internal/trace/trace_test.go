package trace_test

import (
	"strings"
	"testing"

	"ember/internal/trace"
)

func TestLevelFiltersScopes(t *testing.T) {
	cases := []struct {
		level trace.Level
		scope trace.Scope
		want  bool
	}{
		{trace.LevelOff, trace.ScopeDriver, false},
		{trace.LevelStage, trace.ScopeStage, true},
		{trace.LevelStage, trace.ScopeModule, false},
		{trace.LevelModule, trace.ScopeModule, true},
		{trace.LevelModule, trace.ScopeFunc, false},
		{trace.LevelFunc, trace.ScopeFunc, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Errorf("expected %v/%v -> %v, got %v", tc.level, tc.scope, tc.want, got)
		}
	}
}

func TestSpanEmitsBeginAndEnd(t *testing.T) {
	ring := trace.NewRingTracer(16, trace.LevelFunc)

	sp := trace.Begin(ring, trace.ScopeStage, "translate", 0)
	inner := trace.Begin(ring, trace.ScopeFunc, "fn:_E3app4main", sp.ID())
	inner.End("ok")
	sp.End("")

	evs := ring.Snapshot()
	if len(evs) != 4 {
		t.Fatalf("expected 4 events, got %d", len(evs))
	}
	if evs[0].Kind != trace.KindSpanBegin || evs[0].Name != "translate" {
		t.Errorf("expected the stage begin first, got %v %q", evs[0].Kind, evs[0].Name)
	}
	if evs[1].ParentID != evs[0].SpanID {
		t.Errorf("expected the function span parented to the stage")
	}
	if evs[2].Kind != trace.KindSpanEnd || evs[2].SpanID != evs[1].SpanID {
		t.Errorf("expected the inner span to end before the stage")
	}
	if evs[3].SpanID != evs[0].SpanID {
		t.Errorf("expected the stage end last")
	}
}

func TestFilteredSpanIsInert(t *testing.T) {
	ring := trace.NewRingTracer(16, trace.LevelStage)

	sp := trace.Begin(ring, trace.ScopeFunc, "fn:x", 0)
	sp.End("")

	if got := len(ring.Snapshot()); got != 0 {
		t.Fatalf("expected no events below the level, got %d", got)
	}
	if sp.ID() != 0 {
		t.Errorf("expected an inert span to carry no ID")
	}
}

func TestStreamTracerWritesLines(t *testing.T) {
	var sb strings.Builder
	st := trace.NewStreamTracer(&sb, trace.LevelStage, trace.FormatText)

	trace.Begin(st, trace.ScopeStage, "emit", 0).End("2 modules")
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	out := sb.String()
	if !strings.Contains(out, "begin stage  emit") && !strings.Contains(out, "emit") {
		t.Fatalf("expected the stage name in output, got %q", out)
	}
	if !strings.Contains(out, "(2 modules)") {
		t.Errorf("expected the end detail in output, got %q", out)
	}
	if got := strings.Count(out, "\n"); got != 2 {
		t.Errorf("expected one line per event, got %d lines", got)
	}
}

func TestNDJSONEventsAreOnePerLine(t *testing.T) {
	var sb strings.Builder
	st := trace.NewStreamTracer(&sb, trace.LevelModule, trace.FormatNDJSON)

	trace.Point(st, trace.ScopeModule, "module:app", "cached", 0)

	out := sb.String()
	if !strings.HasPrefix(out, "{") || !strings.HasSuffix(out, "}\n") {
		t.Fatalf("expected a JSON object line, got %q", out)
	}
	for _, frag := range []string{`"kind":"point"`, `"scope":"module"`, `"name":"module:app"`, `"detail":"cached"`} {
		if !strings.Contains(out, frag) {
			t.Errorf("expected %s in output, got %q", frag, out)
		}
	}
}

func TestRingWrapsKeepingNewest(t *testing.T) {
	ring := trace.NewRingTracer(4, trace.LevelFunc)
	for i := 0; i < 6; i++ {
		trace.Point(ring, trace.ScopeFunc, "fn", "", 0)
	}
	evs := ring.Snapshot()
	if len(evs) != 4 {
		t.Fatalf("expected the buffer capped at 4, got %d", len(evs))
	}
	for i := 1; i < len(evs); i++ {
		if evs[i].Seq <= evs[i-1].Seq {
			t.Fatalf("expected ascending sequence, got %d after %d", evs[i].Seq, evs[i-1].Seq)
		}
	}
}
