package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	"ember/internal/driver"
	"ember/internal/pipeline"
	"ember/internal/trans"
)

func TestReadUIModeValues(t *testing.T) {
	cases := []struct {
		in   string
		want uiMode
		ok   bool
	}{
		{"", uiModeAuto, true},
		{"auto", uiModeAuto, true},
		{"ON", uiModeOn, true},
		{" off ", uiModeOff, true},
		{"sometimes", "", false},
	}
	for _, c := range cases {
		got, err := readUIMode(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Errorf("readUIMode(%q) = %v, %v; expected %v", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Errorf("readUIMode(%q): expected an error", c.in)
		}
	}
}

func TestReadColorModeRejectsJunk(t *testing.T) {
	if _, err := readColorMode("purple"); err == nil {
		t.Fatalf("expected an error for an unknown color mode")
	}
	if on, err := readColorMode("on"); err != nil || !on {
		t.Fatalf("expected on to force color, got %v, %v", on, err)
	}
	if on, err := readColorMode("off"); err != nil || on {
		t.Fatalf("expected off to disable color, got %v, %v", on, err)
	}
}

func TestPrintStatsCoversEveryOutcome(t *testing.T) {
	res := &driver.Result{Modules: []driver.ModuleResult{
		{Name: "hello", Stats: trans.Stats{Funcs: 3, CStrings: 2}},
		{Name: "loops", Cached: true, Stats: trans.Stats{Funcs: 4}},
		{Name: "broken", Err: errors.New("boom")},
	}}
	var sb strings.Builder
	printStats(&sb, res, false)
	out := sb.String()
	for _, frag := range []string{"hello", "loops", "broken", "(cached)", "failed"} {
		if !strings.Contains(out, frag) {
			t.Errorf("expected stats output to mention %q:\n%s", frag, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("expected no escape codes without color:\n%s", out)
	}
}

func TestPrintStageTimingsSkipsIdleStages(t *testing.T) {
	var sb strings.Builder
	var tm pipeline.Timings
	printStageTimings(&sb, tm)
	if sb.Len() != 0 {
		t.Fatalf("expected no output for empty timings, got %q", sb.String())
	}
	tm.Add(pipeline.StageTranslate, 2*time.Millisecond)
	printStageTimings(&sb, tm)
	if !strings.Contains(sb.String(), "translate") {
		t.Errorf("expected the translate stage to be printed, got %q", sb.String())
	}
	if strings.Contains(sb.String(), "verify") {
		t.Errorf("expected idle stages to be skipped, got %q", sb.String())
	}
}
