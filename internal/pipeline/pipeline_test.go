package pipeline_test

import (
	"sync"
	"testing"
	"time"

	"ember/internal/pipeline"
)

func TestTimingsAccumulate(t *testing.T) {
	var tm pipeline.Timings
	tm.Add(pipeline.StageTranslate, 10*time.Millisecond)
	tm.Add(pipeline.StageTranslate, 5*time.Millisecond)
	tm.Add(pipeline.StageEmit, 2*time.Millisecond)

	if got := tm.Duration(pipeline.StageTranslate); got != 15*time.Millisecond {
		t.Errorf("expected 15ms accumulated, got %v", got)
	}
	if got := tm.Sum(pipeline.StageTranslate, pipeline.StageEmit); got != 17*time.Millisecond {
		t.Errorf("expected 17ms total, got %v", got)
	}
	if got := tm.Duration(pipeline.StageWrite); got != 0 {
		t.Errorf("expected 0 for an unseen stage, got %v", got)
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	var a, b pipeline.CollectSink
	m := pipeline.MultiSink{&a, nil, &b}
	m.OnEvent(pipeline.Event{Module: "app", Stage: pipeline.StageEmit, Status: pipeline.StatusDone})

	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Fatalf("expected both sinks to see the event, got %d and %d",
			len(a.Events()), len(b.Events()))
	}
	if got := a.Events()[0].Module; got != "app" {
		t.Errorf("expected the module name forwarded, got %q", got)
	}
}

func TestCollectSinkIsConcurrencySafe(t *testing.T) {
	var c pipeline.CollectSink
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.OnEvent(pipeline.Event{Stage: pipeline.StageTranslate, Status: pipeline.StatusWorking})
			}
		}()
	}
	wg.Wait()
	if got := len(c.Events()); got != 800 {
		t.Fatalf("expected 800 events recorded, got %d", got)
	}
}
