package main

import (
	"fmt"
	"io"
	"time"

	"ember/internal/pipeline"
)

func printStageTimings(out io.Writer, timings pipeline.Timings) {
	if out == nil {
		return
	}
	stages := []pipeline.Stage{
		pipeline.StageTranslate,
		pipeline.StageVerify,
		pipeline.StageEmit,
		pipeline.StageWrite,
	}
	for _, st := range stages {
		if d := timings.Duration(st); d > 0 {
			fmt.Fprintf(out, "%-10s %.1f ms\n", string(st), toMillis(d))
		}
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
