package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"ember/internal/driver"
)

// printStats renders the per-module translation counters as a table.
func printStats(out io.Writer, res *driver.Result, colored bool) {
	header := color.New(color.Bold)
	faint := color.New(color.Faint)
	failStyle := color.New(color.FgRed)
	for _, c := range []*color.Color{header, faint, failStyle} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	fmt.Fprintln(out, header.Sprintf("%-12s %6s %6s %6s %6s %6s %6s",
		"module", "funcs", "inst", "hits", "glue", "pads", "strs"))
	for _, m := range res.Modules {
		switch {
		case m.Err != nil:
			fmt.Fprintf(out, "%-12s %s\n", m.Name, failStyle.Sprint("failed"))
		case m.Cached:
			fmt.Fprintf(out, "%-12s %6d %s\n", m.Name, m.Stats.Funcs, faint.Sprint("(cached)"))
		default:
			fmt.Fprintf(out, "%-12s %6d %6d %6d %6d %6d %6d\n",
				m.Name, m.Stats.Funcs, m.Stats.Instances, m.Stats.InstanceHits,
				m.Stats.GluesCreated, m.Stats.LandingPads, m.Stats.CStrings)
		}
	}
}
