package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Printer renders a Bag for the console.
type Printer struct {
	Out   io.Writer
	Color bool

	errStyle  *color.Color
	warnStyle *color.Color
	infoStyle *color.Color
	codeStyle *color.Color
}

func NewPrinter(out io.Writer, colored bool) *Printer {
	p := &Printer{
		Out:       out,
		Color:     colored,
		errStyle:  color.New(color.FgRed, color.Bold),
		warnStyle: color.New(color.FgYellow, color.Bold),
		infoStyle: color.New(color.FgCyan),
		codeStyle: color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.errStyle, p.warnStyle, p.infoStyle, p.codeStyle} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Print writes one line per diagnostic plus indented notes.
func (p *Printer) Print(b *Bag) {
	for _, d := range b.Items() {
		var label string
		switch d.Severity {
		case SevError:
			label = p.errStyle.Sprint("error")
		case SevWarning:
			label = p.warnStyle.Sprint("warning")
		default:
			label = p.infoStyle.Sprint("note")
		}
		fmt.Fprintf(p.Out, "%s %s %s\n", label, p.codeStyle.Sprintf("[%s]", d.Code.ID()), d.Message)
		for _, n := range d.Notes {
			fmt.Fprintf(p.Out, "  = %s\n", n.Msg)
		}
	}
}

// Summary appends an error/warning count line when anything was found.
func (p *Printer) Summary(b *Bag) {
	errs, warns := 0, 0
	for _, d := range b.Items() {
		switch d.Severity {
		case SevError:
			errs++
		case SevWarning:
			warns++
		}
	}
	if errs == 0 && warns == 0 {
		return
	}
	fmt.Fprintf(p.Out, "%d error(s), %d warning(s)\n", errs, warns)
}
