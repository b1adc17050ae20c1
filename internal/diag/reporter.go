package diag

import (
	"fmt"

	"ember/internal/source"
)

// Reporter is the minimal contract for emitting diagnostics.
type Reporter interface {
	Report(code Code, sev Severity, primary source.Span, msg string, notes []Note)
}

// BagReporter stores reported diagnostics in a Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(Diagnostic{
		Severity: sev, Code: code, Message: msg,
		Primary: primary, Notes: notes,
	})
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Report(Code, Severity, source.Span, string, []Note) {}

// Errorf is a convenience for span-less driver errors.
func Errorf(r Reporter, code Code, format string, args ...any) {
	reportf(r, code, SevError, format, args...)
}

// Warnf is a convenience for span-less driver warnings.
func Warnf(r Reporter, code Code, format string, args ...any) {
	reportf(r, code, SevWarning, format, args...)
}

// Infof is a convenience for span-less driver notes.
func Infof(r Reporter, code Code, format string, args ...any) {
	reportf(r, code, SevInfo, format, args...)
}

func reportf(r Reporter, code Code, sev Severity, format string, args ...any) {
	if r == nil {
		return
	}
	r.Report(code, sev, source.Span{}, fmt.Sprintf(format, args...), nil)
}
