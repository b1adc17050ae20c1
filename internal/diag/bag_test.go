package diag_test

import (
	"strings"
	"testing"

	"ember/internal/diag"
	"ember/internal/source"
)

func TestBagCapsAdditions(t *testing.T) {
	b := diag.NewBag(2)
	if !b.Add(diag.Diagnostic{Code: diag.GenICE, Severity: diag.SevError}) {
		t.Fatal("expected the first add to fit")
	}
	if !b.Add(diag.Diagnostic{Code: diag.DrvConfig, Severity: diag.SevWarning}) {
		t.Fatal("expected the second add to fit")
	}
	if b.Add(diag.Diagnostic{Code: diag.DrvInfo}) {
		t.Fatal("expected the cap to reject the third add")
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", b.Len())
	}
	if !b.HasErrors() {
		t.Error("expected errors present")
	}
}

func TestBagSortIsDeterministic(t *testing.T) {
	sp := func(file, start uint32) source.Span {
		return source.Span{File: source.FileID(file), Start: start, End: start + 1}
	}
	b := diag.NewBag(8)
	b.Add(diag.Diagnostic{Code: diag.DrvConfig, Severity: diag.SevWarning, Primary: sp(1, 10)})
	b.Add(diag.Diagnostic{Code: diag.GenICE, Severity: diag.SevError, Primary: sp(1, 10)})
	b.Add(diag.Diagnostic{Code: diag.GenVerify, Severity: diag.SevError, Primary: sp(0, 50)})
	b.Sort()

	items := b.Items()
	if items[0].Code != diag.GenVerify {
		t.Errorf("expected the lower file first, got %v", items[0].Code)
	}
	// Same position: the error outranks the warning.
	if items[1].Code != diag.GenICE || items[2].Code != diag.DrvConfig {
		t.Errorf("expected error before warning at one position, got %v then %v",
			items[1].Code, items[2].Code)
	}
}

func TestBagDedupKeepsFirst(t *testing.T) {
	b := diag.NewBag(8)
	d := diag.Diagnostic{Code: diag.DrvWriteFailed, Severity: diag.SevError, Message: "cannot write out/app.ll"}
	b.Add(d)
	b.Add(d)
	b.Add(diag.Diagnostic{Code: diag.DrvWriteFailed, Severity: diag.SevError, Message: "cannot write out/lib.ll"})
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("expected 2 after dedup, got %d", b.Len())
	}
}

func TestReporterHelpersFillTheBag(t *testing.T) {
	b := diag.NewBag(4)
	r := diag.BagReporter{Bag: b}
	diag.Errorf(r, diag.DrvUnknownTgt, "unknown target %q", "riscv")
	diag.Warnf(r, diag.DrvCacheReset, "cache discarded")

	if b.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", b.Len())
	}
	if got := b.Items()[0].Message; got != `unknown target "riscv"` {
		t.Errorf("expected the formatted message, got %q", got)
	}
	if !b.HasErrors() {
		t.Error("expected an error recorded")
	}
}

func TestPrinterPlainOutput(t *testing.T) {
	b := diag.NewBag(4)
	b.Add(diag.Diagnostic{
		Code: diag.GenICE, Severity: diag.SevError,
		Message: "translator bug: open block",
		Notes:   []diag.Note{{Msg: "while translating _E3app4main"}},
	})

	var sb strings.Builder
	p := diag.NewPrinter(&sb, false)
	p.Print(b)
	p.Summary(b)

	out := sb.String()
	if !strings.Contains(out, "error [GEN4001] translator bug: open block") {
		t.Errorf("expected the plain error line, got %q", out)
	}
	if !strings.Contains(out, "= while translating _E3app4main") {
		t.Errorf("expected the note line, got %q", out)
	}
	if !strings.Contains(out, "1 error(s), 0 warning(s)") {
		t.Errorf("expected the summary line, got %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("expected no escape codes with color off, got %q", out)
	}
}

func TestCodeIDRanges(t *testing.T) {
	if got := diag.GenICE.ID(); got != "GEN4001" {
		t.Errorf("expected GEN4001, got %q", got)
	}
	if got := diag.DrvConfig.ID(); got != "DRV5001" {
		t.Errorf("expected DRV5001, got %q", got)
	}
	if got := diag.UnknownCode.ID(); got != "E0000" {
		t.Errorf("expected E0000, got %q", got)
	}
}
