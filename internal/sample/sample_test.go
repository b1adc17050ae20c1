package sample_test

import (
	"sort"
	"testing"

	"ember/internal/layout"
	"ember/internal/sample"
	"ember/internal/trans"
)

func TestNamesAreSorted(t *testing.T) {
	names := sample.Names()
	if len(names) == 0 {
		t.Fatalf("expected at least one sample")
	}
	if !sort.StringsAreSorted(names) {
		t.Fatalf("expected sorted names, got %v", names)
	}
}

func TestUnknownSampleIsAnError(t *testing.T) {
	if _, err := sample.Build("no-such-module"); err == nil {
		t.Fatalf("expected an error for an unknown sample")
	}
}

func TestEverySampleTranslatesCleanly(t *testing.T) {
	for _, name := range sample.Names() {
		mod, err := sample.Build(name)
		if err != nil {
			t.Fatalf("%s: build: %v", name, err)
		}
		out, _, err := trans.Translate(mod, trans.Options{
			Target:  layout.X86_64LinuxGNU(),
			CheckIR: true,
		})
		if err != nil {
			t.Fatalf("%s: translate: %v", name, err)
		}
		if len(out.Funcs) == 0 {
			t.Fatalf("%s: expected functions in the output", name)
		}
	}
}

func TestModulesBuildsAllByDefault(t *testing.T) {
	mods, err := sample.Modules()
	if err != nil {
		t.Fatalf("modules: %v", err)
	}
	if len(mods) != len(sample.Names()) {
		t.Fatalf("expected %d modules, got %d", len(sample.Names()), len(mods))
	}
	for i, name := range sample.Names() {
		if mods[i].Name != name {
			t.Errorf("module %d: expected %s, got %s", i, name, mods[i].Name)
		}
	}
}
