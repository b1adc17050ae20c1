package target

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"ember/internal/layout"
)

// BuildConfig is the decoded [build] section of an ember.toml manifest.
type BuildConfig struct {
	Target       string `toml:"target"`
	OutDir       string `toml:"out_dir"`
	UnsafeClaims bool   `toml:"unsafe_claims"`
	// LogLevel 0 silences routine output, as --quiet does.
	LogLevel int `toml:"loglevel"`
}

// Manifest is the decoded ember.toml.
type Manifest struct {
	Build   BuildConfig  `toml:"build"`
	Targets []TargetSpec `toml:"target"`
}

// TargetSpec is one [[target]] override entry.
type TargetSpec struct {
	Triple    string `toml:"triple"`
	PtrSize   int    `toml:"ptr_size"`
	PtrAlign  int    `toml:"ptr_align"`
	WordSize  int    `toml:"word_size"`
	WordAlign int    `toml:"word_align"`
	F64Align  int    `toml:"f64_align"`
}

// DefaultManifest returns the configuration used when no manifest exists.
func DefaultManifest() Manifest {
	return Manifest{Build: BuildConfig{OutDir: "out", LogLevel: 1}}
}

// LoadManifest parses an ember.toml. A missing file yields the defaults.
func LoadManifest(path string) (Manifest, error) {
	m := DefaultManifest()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return m, nil
	}
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if meta.IsDefined("build", "out_dir") && m.Build.OutDir == "" {
		return Manifest{}, fmt.Errorf("%s: [build].out_dir must not be empty", path)
	}
	for _, spec := range m.Targets {
		if spec.Triple == "" {
			return Manifest{}, fmt.Errorf("%s: [[target]] entry without a triple", path)
		}
	}
	return m, nil
}

// Apply registers every manifest target override into the registry.
func (m Manifest) Apply(r *Registry) {
	for _, spec := range m.Targets {
		t := layout.Target{
			Triple:    spec.Triple,
			PtrSize:   spec.PtrSize,
			PtrAlign:  spec.PtrAlign,
			WordSize:  spec.WordSize,
			WordAlign: spec.WordAlign,
			F64Align:  spec.F64Align,
		}
		if base, err := r.Resolve(spec.Triple); err == nil {
			if t.PtrSize == 0 {
				t.PtrSize = base.PtrSize
			}
			if t.PtrAlign == 0 {
				t.PtrAlign = base.PtrAlign
			}
			if t.WordSize == 0 {
				t.WordSize = base.WordSize
			}
			if t.WordAlign == 0 {
				t.WordAlign = base.WordAlign
			}
			if t.F64Align == 0 {
				t.F64Align = base.F64Align
			}
		}
		r.Register(t)
	}
}
