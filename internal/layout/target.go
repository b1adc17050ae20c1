package layout

// Target describes the ABI target and the primitive sizes the generated
// code must assume.
type Target struct {
	Triple    string // e.g. "x86_64-linux-gnu"
	PtrSize   int    // bytes
	PtrAlign  int    // bytes
	WordSize  int    // size of int/uint and of enum discriminants
	WordAlign int
	F64Align  int // some 32-bit ABIs align f64 below its size
}

// X86_64LinuxGNU is the default development target.
func X86_64LinuxGNU() Target {
	return Target{
		Triple:    "x86_64-linux-gnu",
		PtrSize:   8,
		PtrAlign:  8,
		WordSize:  8,
		WordAlign: 8,
		F64Align:  8,
	}
}

// I686LinuxGNU exists mostly to exercise layouts where f64 alignment and
// word size diverge from the 64-bit defaults.
func I686LinuxGNU() Target {
	return Target{
		Triple:    "i686-linux-gnu",
		PtrSize:   4,
		PtrAlign:  4,
		WordSize:  4,
		WordAlign: 4,
		F64Align:  4,
	}
}
