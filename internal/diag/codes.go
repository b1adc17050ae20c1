package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Translation (code generation proper).
	GenInfo        Code = 4000
	GenICE         Code = 4001 // translator bug surfaced as an error
	GenVerify      Code = 4002 // emitted IR failed the well-formedness check
	GenBadModule   Code = 4003 // input module is not a valid typed AST
	GenDepthLimit  Code = 4004 // monomorphization recursion limit
	GenStaleTarget Code = 4005

	// Driver and orchestration.
	DrvInfo        Code = 5000
	DrvConfig      Code = 5001 // bad ember.toml or flag combination
	DrvUnknownTgt  Code = 5002
	DrvWriteFailed Code = 5003
	DrvCacheReset  Code = 5004 // cache unreadable, regenerating
	DrvNoModules   Code = 5005
)

var codeDescription = map[Code]string{
	UnknownCode: "unknown",

	GenInfo:        "code generation note",
	GenICE:         "internal translator error",
	GenVerify:      "generated IR failed verification",
	GenBadModule:   "malformed input module",
	GenDepthLimit:  "generic instantiation too deep",
	GenStaleTarget: "module generated for a different target",

	DrvInfo:        "driver note",
	DrvConfig:      "invalid build configuration",
	DrvUnknownTgt:  "unknown target",
	DrvWriteFailed: "cannot write output",
	DrvCacheReset:  "generation cache discarded",
	DrvNoModules:   "nothing to generate",
}

// ID renders the compact stable identifier, e.g. GEN4001.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("DRV%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
