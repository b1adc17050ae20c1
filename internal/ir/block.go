package ir

// Block is a basic block. Preds is maintained by the terminator setters
// on Func and lists every block whose terminator targets this one.
type Block struct {
	ID     BlockID
	Name   string
	Instrs []Instr
	Term   Terminator
	Preds  []BlockID
}

func (b *Block) Terminated() bool {
	if b == nil {
		return true
	}
	return b.Term.Kind != TermNone
}
