package ir

// SimplifyCFG removes blocks unreachable from the entry and forwards
// branches through empty blocks that only jump onward. Block IDs are
// compacted afterwards, so run it only once translation of the function
// is complete.
func SimplifyCFG(f *Func) {
	if f.Decl || len(f.Blocks) == 0 {
		return
	}
	forwardBranches(f)

	order := reachableOrder(f)
	if len(order) == len(f.Blocks) {
		rebuildPreds(f)
		return
	}

	remap := make([]BlockID, len(f.Blocks))
	for i := range remap {
		remap[i] = NoBlockID
	}
	blocks := make([]*Block, 0, len(order))
	for newID, oldID := range order {
		b := f.Blocks[oldID]
		b.ID = BlockID(newID)
		remap[oldID] = b.ID
		blocks = append(blocks, b)
	}
	f.Blocks = blocks

	for _, b := range f.Blocks {
		retargetTerm(&b.Term, remap)
		for i := range b.Instrs {
			in := &b.Instrs[i]
			if in.Kind != InstrPhi {
				continue
			}
			kept := in.Phi.Edges[:0]
			for _, e := range in.Phi.Edges {
				if remap[e.From] != NoBlockID {
					e.From = remap[e.From]
					kept = append(kept, e)
				}
			}
			in.Phi.Edges = kept
		}
	}
	rebuildPreds(f)
}

// forwardBranches retargets edges that go through an instruction-free
// block ending in an unconditional branch. Targets containing phis are
// left alone: collapsing an edge would change the phi's incoming block.
func forwardBranches(f *Func) {
	final := make([]BlockID, len(f.Blocks))
	for i := range final {
		final[i] = NoBlockID
	}
	var resolve func(id BlockID, seen map[BlockID]bool) BlockID
	resolve = func(id BlockID, seen map[BlockID]bool) BlockID {
		if final[id] != NoBlockID {
			return final[id]
		}
		b := f.Blocks[id]
		if len(b.Instrs) != 0 || b.Term.Kind != TermBr || seen[id] {
			final[id] = id
			return id
		}
		seen[id] = true
		tgt := resolve(b.Term.Br.Target, seen)
		if hasPhi(f.Blocks[tgt]) {
			tgt = id
		}
		final[id] = tgt
		return tgt
	}
	for _, b := range f.Blocks {
		resolve(b.ID, map[BlockID]bool{})
	}
	for _, b := range f.Blocks {
		retargetTerm(&b.Term, final)
	}
}

func hasPhi(b *Block) bool {
	for i := range b.Instrs {
		if b.Instrs[i].Kind == InstrPhi {
			return true
		}
	}
	return false
}

func retargetTerm(t *Terminator, to []BlockID) {
	switch t.Kind {
	case TermBr:
		t.Br.Target = to[t.Br.Target]
	case TermCondBr:
		t.CondBr.Then = to[t.CondBr.Then]
		t.CondBr.Else = to[t.CondBr.Else]
	case TermSwitch:
		for i := range t.Switch.Cases {
			t.Switch.Cases[i].Target = to[t.Switch.Cases[i].Target]
		}
		t.Switch.Default = to[t.Switch.Default]
	case TermInvoke:
		t.Invoke.Normal = to[t.Invoke.Normal]
		t.Invoke.Unwind = to[t.Invoke.Unwind]
	}
}

// reachableOrder returns block IDs reachable from entry in BFS order,
// entry first.
func reachableOrder(f *Func) []BlockID {
	seen := make([]bool, len(f.Blocks))
	order := make([]BlockID, 0, len(f.Blocks))
	queue := []BlockID{f.Entry()}
	seen[f.Entry()] = true
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, succ := range f.Blocks[id].Term.Successors() {
			if !seen[succ] {
				seen[succ] = true
				queue = append(queue, succ)
			}
		}
	}
	return order
}

func rebuildPreds(f *Func) {
	for _, b := range f.Blocks {
		b.Preds = b.Preds[:0]
	}
	for _, b := range f.Blocks {
		for _, succ := range b.Term.Successors() {
			f.Blocks[succ].Preds = append(f.Blocks[succ].Preds, b.ID)
		}
	}
}
