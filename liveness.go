package stacklayout

import (
	"fmt"

	"github.com/cmmcc/stacklayout/pool"
)

// liveOutScratch backs every liveOutOf call across LiveSlotAnal,
// BuildInterference, and Layout's blockTailStates: each of those is reset at
// the start of its own pass (they never run concurrently, §5), so the same
// pages carry live-out scratch sets across blocks within one pass and across
// passes for the next procedure laid out in this process.
var liveOutScratch = pool.New[SubAreaSet](resetSubAreaSet)

// LiveSlotAnal runs the backward per-slot liveness fixed-point (§4.B) over
// every block of f and returns each block's live-in set, keyed by BlockID.
//
// The lattice is SubAreaSet under Join (element-wise LiveGen); the transfer
// at a middle node kills its defs then unions its uses, and at a last node
// does the same against the join of its successors' live-in sets, with
// outgoing call arguments injected so they stay live across the call.
func LiveSlotAnal(f Function) map[BlockID]SubAreaSet {
	liveOutScratch.Reset()

	blocks := make(map[BlockID]Block)
	var order []BlockID
	for b := f.PostOrderBlockIteratorBegin(); b != nil; b = f.PostOrderBlockIteratorNext() {
		blocks[b.ID()] = b
		order = append(order, b.ID())
	}

	liveIn := make(map[BlockID]SubAreaSet, len(order))
	for _, id := range order {
		liveIn[id] = NewSubAreaSet()
	}

	for pass := 0; ; pass++ {
		changed := false
		for _, id := range order {
			b := blocks[id]
			out := liveOutOf(liveIn, b)
			in := transferBlock(f, b, out)
			if !liveIn[id].Equal(in) {
				liveIn[id] = in
				changed = true
				if LivenessLoggingEnabled {
					fmt.Printf("liveness: pass %d block %d live-in changed\n", pass, id)
				}
			}
		}
		if !changed {
			break
		}
	}

	if LivenessValidationEnabled {
		validateFixedPoint(f, blocks, liveIn)
	}
	return liveIn
}

// validateFixedPoint re-applies the transfer once more from the converged
// facts and checks nothing would still change: a cheap re-derivation of the
// same property the loop above already established by not seeing a change
// on its final pass.
func validateFixedPoint(f Function, blocks map[BlockID]Block, liveIn map[BlockID]SubAreaSet) {
	for id, b := range blocks {
		out := liveOutOf(liveIn, b)
		in := transferBlock(f, b, out)
		if !liveIn[id].Equal(in) {
			bugf("liveness fixed point did not converge for block %d", id)
		}
	}
}

// liveOutOf computes the live-out of b as the join of the live-in sets of
// every successor of its last node. A block with no successors (LastExit)
// has an empty live-out.
func liveOutOf(liveIn map[BlockID]SubAreaSet, b Block) SubAreaSet {
	out := *liveOutScratch.Allocate()
	for _, succ := range b.Last().Successors() {
		in, ok := liveIn[succ]
		if !ok {
			unknownBlock(succ)
		}
		out.Join(in)
	}
	return out
}

// transferBlock walks b's last node, then its middles back-to-front,
// applying the generic kill-defs/union-uses transfer at each, and finishes
// with the first-transfer rule: CallArea(Young(b.ID())) is deleted entirely
// because any slot live there is defined at entry to b, not live-in to it.
func transferBlock(f Function, b Block, out SubAreaSet) SubAreaSet {
	live := transferLast(f, b.Last(), out)

	var middles []Instr
	for in := b.InstrIteratorBegin(); in != nil; in = b.InstrIteratorNext() {
		middles = append(middles, in)
	}
	for i := len(middles) - 1; i >= 0; i-- {
		live = transferNode(f, middles[i], live)
	}

	live.Delete(CallAreaYoung(b.ID()))
	return live
}

// transferNode applies the generic middle/last transfer: kill every
// sub-area this instruction defines, then union in every sub-area it uses.
func transferNode(f Function, instr Instr, out SubAreaSet) SubAreaSet {
	in := out.Clone()
	f.FoldSlotsDefd(instr, func(s SubArea) { in.LiveKill(s) })
	f.FoldSlotsUsed(instr, func(s SubArea) { in.LiveGen(s) })
	return in
}

// transferLast applies transferNode to the last node, then injects the
// outgoing call-argument sub-areas a LastCall keeps alive across the call
// (§4.B).
func transferLast(f Function, last Instr, out SubAreaSet) SubAreaSet {
	in := transferNode(f, last, out)
	if last.LastKind() == LastCall {
		injectCallAreaLiveness(in, last.CallInfo())
	}
	return in
}

func injectCallAreaLiveness(in SubAreaSet, ci CallInfo) {
	n := ci.OutgoingBytes
	if n == 0 {
		return
	}
	if ci.Continuation == nil {
		in.LiveGen(SubArea{Area: CallAreaOld(), Hi: n, Width: n})
		return
	}
	k := *ci.Continuation
	if ci.UpdateFrameBytes != nil {
		in.LiveGen(SubArea{Area: CallAreaOld(), Hi: n, Width: n})
	}
	in.LiveGen(SubArea{Area: CallAreaYoung(k), Hi: n, Width: n})
}
