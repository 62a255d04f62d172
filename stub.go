package stacklayout

// StubSlotsOnDeath runs the dead-pointer stubbing pass of §4.G: an optional
// rewrite, independent of layout and SP manifestation, that overwrites a
// stack slot with a stub literal the instant it stops being live. This is a
// GC-hygiene / debugging aid, not required for correctness of the frame
// layout itself, and may run on the graph either before or after Layout and
// ManifestSP.
//
// A slot whose last use is in a block's last node is never stubbed: the walk
// below only considers middles, reflecting the same gap the design this
// pass is modeled on leaves open (§9) rather than silently closing it.
func StubSlotsOnDeath(liveEnv map[BlockID]SubAreaSet, f Function) {
	liveOutScratch.Reset()
	for b := f.PostOrderBlockIteratorBegin(); b != nil; b = f.PostOrderBlockIteratorNext() {
		var middles []Instr
		for in := b.InstrIteratorBegin(); in != nil; in = b.InstrIteratorNext() {
			middles = append(middles, in)
		}
		states := blockTailStates(f, b, liveEnv, middles)
		for i, m := range middles {
			stubMiddle(f, b, m, states[i])
		}
	}
}

// stubMiddle appends a stub store right after m for every sub-area m uses
// that is not covered by out, the live set in effect immediately after m
// finishes. Multiple dead uses on one instruction chain in fold order.
func stubMiddle(f Function, b Block, m Instr, out SubAreaSet) {
	after := m
	f.FoldSlotsUsed(m, func(s SubArea) {
		if out.Has(s) {
			return
		}
		stub := f.StubStore(s.Area, s.Lo(), s.Width)
		f.InsertInstrAfter(b, after, stub)
		after = stub
	})
}
