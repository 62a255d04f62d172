package stacklayout

import "fmt"

// ManifestSP runs the SP-manifestation pass of §4.F: every symbolic
// StackSlot(a, i) expression is rewritten to an SP-relative offset, the
// stack high-water-mark literal is substituted, and SP-adjustment
// instructions are inserted wherever two adjacent points in the graph
// disagree about the current SP-relative frame.
//
// f is rewritten in place; InsertBetween may append new trampoline blocks.
func ManifestSP(cfg Config, procPoints ProcPointInfo, areaMap AreaMap, f Function) {
	c := newSPContext(cfg, procPoints, areaMap, f)

	// Walk the post-order snapshot taken at construction time, not f's live
	// iterator: InsertBetween below grows f with trampoline blocks as we go,
	// and those are already fully formed (a single adjust plus a branch) and
	// must not be revisited or rewritten themselves.
	for _, id := range c.order {
		if ManifestLoggingEnabled {
			fmt.Printf("manifest: block %d sp_on_entry=%d\n", id, c.spOnEntry(id))
		}
		manifestBlock(c, f, c.blocks[id])
	}
}

type spContext struct {
	cfg         Config
	procPoints  ProcPointInfo
	areaMap     AreaMap
	blocks      map[BlockID]Block
	order       []BlockID
	entryID     BlockID
	hasEntry    bool
	procEntrySP int
	spHigh      int
	memo        map[BlockID]int
	inFlight    map[BlockID]struct{}
}

func newSPContext(cfg Config, procPoints ProcPointInfo, areaMap AreaMap, f Function) *spContext {
	c := &spContext{
		cfg:        cfg,
		procPoints: procPoints,
		areaMap:    areaMap,
		blocks:     make(map[BlockID]Block),
		memo:       make(map[BlockID]int),
		inFlight:   make(map[BlockID]struct{}),
	}
	for b := f.PostOrderBlockIteratorBegin(); b != nil; b = f.PostOrderBlockIteratorNext() {
		c.blocks[b.ID()] = b
		c.order = append(c.order, b.ID())
		if b.Entry() {
			c.entryID, c.hasEntry = b.ID(), true
		}
	}

	oldOff, ok := areaMap.Get(CallAreaOld())
	if !ok {
		unallocatedArea(CallAreaOld())
	}
	c.procEntrySP = oldOff + procArgBytes(f)
	c.spHigh = computeSPHigh(f, areaMap)
	return c
}

// computeSPHigh folds areaMap[a]+s.Hi across every sub-area used or defined
// anywhere in the graph (§4.F's sp_high).
func computeSPHigh(f Function, areaMap AreaMap) int {
	high := 0
	visit := func(s SubArea) {
		pos, ok := areaMap.Get(s.Area)
		if !ok {
			unallocatedArea(s.Area)
		}
		if v := pos + s.Hi; v > high {
			high = v
		}
	}
	for b := f.PostOrderBlockIteratorBegin(); b != nil; b = f.PostOrderBlockIteratorNext() {
		for in := b.InstrIteratorBegin(); in != nil; in = b.InstrIteratorNext() {
			f.FoldSlotsUsed(in, visit)
			f.FoldSlotsDefd(in, visit)
		}
		f.FoldSlotsUsed(b.Last(), visit)
		f.FoldSlotsDefd(b.Last(), visit)
	}
	return high
}

// spOnEntry computes the SP-relative frame in effect on entry to id,
// recursing through the procedure-point reachability map for blocks that
// are neither the procedure entry nor carry their own arg_bytes.
func (c *spContext) spOnEntry(id BlockID) int {
	if v, ok := c.memo[id]; ok {
		return v
	}
	b, ok := c.blocks[id]
	if !ok {
		unknownBlock(id)
	}

	if _, cycle := c.inFlight[id]; cycle {
		procPointCycle(id)
	}
	c.inFlight[id] = struct{}{}
	defer delete(c.inFlight, id)

	var v int
	switch {
	case c.hasEntry && id == c.entryID:
		v = c.procEntrySP
	case b.StackInfo().ArgBytes != nil:
		off, ok := c.areaMap.Get(CallAreaYoung(id))
		if !ok {
			unallocatedArea(CallAreaYoung(id))
		}
		v = off + *b.StackInfo().ArgBytes
	default:
		status := c.procPoints.Status[id]
		switch {
		case len(status.ReachedBy) == 1:
			v = c.spOnEntry(status.ReachedBy[0])
		case len(status.ReachedBy) > 1:
			procPointFanIn(id, status.ReachedBy)
		case status.IsProcPoint:
			procPointNoArgInfo(id)
		default:
			// No procedure-point constraint applies and b carries no
			// arg_bytes of its own: any SP convention is acceptable here
			// provided predecessors converge on it (§9); 0 is as good a
			// default as any other, and convergence is still checked on
			// every edge into this block.
			v = 0
		}
	}
	c.memo[id] = v
	return v
}

func manifestBlock(c *spContext, f Function, b Block) {
	spOff := c.spOnEntry(b.ID())

	toSPOffset := func(a Area, i int) int {
		pos, ok := c.areaMap.Get(a)
		if !ok {
			unallocatedArea(a)
		}
		return spOff + (pos + i)
	}
	highWaterMark := func() int {
		hw := c.spHigh - c.procEntrySP
		if hw < 0 {
			return 0
		}
		return hw
	}

	for in := b.InstrIteratorBegin(); in != nil; in = b.InstrIteratorNext() {
		if in.IsSafeForeignCall() {
			f.RewriteStackSlots(in, toSPOffset, highWaterMark)

			young := CallAreaYoung(b.ID())
			pos, ok := c.areaMap.Get(young)
			if !ok {
				unallocatedArea(young)
			}
			spOff2 := pos + c.cfg.WordSize
			if spOff2 != spOff {
				f.InsertInstrAfter(b, in, f.MakeSPAdjust(spOff-spOff2))
			}
			// toSPOffset closes over spOff by reference, so updating it here
			// is enough to change what every later rewrite in this block sees.
			spOff = spOff2
			continue
		}
		f.RewriteStackSlots(in, toSPOffset, highWaterMark)
	}

	manifestLast(c, f, b, spOff, toSPOffset, highWaterMark)
}

func manifestLast(c *spContext, f Function, b Block, spOff int, toSPOffset func(Area, int) int, highWaterMark func() int) {
	last := b.Last()

	switch last.LastKind() {
	case LastCall:
		ci := last.CallInfo()
		var target Area
		if ci.Continuation != nil {
			target = CallAreaYoung(*ci.Continuation)
		} else {
			target = CallAreaOld()
		}
		pos, ok := c.areaMap.Get(target)
		if !ok {
			unallocatedArea(target)
		}
		spOff2 := pos + ci.OutgoingBytes
		if spOff2 != spOff {
			f.AppendMiddle(b, f.MakeSPAdjust(spOff-spOff2))
		}
		rewriteAt := func(a Area, i int) int {
			p, ok := c.areaMap.Get(a)
			if !ok {
				unallocatedArea(a)
			}
			return spOff2 + (p + i)
		}
		f.RewriteStackSlots(last, rewriteAt, highWaterMark)

	case LastBranch:
		k := last.BranchTarget()
		if want := c.spOnEntry(k); want != spOff {
			f.AppendMiddle(b, f.MakeSPAdjust(spOff-want))
		}
		f.RewriteStackSlots(last, toSPOffset, highWaterMark)

	default:
		f.RewriteStackSlots(last, toSPOffset, highWaterMark)
		for _, s := range last.Successors() {
			if want := c.spOnEntry(s); want != spOff {
				f.InsertBetween(b, []Instr{f.MakeSPAdjust(spOff - want)}, s)
			}
		}
	}
}
