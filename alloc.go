package stacklayout

import "fmt"

// Layout runs the greedy allocator of §4.E, producing an AreaMap from Area
// to assigned byte offset. CallArea(Old) is pre-seeded at 0; every other
// area is assigned the first time one of three triggers fires for it while
// walking blocks in post-order and, within each block, instructions
// front-to-back.
func Layout(cfg Config, rc RegisterClassifier, procPoints ProcPointInfo, liveEnv map[BlockID]SubAreaSet, f Function) AreaMap {
	liveOutScratch.Reset()
	areaMap := NewAreaMap()
	areaMap.Set(CallAreaOld(), 0)

	sizes := SizeAreas(f, procArgBytes(f))
	na := DefaultNodeAbstraction(cfg)
	g := BuildInterference(f, liveEnv, na)

	if AllocLoggingEnabled {
		fmt.Printf("layout: procArgBytes=%d\n", procArgBytes(f))
	}

	for b := f.PostOrderBlockIteratorBegin(); b != nil; b = f.PostOrderBlockIteratorNext() {
		var middles []Instr
		for in := b.InstrIteratorBegin(); in != nil; in = b.InstrIteratorNext() {
			middles = append(middles, in)
		}
		states := blockTailStates(f, b, liveEnv, middles)

		for i, instr := range middles {
			visitRegSlots(f, instr, func(r LocalReg) {
				allocArea(RegSlotArea(r), 0, sizes, areaMap, g, na, rc, cfg)
			})

			if instr.IsSafeForeignCall() {
				young := CallAreaYoung(b.ID())
				sizes.Set(young, sizes.GetOr(young, 0)+cfg.WordSize)

				tail := states[i].Clone()
				f.FoldSlotsDefd(instr, func(s SubArea) { tail.LiveKill(s) })
				allocArea(young, youngestLive(areaMap, tail), sizes, areaMap, g, na, rc, cfg)
			}
		}

		visitRegSlots(f, b.Last(), func(r LocalReg) {
			allocArea(RegSlotArea(r), 0, sizes, areaMap, g, na, rc, cfg)
		})

		if procPoints.IsProcPoint(b.ID()) {
			start := 0
			if ro := b.StackInfo().ReturnOff; ro != nil {
				start = *ro
			}
			if yl := youngestLive(areaMap, liveEnv[b.ID()]); yl > start {
				start = yl
			}
			allocArea(CallAreaYoung(b.ID()), start, sizes, areaMap, g, na, rc, cfg)
		}
	}

	if AllocValidationEnabled {
		validateNoOverlap(g, na, sizes, areaMap)
	}
	return areaMap
}

// validateNoOverlap re-derives, from the finished areaMap, the same
// no-overlap fact allocArea already enforces incrementally against every
// neighbor assigned so far: that no two interfering nodes ended up assigned
// words in common.
func validateNoOverlap(g IGraph, na NodeAbstraction, sizes, areaMap AreaMap) {
	areaMap.ForEach(func(a Area, _ int) {
		mine := make(map[int]struct{})
		for _, w := range na.OccupiedWords(Node(a), sizes, areaMap) {
			mine[w] = struct{}{}
		}
		for _, nb := range g.Neighbors(Node(a)) {
			nbArea, ok := nb.(Area)
			if !ok || !areaMap.Has(nbArea) {
				continue
			}
			for _, w := range na.OccupiedWords(nb, sizes, areaMap) {
				if _, bad := mine[w]; bad {
					bugf("interfering areas %s and %s were assigned overlapping words", a, nbArea)
				}
			}
		}
	})
}

// visitRegSlots calls visit once for every distinct LocalReg whose spill
// slot appears among instr's uses or defs.
func visitRegSlots(f Function, instr Instr, visit func(LocalReg)) {
	seen := make(map[LocalReg]struct{})
	apply := func(s SubArea) {
		r, ok := s.Area.IsRegSlot()
		if !ok {
			return
		}
		if _, done := seen[r]; done {
			return
		}
		seen[r] = struct{}{}
		visit(r)
	}
	f.FoldSlotsUsed(instr, apply)
	f.FoldSlotsDefd(instr, apply)
}

// blockTailStates returns, for each middle index i, the live sub-area set
// immediately after middles[i] finishes executing: the same per-instruction
// states the liveness fixed-point walks through internally, recomputed here
// from the converged facts in liveEnv (§4.E trigger 2's "live-in of the tail
// after m").
func blockTailStates(f Function, b Block, liveEnv map[BlockID]SubAreaSet, middles []Instr) []SubAreaSet {
	states := make([]SubAreaSet, len(middles))

	out := liveOutOf(liveEnv, b)
	last := b.Last()
	if last.LastKind() == LastCall {
		injectCallAreaLiveness(out, last.CallInfo())
	}
	current := transferNode(f, last, out)

	for i := len(middles) - 1; i >= 0; i-- {
		states[i] = current
		current = transferNode(f, middles[i], current)
	}
	return states
}

// youngestLive folds every sub-area in live, contributing areaMap[a]+s.Hi
// for every sub-area s whose area a already has an assigned position; the
// maximum is the "youngest live slot" start point of §4.E.
func youngestLive(areaMap AreaMap, live SubAreaSet) int {
	best := 0
	live.ForEach(func(s SubArea) {
		if top, ok := areaMap.Get(s.Area); ok {
			if v := top + s.Hi; v > best {
				best = v
			}
		}
	})
	return best
}

// procArgBytes returns the current procedure's own incoming argument byte
// count, read off the entry block's StackInfo: the size CallArea(Old) is
// pre-seeded with.
func procArgBytes(f Function) int {
	for b := f.PostOrderBlockIteratorBegin(); b != nil; b = f.PostOrderBlockIteratorNext() {
		if !b.Entry() {
			continue
		}
		if ab := b.StackInfo().ArgBytes; ab != nil {
			return *ab
		}
		return 0
	}
	return 0
}

// allocArea assigns area a byte offset at or above start that does not
// collide, at word granularity, with any already-assigned neighbor in g,
// honoring area's alignment rule. A no-op if area is already assigned,
// even if sizes[area] has grown since: a block's young call area can still
// grow by a further word after its first safe-foreign-call trigger places
// it, and that later growth is not re-checked against conflicts.
//
// This is a first-fit-from-start scan in size-sized steps: it tries
// align(start), and after every collision moves up by size and re-aligns,
// taking the first candidate none of whose words collides with an
// already-placed neighbor. Because it steps by size rather than by word, the
// offset found is not always the lowest conflict-free one (size 12 against a
// neighbor on word 1, unaligned: 0 and 12 collide, 24 is taken, 16 was free).
// The packing is a non-optimal greedy heuristic by design; nothing here
// backtracks or reshuffles an earlier placement.
func allocArea(area Area, start int, sizes, areaMap AreaMap, g IGraph, na NodeAbstraction, rc RegisterClassifier, cfg Config) {
	if areaMap.Has(area) {
		return
	}
	align := alignFn(area, rc, cfg)
	size := sizes.GetOr(area, 0)
	if size == 0 {
		areaMap.Set(area, align(start))
		if ColoringLoggingEnabled {
			fmt.Printf("alloc: %s -> %d (zero-size)\n", area, align(start))
		}
		return
	}

	conflicts := collectConflictWords(area, g, na, sizes, areaMap)
	low := align(start)
	for rangeConflicts(low, low+size, cfg.WordSize, conflicts) {
		low = align(low + size)
	}
	areaMap.Set(area, low)
	if ColoringLoggingEnabled {
		fmt.Printf("alloc: %s -> [%d, %d)\n", area, low, low+size)
	}
}

// alignFn returns the rounding rule of §4.E: CallAreas and GC-pointer
// RegSlots round up to word size; any other RegSlot is unaligned.
func alignFn(area Area, rc RegisterClassifier, cfg Config) func(int) int {
	roundUp := func(v int) int {
		if rem := v % cfg.WordSize; rem != 0 {
			return v + (cfg.WordSize - rem)
		}
		return v
	}
	if area.IsCallArea() {
		return roundUp
	}
	if r, ok := area.IsRegSlot(); ok && rc.IsGCPointer(r) {
		return roundUp
	}
	return func(v int) int { return v }
}

func collectConflictWords(area Area, g IGraph, na NodeAbstraction, sizes, areaMap AreaMap) map[int]struct{} {
	conflicts := make(map[int]struct{})
	for _, nb := range g.Neighbors(Node(area)) {
		nbArea, ok := nb.(Area)
		if !ok || !areaMap.Has(nbArea) {
			continue
		}
		for _, w := range na.OccupiedWords(nb, sizes, areaMap) {
			conflicts[w] = struct{}{}
		}
	}
	return conflicts
}

func rangeConflicts(lo, hi, wordSize int, conflicts map[int]struct{}) bool {
	if lo >= hi {
		return false
	}
	loWord, hiWord := lo/wordSize, (hi-1)/wordSize
	for w := loWord; w <= hiWord; w++ {
		if _, bad := conflicts[w]; bad {
			return true
		}
	}
	return false
}
