package stacklayout

// NodeAbstraction parameterizes the interference graph builder over "what
// counts as a node" (§9): a function from a sub-area to the nodes it maps
// to, and a function from a node to the word offsets it occupies given an
// area-size map and an area-position map. Swapping in a finer-grained
// abstraction does not require touching BuildInterference or the allocator.
type NodeAbstraction struct {
	NodesFor      func(s SubArea) []Node
	OccupiedWords func(n Node, sizes, positions AreaMap) []int
}

// DefaultNodeAbstraction maps each sub-area to its Area (one node per area)
// and reports a node's occupied words as the half-open word range its
// assigned byte position and size cover, at cfg.WordSize granularity.
func DefaultNodeAbstraction(cfg Config) NodeAbstraction {
	return NodeAbstraction{
		NodesFor: func(s SubArea) []Node { return []Node{s.Area} },
		OccupiedWords: func(n Node, sizes, positions AreaMap) []int {
			area := n.(Area)
			pos, ok := positions.Get(area)
			if !ok {
				return nil
			}
			size := sizes.GetOr(area, 0)
			if size <= 0 {
				return nil
			}
			lo, hi := pos/cfg.WordSize, (pos+size-1)/cfg.WordSize
			words := make([]int, 0, hi-lo+1)
			for w := lo; w <= hi; w++ {
				words = append(words, w)
			}
			return words
		},
	}
}

// BuildInterference runs the single post-order pass of §4.D over the
// already-converged liveness facts in liveEnv, producing an interference
// graph over the nodes na identifies.
//
// Unlike liveness, this analysis tolerates over-approximation: extra edges
// only make allocation more conservative, never unsound.
func BuildInterference(f Function, liveEnv map[BlockID]SubAreaSet, na NodeAbstraction) IGraph {
	liveOutScratch.Reset()
	g := NewIGraph()

	for b := f.PostOrderBlockIteratorBegin(); b != nil; b = f.PostOrderBlockIteratorNext() {
		last := b.Last()
		liveOut := liveOutOf(liveEnv, b)
		if last.LastKind() == LastCall {
			injectCallAreaLiveness(liveOut, last.CallInfo())
		}

		addDefInterference(f, g, na, last, liveOut)
		current := transferNode(f, last, liveOut)

		var middles []Instr
		for in := b.InstrIteratorBegin(); in != nil; in = b.InstrIteratorNext() {
			middles = append(middles, in)
		}
		for i := len(middles) - 1; i >= 0; i-- {
			m := middles[i]
			addDefInterference(f, g, na, m, current)
			current = transferNode(f, m, current)
		}
	}
	return g
}

// addDefInterference adds an edge between every node instr defines and (a)
// every node currently live-out, and (b) every other node instr also
// defines in the same step.
func addDefInterference(f Function, g IGraph, na NodeAbstraction, instr Instr, liveOut SubAreaSet) {
	var defNodes []Node
	f.FoldSlotsDefd(instr, func(s SubArea) {
		defNodes = append(defNodes, na.NodesFor(s)...)
	})
	if len(defNodes) == 0 {
		return
	}

	var liveNodes []Node
	liveOut.ForEach(func(s SubArea) {
		liveNodes = append(liveNodes, na.NodesFor(s)...)
	})

	for _, d := range defNodes {
		for _, l := range liveNodes {
			g.AddEdge(d, l)
		}
		for _, d2 := range defNodes {
			g.AddEdge(d, d2)
		}
	}
}
