package stacklayout

// Chainable mock Function/Block/Instr graph builders for the tests in this
// package: construct a small graph with newBlock(...) and newFunction(...),
// decorate instructions with .use()/.def(), then run the operation under
// test directly against it.

type stackRef struct {
	area Area
	i    int
}

type stubStore struct {
	area          Area
	offset, width int
}

type mockInstr struct {
	last     bool
	lastKind LastKind
	callInfo CallInfo
	succs    []BlockID
	safeCall bool
	uses     []SubArea
	defs     []SubArea

	stackRefs     []stackRef
	usesHWM       bool
	rewrittenOffs []int
	rewrittenHWM  []int

	spAdjust *int
	stub     *stubStore

	label string
}

func newInstr() *mockInstr { return &mockInstr{} }

func (m *mockInstr) use(s ...SubArea) *mockInstr { m.uses = append(m.uses, s...); return m }
func (m *mockInstr) def(s ...SubArea) *mockInstr { m.defs = append(m.defs, s...); return m }
func (m *mockInstr) named(label string) *mockInstr { m.label = label; return m }

func (m *mockInstr) asSafeForeignCall() *mockInstr { m.safeCall = true; return m }

func (m *mockInstr) withStackRef(a Area, i int) *mockInstr {
	m.stackRefs = append(m.stackRefs, stackRef{area: a, i: i})
	return m
}

func (m *mockInstr) withHighWaterMarkRef() *mockInstr { m.usesHWM = true; return m }

func (m *mockInstr) asLastExit() *mockInstr {
	m.last, m.lastKind = true, LastExit
	return m
}

func (m *mockInstr) asLastBranch(to BlockID) *mockInstr {
	m.last, m.lastKind, m.succs = true, LastBranch, []BlockID{to}
	return m
}

func (m *mockInstr) asLastCall(ci CallInfo) *mockInstr {
	m.last, m.lastKind, m.callInfo = true, LastCall, ci
	if ci.Continuation != nil {
		m.succs = []BlockID{*ci.Continuation}
	}
	return m
}

func (m *mockInstr) asLastOther(succs ...BlockID) *mockInstr {
	m.last, m.lastKind, m.succs = true, LastOther, succs
	return m
}

func (m *mockInstr) IsLast() bool            { return m.last }
func (m *mockInstr) IsSafeForeignCall() bool { return m.safeCall }
func (m *mockInstr) LastKind() LastKind      { return m.lastKind }
func (m *mockInstr) CallInfo() CallInfo      { return m.callInfo }
func (m *mockInstr) BranchTarget() BlockID {
	if len(m.succs) == 0 {
		return 0
	}
	return m.succs[0]
}
func (m *mockInstr) Successors() []BlockID { return m.succs }

// retarget rewrites every occurrence of from in this last node's successor
// set to to; used by mockFunction.InsertBetween to splice a trampoline onto
// an edge.
func (m *mockInstr) retarget(from, to BlockID) {
	for i, s := range m.succs {
		if s == from {
			m.succs[i] = to
		}
	}
	if m.lastKind == LastCall && m.callInfo.Continuation != nil && *m.callInfo.Continuation == from {
		k := to
		m.callInfo.Continuation = &k
	}
}

type mockBlock struct {
	id        BlockID
	stackInfo StackInfo
	entry     bool
	middles   []*mockInstr
	last      *mockInstr
	iterIdx   int
}

func newBlock(id BlockID, last *mockInstr, middles ...*mockInstr) *mockBlock {
	return &mockBlock{id: id, last: last, middles: middles}
}

func (b *mockBlock) withArgBytes(n int) *mockBlock  { b.stackInfo.ArgBytes = &n; return b }
func (b *mockBlock) withReturnOff(n int) *mockBlock { b.stackInfo.ReturnOff = &n; return b }
func (b *mockBlock) asEntry() *mockBlock            { b.entry = true; return b }

func (b *mockBlock) ID() BlockID          { return b.id }
func (b *mockBlock) StackInfo() StackInfo { return b.stackInfo }
func (b *mockBlock) Entry() bool          { return b.entry }

func (b *mockBlock) instrAt(i int) Instr {
	if i < 0 || i >= len(b.middles) {
		return nil
	}
	return b.middles[i]
}

func (b *mockBlock) InstrIteratorBegin() Instr {
	b.iterIdx = 0
	return b.instrAt(0)
}

func (b *mockBlock) InstrIteratorNext() Instr {
	b.iterIdx++
	return b.instrAt(b.iterIdx)
}

func (b *mockBlock) Last() Instr { return b.last }

type mockFunction struct {
	postOrder []*mockBlock
	idx       int
	nextID    BlockID
}

// newFunction takes blocks already in post-order (the order a real post-order
// DFS over the CFG they describe would emit).
func newFunction(postOrder ...*mockBlock) *mockFunction {
	max := BlockID(0)
	for _, b := range postOrder {
		if b.id > max {
			max = b.id
		}
	}
	return &mockFunction{postOrder: postOrder, nextID: max + 1000}
}

func (f *mockFunction) blockAt(i int) Block {
	if i < 0 || i >= len(f.postOrder) {
		return nil
	}
	return f.postOrder[i]
}

func (f *mockFunction) PostOrderBlockIteratorBegin() Block {
	f.idx = 0
	return f.blockAt(0)
}

func (f *mockFunction) PostOrderBlockIteratorNext() Block {
	f.idx++
	return f.blockAt(f.idx)
}

func (f *mockFunction) FoldSlotsUsed(instr Instr, fn func(SubArea)) {
	for _, s := range instr.(*mockInstr).uses {
		fn(s)
	}
}

func (f *mockFunction) FoldSlotsDefd(instr Instr, fn func(SubArea)) {
	for _, s := range instr.(*mockInstr).defs {
		fn(s)
	}
}

func (f *mockFunction) RewriteStackSlots(instr Instr, toSPOffset func(Area, int) int, highWaterMark func() int) {
	mi := instr.(*mockInstr)
	mi.rewrittenOffs = mi.rewrittenOffs[:0]
	for _, r := range mi.stackRefs {
		mi.rewrittenOffs = append(mi.rewrittenOffs, toSPOffset(r.area, r.i))
	}
	mi.rewrittenHWM = mi.rewrittenHWM[:0]
	if mi.usesHWM {
		mi.rewrittenHWM = append(mi.rewrittenHWM, highWaterMark())
	}
}

func (f *mockFunction) InsertBetween(pred Block, instrs []Instr, succID BlockID) (Block, Block) {
	p := pred.(*mockBlock)
	newID := f.nextID
	f.nextID++

	middles := make([]*mockInstr, len(instrs))
	for i, in := range instrs {
		middles[i] = in.(*mockInstr)
	}
	nb := newBlock(newID, newInstr().asLastBranch(succID), middles...)
	p.last.retarget(succID, newID)
	f.postOrder = append(f.postOrder, nb)
	return p, nb
}

func (f *mockFunction) InsertInstrAfter(block Block, after Instr, instr Instr) {
	b := block.(*mockBlock)
	mi := instr.(*mockInstr)
	target := after.(*mockInstr)
	for i, m := range b.middles {
		if m == target {
			b.middles = append(b.middles[:i+1], append([]*mockInstr{mi}, b.middles[i+1:]...)...)
			return
		}
	}
	b.middles = append(b.middles, mi)
}

func (f *mockFunction) AppendMiddle(block Block, instr Instr) {
	b := block.(*mockBlock)
	b.middles = append(b.middles, instr.(*mockInstr))
}

func (f *mockFunction) MakeSPAdjust(delta int) Instr {
	d := delta
	return &mockInstr{spAdjust: &d}
}

func (f *mockFunction) StubStore(area Area, offset, width int) Instr {
	return &mockInstr{stub: &stubStore{area: area, offset: offset, width: width}}
}
