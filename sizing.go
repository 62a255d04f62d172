package stacklayout

// SizeAreas runs the forward scan of §4.C: for each RegSlot area used or
// defined anywhere in the procedure, record the maximum byte offset used in
// it. Call areas are sized only from block arg_bytes and call-last outgoing
// byte counts; call-area sub-areas among an instruction's uses or defs do not
// change them. CallArea(Old) starts pre-seeded with procArgBytes, the
// procedure's own incoming argument size.
func SizeAreas(f Function, procArgBytes int) AreaMap {
	sizes := NewAreaMap()
	sizes.Set(CallAreaOld(), procArgBytes)

	for b := f.PostOrderBlockIteratorBegin(); b != nil; b = f.PostOrderBlockIteratorNext() {
		if off := b.StackInfo().ArgBytes; off != nil {
			young := CallAreaYoung(b.ID())
			sizes.Set(young, max(sizes.GetOr(young, 0), *off))
		}

		for instr := b.InstrIteratorBegin(); instr != nil; instr = b.InstrIteratorNext() {
			sizeInstr(f, sizes, instr)
		}
		sizeInstr(f, sizes, b.Last())

		if last := b.Last(); last.LastKind() == LastCall {
			ci := last.CallInfo()
			if ci.Continuation != nil {
				young := CallAreaYoung(*ci.Continuation)
				sizes.Set(young, max(sizes.GetOr(young, 0), ci.OutgoingBytes))
			} else {
				sizes.Set(CallAreaOld(), max(sizes.GetOr(CallAreaOld(), 0), ci.OutgoingBytes))
			}
		}
	}
	return sizes
}

func sizeInstr(f Function, sizes AreaMap, instr Instr) {
	record := func(s SubArea) {
		if _, ok := s.Area.IsRegSlot(); !ok {
			return
		}
		sizes.Set(s.Area, max(sizes.GetOr(s.Area, 0), s.Hi))
	}
	f.FoldSlotsUsed(instr, record)
	f.FoldSlotsDefd(instr, record)
}
