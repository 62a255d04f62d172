package stacklayout

import "fmt"

// All abnormal conditions handled here are programmer errors: inconsistency
// between this package and its caller (an unknown block, an area never seen
// during allocation, an unsatisfiable SP convention). They are fatal and
// carry an identifying message; there is no recovery path.

func bugf(format string, args ...any) {
	panic(fmt.Sprintf("BUG: "+format, args...))
}

func unknownBlock(id BlockID) {
	bugf("unknown block %d in liveness environment", id)
}

func unallocatedArea(a Area) {
	bugf("unallocated area %s referenced during SP manifestation", a)
}

func procPointFanIn(id BlockID, reachedBy []BlockID) {
	bugf("procedure point convention cannot be determined for block %d: reached by %v predecessors", id, reachedBy)
}

func procPointNoArgInfo(id BlockID) {
	bugf("procedure point %d requires arg_bytes but StackInfo has none", id)
}

func procPointCycle(id BlockID) {
	bugf("procedure point convention for block %d recurses through itself: ReachedBy chain forms a cycle", id)
}
