package stacklayout

// AreaMap maps an Area to a byte value: a size during §4.C/§4.D, an assigned
// offset during and after §4.E. The zero value is not ready to use; call
// NewAreaMap.
type AreaMap struct {
	m map[Area]int
}

func NewAreaMap() AreaMap {
	return AreaMap{m: make(map[Area]int)}
}

func (a AreaMap) Set(area Area, v int) { a.m[area] = v }

// Get returns the value recorded for area and whether one was recorded.
func (a AreaMap) Get(area Area) (int, bool) {
	v, ok := a.m[area]
	return v, ok
}

// GetOr returns the value recorded for area, or dflt if none was.
func (a AreaMap) GetOr(area Area, dflt int) int {
	if v, ok := a.m[area]; ok {
		return v
	}
	return dflt
}

func (a AreaMap) Has(area Area) bool {
	_, ok := a.m[area]
	return ok
}

// ForEach visits every (area, value) pair. Iteration order is not
// guaranteed; callers needing determinism must sort.
func (a AreaMap) ForEach(f func(Area, int)) {
	for area, v := range a.m {
		f(area, v)
	}
}
