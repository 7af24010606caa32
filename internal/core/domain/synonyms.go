package domain

import "sort"

// SynonymPair maps an informal term to its formal medical equivalent.
type SynonymPair struct {
	Informal string
	Formal   string
}

// SynonymTable is the static informal-to-formal lookup used by query
// expansion. The table is configuration data, loaded once at startup;
// expansion iterates it in deterministic order.
type SynonymTable []SynonymPair

// Sorted returns a copy of the table ordered by informal term. The
// expander relies on this so that the appended expansions, and the
// fallback term choice, do not depend on load order.
func (t SynonymTable) Sorted() SynonymTable {
	out := make(SynonymTable, len(t))
	copy(out, t)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Informal < out[j].Informal
	})
	return out
}
