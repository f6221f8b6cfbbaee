package badge

import (
	"sort"

	"posterforge/models"
)

// SyncFromBag applies a persisted Sources section onto a source list (the
// load direction). The returned list has the same length and identity order
// as the input; only Enabled, Priority and DisplayOrder change.
//
// Absence is preserved in both directions: a missing enable key keeps the
// source's current Enabled flag (missing means "not yet persisted", not
// "disabled"), and a source missing from priorityOrder keeps its current
// position rather than being assigned an invented one.
func SyncFromBag(sources []models.Source, bag Section) []models.Source {
	out := models.CloneSources(sources)
	if bag == nil {
		return out
	}

	position := make(map[string]int)
	if order, ok := stringSlice(bag[KeyPriorityOrder]); ok {
		for i, key := range order {
			if _, seen := position[key]; !seen {
				position[key] = i
			}
		}
	}

	for i := range out {
		if enabled, ok := bag[DeriveEnableKey(out[i].Name)].(bool); ok {
			out[i].Enabled = enabled
		}
		if idx, ok := position[DeriveLookupKey(out[i].Name)]; ok {
			out[i].Priority = idx + 1
			out[i].DisplayOrder = idx + 1
		}
	}

	return out
}

// SyncToBag writes every source's enabled flag into the bag and rebuilds
// priorityOrder from scratch (the save direction). The rebuilt order is the
// lookup keys of all current sources sorted ascending by priority, ties
// broken by list order; previously persisted keys for sources no longer in
// the list are discarded. All other bag fields pass through unmodified.
func SyncToBag(sources []models.Source, bag Section) Section {
	out := bag.Clone()
	if out == nil {
		out = Section{}
	}

	for _, src := range sources {
		out[DeriveEnableKey(src.Name)] = src.Enabled
	}

	ordered := make([]int, len(sources))
	for i := range ordered {
		ordered[i] = i
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		return sources[ordered[a]].Priority < sources[ordered[b]].Priority
	})

	order := make([]string, len(ordered))
	for i, idx := range ordered {
		order[i] = DeriveLookupKey(sources[idx].Name)
	}
	out[KeyPriorityOrder] = order

	return out
}

// ApplyToggle writes a single source's enabled flag into the bag without
// rebuilding priorityOrder. Used by the façade's toggle path, which must not
// disturb ordering.
func ApplyToggle(bag Section, src models.Source) Section {
	out := bag.Clone()
	if out == nil {
		out = Section{}
	}
	out[DeriveEnableKey(src.Name)] = src.Enabled
	return out
}
