package models

// Source is one configurable badge data provider: a rating/award provider
// for review badges, a resolution tier for resolution badges.
type Source struct {
	ID           int            `json:"id"`
	Name         string         `json:"name"`
	Enabled      bool           `json:"enabled"`
	Priority     int            `json:"priority"`     // 1 = highest
	DisplayOrder int            `json:"displayOrder"` // must equal Priority after every mutation
	MaxVariants  int            `json:"maxVariants"`
	Conditions   map[string]any `json:"conditions,omitempty"` // opaque predicate, passed through untouched
}

// CloneSources returns an independent copy of a source list, including the
// opaque condition maps.
func CloneSources(sources []Source) []Source {
	out := make([]Source, len(sources))
	copy(out, sources)
	for i := range out {
		if out[i].Conditions == nil {
			continue
		}
		conditions := make(map[string]any, len(out[i].Conditions))
		for k, v := range out[i].Conditions {
			conditions[k] = v
		}
		out[i].Conditions = conditions
	}
	return out
}
