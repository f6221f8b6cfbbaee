package badge

import (
	"encoding/json"
	"fmt"
)

// MergeWithDefaults overlays a partially persisted document onto the default
// catalog for the domain. The merge is shallow per subsection: a persisted
// field wins over its default, an absent field falls back, and an
// object-valued field present in the persisted document replaces its default
// wholesale. Sections unknown to the catalog are carried through unchanged.
//
// Malformed input never fails the load: the catalog defaults are returned
// together with the decode error so the caller can surface a notice.
func MergeWithDefaults(raw json.RawMessage, domain Domain) (Document, error) {
	defaults := DefaultDocument(domain)
	if len(raw) == 0 {
		return defaults, nil
	}

	var partial map[string]map[string]any
	if err := json.Unmarshal(raw, &partial); err != nil {
		return defaults, fmt.Errorf("decode %s settings: %w", domain, err)
	}

	for name, fields := range partial {
		section, known := defaults[name]
		if !known {
			section = Section{}
			defaults[name] = section
		}
		for key, value := range fields {
			section[key] = value
		}
	}

	return defaults, nil
}
