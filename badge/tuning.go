package badge

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownTuningField is returned for tuning field names the document does
// not define.
var ErrUnknownTuningField = errors.New("unknown tuning field")

// SourceTuning is the cross-cutting source behavior document. It is
// persisted to its own resource with write-through semantics: every field
// change saves the whole document immediately, independent of the main
// document's batched save.
type SourceTuning struct {
	MaxBadges           int    `json:"maxBadges"`
	SelectionMode       string `json:"selectionMode"` // "priority" or "random"
	PercentageOnly      bool   `json:"percentageOnly"`
	GroupRelatedSources bool   `json:"groupRelatedSources"`
	AnimeOnly           bool   `json:"animeOnly"` // restrict anime-conditioned sources to anime content
}

// DefaultTuning returns the catalog tuning document for a domain.
func DefaultTuning(domain Domain) SourceTuning {
	switch domain {
	case DomainResolution:
		return SourceTuning{
			MaxBadges:     1,
			SelectionMode: "priority",
		}
	default:
		return SourceTuning{
			MaxBadges:           3,
			SelectionMode:       "priority",
			GroupRelatedSources: true,
			AnimeOnly:           true,
		}
	}
}

// decodeTuning overlays a persisted tuning document onto the domain
// defaults. Malformed input falls back to defaults and reports the error.
func decodeTuning(raw json.RawMessage, domain Domain) (SourceTuning, error) {
	tuning := DefaultTuning(domain)
	if len(raw) == 0 {
		return tuning, nil
	}
	if err := json.Unmarshal(raw, &tuning); err != nil {
		return DefaultTuning(domain), fmt.Errorf("decode %s tuning: %w", domain, err)
	}
	return tuning, nil
}

// setField updates one tuning field by its JSON name, coercing the decoded
// JSON value to the field's type.
func (t *SourceTuning) setField(field string, value any) error {
	switch field {
	case "maxBadges":
		n, ok := toInt(value)
		if !ok || n < 0 {
			return fmt.Errorf("maxBadges: expected non-negative integer, got %v", value)
		}
		t.MaxBadges = n
	case "selectionMode":
		mode, ok := value.(string)
		if !ok || (mode != "priority" && mode != "random") {
			return fmt.Errorf("selectionMode: expected \"priority\" or \"random\", got %v", value)
		}
		t.SelectionMode = mode
	case "percentageOnly":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("percentageOnly: expected boolean, got %v", value)
		}
		t.PercentageOnly = b
	case "groupRelatedSources":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("groupRelatedSources: expected boolean, got %v", value)
		}
		t.GroupRelatedSources = b
	case "animeOnly":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("animeOnly: expected boolean, got %v", value)
		}
		t.AnimeOnly = b
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTuningField, field)
	}
	return nil
}

// toInt accepts the numeric types a decoded JSON value or a direct caller
// may supply.
func toInt(value any) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
