package badge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeWithDefaultsEmptyInputsEqualDefaults(t *testing.T) {
	defaults := DefaultDocument(DomainReview)

	merged, err := MergeWithDefaults(nil, DomainReview)
	require.NoError(t, err)
	require.Equal(t, defaults, merged)

	merged, err = MergeWithDefaults(json.RawMessage(`{}`), DomainReview)
	require.NoError(t, err)
	require.Equal(t, defaults, merged)
}

func TestMergeWithDefaultsShallowPerSection(t *testing.T) {
	raw := json.RawMessage(`{"Background": {"background_opacity": 10}}`)

	merged, err := MergeWithDefaults(raw, DomainReview)
	require.NoError(t, err)

	defaults := DefaultDocument(DomainReview)
	require.EqualValues(t, 10, merged[SectionBackground]["background_opacity"])
	require.Equal(t, defaults[SectionBackground]["background-color"], merged[SectionBackground]["background-color"])

	// Every other subsection is untouched
	for name, section := range defaults {
		if name == SectionBackground {
			continue
		}
		require.Equal(t, section, merged[name], "section %s", name)
	}
}

func TestMergeWithDefaultsObjectFieldReplacesWholesale(t *testing.T) {
	// A partially specified object-valued field replaces its default
	// sibling wholesale; there is no recursive merge below section level.
	raw := json.RawMessage(`{"General": {"badge_position": {"x": 1}}}`)

	merged, err := MergeWithDefaults(raw, DomainReview)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"x": float64(1)}, merged[SectionGeneral]["badge_position"])
}

func TestMergeWithDefaultsUnknownSectionPassesThrough(t *testing.T) {
	raw := json.RawMessage(`{"Experimental": {"flag": true}}`)

	merged, err := MergeWithDefaults(raw, DomainResolution)
	require.NoError(t, err)
	require.Equal(t, Section{"flag": true}, merged["Experimental"])
}

func TestMergeWithDefaultsMalformedFallsBack(t *testing.T) {
	for _, raw := range []string{`{not json`, `[]`, `{"General": 42}`} {
		merged, err := MergeWithDefaults(json.RawMessage(raw), DomainReview)
		require.Error(t, err, "input %s", raw)
		require.Equal(t, DefaultDocument(DomainReview), merged, "input %s", raw)
	}
}

func TestDefaultDocumentReturnsIndependentCopies(t *testing.T) {
	first := DefaultDocument(DomainReview)
	first[SectionGeneral]["badge_size"] = 999
	delete(first[SectionSources], KeyPriorityOrder)

	second := DefaultDocument(DomainReview)
	require.EqualValues(t, 100, second[SectionGeneral]["badge_size"])
	require.Contains(t, second[SectionSources], KeyPriorityOrder)
}

func TestDefaultSourcesReturnsIndependentCopies(t *testing.T) {
	first := DefaultSources(DomainReview)
	first[0].Enabled = false
	for i := range first {
		if first[i].Conditions != nil {
			first[i].Conditions["contentType"] = "mutated"
		}
	}

	second := DefaultSources(DomainReview)
	require.True(t, second[0].Enabled)
	for _, src := range second {
		if src.Conditions != nil {
			require.Equal(t, "anime", src.Conditions["contentType"])
		}
	}
}
