package badge

// Section is one top-level subsection of a settings document: a flat bag of
// named fields. Values are whatever JSON decoded them to.
type Section map[string]any

// Document is a persisted badge settings document, keyed by section name.
type Document map[string]Section

// Section names shared by both badge domains.
const (
	SectionGeneral      = "General"
	SectionText         = "Text"
	SectionBackground   = "Background"
	SectionBorder       = "Border"
	SectionShadow       = "Shadow"
	SectionImageBadges  = "ImageBadges"
	SectionImageMapping = "ImageMapping"
	SectionSources      = "Sources"
)

// KeyPriorityOrder is the field inside the Sources section holding the
// ordered sequence of lookup keys.
const KeyPriorityOrder = "priorityOrder"

// Clone returns an independent deep copy of the section.
func (s Section) Clone() Section {
	if s == nil {
		return nil
	}
	out := make(Section, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

// Clone returns an independent deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for name, section := range d {
		out[name] = section.Clone()
	}
	return out
}

// Section returns the named section, creating it if absent.
func (d Document) Section(name string) Section {
	section, ok := d[name]
	if !ok {
		section = Section{}
		d[name] = section
	}
	return section
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = cloneValue(inner)
		}
		return out
	case Section:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = cloneValue(inner)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}

// stringSlice coerces a field value into a string slice. JSON decoding
// yields []any while in-memory writes use []string; both are accepted.
func stringSlice(v any) ([]string, bool) {
	switch val := v.(type) {
	case []string:
		return val, true
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
