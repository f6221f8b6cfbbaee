package badge

import (
	"strings"
	"unicode"
)

// enableKeyPrefix is prepended to slugged names when deriving enable keys.
const enableKeyPrefix = "enable_"

// Historical key exceptions. These entries predate the slug fallback and are
// pinned to the keys that real persisted documents already contain; the two
// tables are independent key spaces and must stay that way.
var enableKeyOverrides = map[string]string{
	"Rotten Tomatoes Critics":  "enable_rt_critics",
	"Rotten Tomatoes Audience": "enable_rt_audience",
	"MDBList":                  "enable_mdb",
}

var lookupKeyOverrides = map[string]string{
	"Rotten Tomatoes Critics":  "tomatoes",
	"Rotten Tomatoes Audience": "audience",
	"MDBList":                  "mdblist",
}

// DeriveEnableKey maps a source display name to the flat-bag key holding its
// enabled flag. Total and deterministic for every non-empty name.
func DeriveEnableKey(name string) string {
	if key, ok := enableKeyOverrides[name]; ok {
		return key
	}
	return enableKeyPrefix + slug(name)
}

// DeriveLookupKey maps a source display name to the key used inside
// priorityOrder. This is a separate key space from enable keys; callers must
// never treat the two as interchangeable.
func DeriveLookupKey(name string) string {
	if key, ok := lookupKeyOverrides[name]; ok {
		return key
	}
	return slug(name)
}

// slug lower-cases the name, collapses whitespace runs to a single
// underscore and drops every character outside [a-z0-9_].
func slug(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsSpace(r) {
			pendingSep = b.Len() > 0
			continue
		}
		if r != '_' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
