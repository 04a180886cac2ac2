package identity

import (
	"strings"
	"unicode/utf8"
)

const (
	maxProjectCodeLen = 50
	UnknownProject    = "UNKNOWN_PROJECT"
)

// DeriveProjectCode turns a project name into its code: spaces and hyphens become
// underscores, letters are uppercased, anything outside A-Z, 0-9, _ and Hangul syllables is
// dropped, and the result is cut to 50 runes.
func DeriveProjectCode(name string) string {
	name = strings.NewReplacer(" ", "_", "-", "_").Replace(strings.TrimSpace(name))
	name = strings.ToUpper(name)

	var b strings.Builder
	n := 0
	for _, r := range name {
		if n >= maxProjectCodeLen {
			break
		}
		if !codeRune(r) {
			continue
		}
		b.WriteRune(r)
		n++
	}
	if b.Len() == 0 {
		return UnknownProject
	}
	return b.String()
}

func codeRune(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		return true
	case r >= 0xAC00 && r <= 0xD7A3:
		return true
	}
	return false
}

// SanitizeDisplayName returns the first candidate that is non-empty after collapsing runs of
// whitespace.
func SanitizeDisplayName(candidates ...string) string {
	for _, c := range candidates {
		if !utf8.ValidString(c) {
			c = strings.ToValidUTF8(c, "")
		}
		c = strings.Join(strings.Fields(c), " ")
		if c != "" {
			return c
		}
	}
	return ""
}

var canonicalIDKeys = []string{"IfcGUID", "IFC_GUID", "IFC Guid", "IFC GUID", "Ifc Guid"}

// ExtractCanonicalID returns the first non-empty exchange-format id found under one of the
// well-known attribute names.
func ExtractCanonicalID(props map[string]any) string {
	for _, k := range canonicalIDKeys {
		v, ok := props[k]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// IsCanonicalIDKey reports whether an attribute name denotes an exchange-format id.
func IsCanonicalIDKey(name string) bool {
	for _, k := range canonicalIDKeys {
		if k == name {
			return true
		}
	}
	return false
}
