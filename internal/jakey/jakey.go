// Package jakey builds lexicon lookup keys from morphological base forms.
//
// Keys are lowercased with full Unicode case mapping (Japanese scripts are
// caseless, so only embedded Latin, Greek and Cyrillic letters change).
// Multi-word keys join their parts with a single ASCII space, which is the
// form dictionary phrases are stored under.
//
// All functions are safe for concurrent use.
package jakey

import "strings"

// Placeholder is the feature value a morphological analyzer emits when a
// field such as the base form is unknown.
const Placeholder = "*"

// Sep separates the words of a multi-word key.
const Sep = " "

// ToLower returns s with every letter lowercased.
func ToLower(s string) string {
	return strings.ToLower(s)
}

// Join lowercases parts and joins them into a multi-word key.
func Join(parts ...string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return ToLower(parts[0])
	}
	lowered := make([]string, len(parts))
	for i, p := range parts {
		lowered[i] = ToLower(p)
	}
	return strings.Join(lowered, Sep)
}

// Phrase collapses runs of whitespace in s to single separators and trims
// the ends, so dictionary phrases written with tabs or double spaces match
// keys built by Join.
func Phrase(s string) string {
	return strings.Join(strings.Fields(s), Sep)
}

// BaseOr returns base unless it is empty or the placeholder, in which case
// it returns surface.
func BaseOr(base, surface string) string {
	if base == "" || base == Placeholder {
		return surface
	}
	return base
}
