// Package util provides common utility functions.
package util

import (
	"path"
	"regexp"
	"strings"
)

var (
	// Matches spaces, underscores, dots and slashes (for replacement with dashes).
	wordSeparatorRe = regexp.MustCompile(`[\s_./]+`)
	// Matches non-alphanumeric characters (except dashes).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)
)

// maxSlugLength bounds slugs used in file names.
const maxSlugLength = 48

// Slug converts text to a lowercase, dash-separated ASCII slug.
//
// Examples:
//
//	"Summer Hike"     → "summer-hike"
//	"my_photo (1)"    → "my-photo-1"
//	"🐉 Dragons!"     → "dragons"
//	"ლაშქრობა"        → ""
func Slug(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = wordSeparatorRe.ReplaceAllString(s, "-")
	s = nonAlphanumericRe.ReplaceAllString(s, "")
	s = multipleDashRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	return s
}

// FileStem returns the slug of a file name without its directory or
// extension, or fallback when nothing usable remains.
func FileStem(name, fallback string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	if s := Slug(base); s != "" {
		return s
	}
	return fallback
}
