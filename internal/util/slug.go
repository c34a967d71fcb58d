// Package util provides common utility functions.
package util

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Matches spaces, underscores, and slashes (for replacement with dashes).
	wordSeparatorRe = regexp.MustCompile(`[\s_/]+`)
	// Matches non-alphanumeric characters (except dashes).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	// Matches what a tag may not carry. Letters and digits in any script
	// survive, as do "+" and "#" so "c++" and "c#" stay distinct.
	nonTagRe = regexp.MustCompile(`[^\p{L}\p{N}+#-]`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)
)

// foldAccents decomposes s and drops combining marks, so "Zürich" becomes "Zurich".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeTagSlug converts user input to a canonical tag slug.
// Tag intersection between lists and saved items compares slugs only.
//
// Normalization rules:
//  1. Fold accents, trim whitespace and lowercase
//  2. Replace spaces, underscores and slashes with dashes
//  3. Remove everything except letters, digits, "+", "#" and dashes
//  4. Collapse multiple dashes
//  5. Trim leading/trailing dashes
//
// Symbols such as emoji are dropped; a tag made only of them normalizes to
// "" and is rejected by the tags validator.
//
// Examples:
//
//	"Fin Tech"      → "fin-tech"
//	"climate_tech"  → "climate-tech"
//	"Café Owners"   → "cafe-owners"
//	"C++"           → "c++"
//	"C#"            → "c#"
//	"🚀 Startups!"  → "startups"
func NormalizeTagSlug(input string) string {
	return slug(input, nonTagRe)
}

// NormalizeTags slugs every tag, drops empties and returns the sorted unique set.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if slug := NormalizeTagSlug(t); slug != "" {
			out = append(out, slug)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Slugify builds a URL-safe slug for entity names: the tag rules restricted
// to ASCII letters, digits and dashes.
func Slugify(name string) string {
	return slug(name, nonAlphanumericRe)
}

func slug(input string, drop *regexp.Regexp) string {
	s := strings.ToLower(strings.TrimSpace(foldAccents(input)))
	s = wordSeparatorRe.ReplaceAllString(s, "-")
	s = drop.ReplaceAllString(s, "")
	s = multipleDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
