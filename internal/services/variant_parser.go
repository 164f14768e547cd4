package services

import (
	"regexp"
	"strings"

	"github.com/Conceptual-Machines/stagepost-api/internal/prompt"
)

// MaxPostLength is the publish limit applied to every extracted variant
const MaxPostLength = 280

var (
	// "VARIANT 1:", "variant2", "Variant 3 :"
	variantMarkerRe = regexp.MustCompile(`(?i)variant\s*(\d+)\s*:?`)
	// "1." / "2)" / "-" / "•" at the start of a line
	listItemRe = regexp.MustCompile(`\n\s*(?:\d+[).]|[-•])\s+`)
)

// ExtractVariants pulls up to three post variants out of free-form model text.
//
// Strategies run in order and the first that yields anything wins:
// labelled "VARIANT n:" sections, then numbered or bulleted list items,
// then a plain split on variant markers. The list split returns the whole
// trimmed text for any non-blank input, so the marker split after it is
// unreachable through ExtractVariants. Each result is trimmed, non-empty and
// at most MaxPostLength runes. Never fails; no usable text gives nil.
func ExtractVariants(raw string) []string {
	if raw == "" {
		return nil
	}
	for _, strategy := range extractionStrategies {
		if posts := strategy(raw); len(posts) > 0 {
			return posts
		}
	}
	return nil
}

// HasVariantMarkers reports whether raw labels at least one "VARIANT n" section
func HasVariantMarkers(raw string) bool {
	return variantMarkerRe.MatchString(raw)
}

type extractionStrategy func(raw string) []string

var extractionStrategies = []extractionStrategy{
	extractLabelled,
	extractListItems,
	extractMarkerSplit,
}

// extractLabelled returns the body following each variant marker up to the next marker.
// Bodies are kept in marker order, not sorted by the marker number.
func extractLabelled(raw string) []string {
	markers := variantMarkerRe.FindAllStringIndex(raw, -1)
	if len(markers) == 0 {
		return nil
	}

	bodies := make([]string, 0, len(markers))
	for i, m := range markers {
		end := len(raw)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		bodies = append(bodies, raw[m[1]:end])
	}
	return finalize(bodies)
}

func extractListItems(raw string) []string {
	return finalize(listItemRe.Split(raw, -1))
}

func extractMarkerSplit(raw string) []string {
	if !variantMarkerRe.MatchString(raw) {
		return nil
	}
	return finalize(variantMarkerRe.Split(raw, -1))
}

func finalize(candidates []string) []string {
	var posts []string
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		posts = append(posts, truncateRunes(c, MaxPostLength))
		if len(posts) == prompt.VariantCount {
			break
		}
	}
	return posts
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
