package domain

import (
	"encoding/json/v2"
	"regexp"
	"strings"
)

// Older clients appended structured data to the description as a
// sentinel-delimited JSON block. New writes store ExtendedAttrs in a real
// column, but read paths still strip and decode the legacy form.
var legacyMetaPattern = regexp.MustCompile(`(?s)<!--DD_META:({.+})-->`)

// SplitLegacyMeta separates a description from an embedded legacy metadata
// block. The sentinel is always stripped from the returned description; a
// malformed block degrades to zero attributes and never fails.
func SplitLegacyMeta(description string) (string, ExtendedAttrs) {
	m := legacyMetaPattern.FindStringSubmatch(description)
	if m == nil {
		return description, ExtendedAttrs{}
	}

	clean := strings.TrimSpace(legacyMetaPattern.ReplaceAllString(description, ""))

	var ext ExtendedAttrs
	if err := json.Unmarshal([]byte(m[1]), &ext); err != nil {
		return clean, ExtendedAttrs{}
	}
	return clean, ext
}
