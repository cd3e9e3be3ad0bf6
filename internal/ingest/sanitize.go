package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// maxRecordNameLength bounds sanitized record names.
const maxRecordNameLength = 128

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// sanitizeRecordName turns an env variable name into a vault record name:
// Unicode NFC, spaces to underscores, invalid characters removed, truncated,
// lowercased. Deterministic so re-importing the same file maps to the same
// record names.
func sanitizeRecordName(name string) string {
	if name == "" {
		return ""
	}
	name = norm.NFC.String(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = invalidNameChars.ReplaceAllString(name, "")
	if len(name) > maxRecordNameLength {
		name = name[:maxRecordNameLength]
	}
	return strings.ToLower(name)
}

// dedupeNames ensures uniqueness within one batch by appending _1, _2, ...
// to repeated names, preserving input order. Synthesized names are checked
// against everything already emitted, so a literal "a_1" in the input can
// never collide with a suffix generated for a duplicated "a".
func dedupeNames(names []string) []string {
	used := make(map[string]bool, len(names))
	counts := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		candidate := name
		for used[candidate] {
			counts[name]++
			candidate = fmt.Sprintf("%s_%d", name, counts[name])
		}
		used[candidate] = true
		out[i] = candidate
	}
	return out
}
