// Package cli holds helpers shared by the keydrop commands.
package cli

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FilterNames selects record names matching any of the given patterns. A
// pattern containing glob metacharacters (*?[) matches with filepath.Match
// semantics; anything else must match a name exactly. The result preserves
// the order of names and contains no duplicates. Matching nothing is an
// error so a typo in a pattern never silently selects an empty set.
func FilterNames(patterns, names []string) ([]string, error) {
	matched := make(map[string]bool, len(names))
	for _, pattern := range patterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}

		hit := false
		for _, name := range names {
			ok, err := matches(pattern, name)
			if err != nil {
				return nil, err
			}
			if ok {
				matched[name] = true
				hit = true
			}
		}
		if !hit {
			return nil, fmt.Errorf("no secrets match %q", pattern)
		}
	}

	var result []string
	for _, name := range names {
		if matched[name] {
			result = append(result, name)
		}
	}
	return result, nil
}

func matches(pattern, name string) (bool, error) {
	if !strings.ContainsAny(pattern, "*?[") {
		return pattern == name, nil
	}
	return filepath.Match(pattern, name)
}
