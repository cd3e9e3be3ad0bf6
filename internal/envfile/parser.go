// Package envfile parses environment files into ordered variable lists and
// classifies each variable as secret or non-secret.
package envfile

import (
	"bufio"
	"regexp"
	"strings"
)

// Variable is one NAME=VALUE pair parsed from an environment file.
// It is ephemeral: it exists only during an import session and becomes a
// vault record only on confirmed import.
type Variable struct {
	Name     string
	RawValue string
	IsSecret bool
}

// envLineRegex matches NAME=VALUE lines. NAME is restricted to identifier
// characters; the first '=' splits name from value, so values may contain '='.
var envLineRegex = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=(.*)$`)

// maxLineSize bounds a single line (1MB) so oversized generated files
// don't blow up the scanner.
const maxLineSize = 1024 * 1024

// Parse splits file contents into an ordered list of variables.
//
// Blank lines and lines whose first non-whitespace character is '#' are
// skipped. Lines matching no pattern are skipped too, not an error: the
// files are user-owned and may contain shell-specific syntax. Later
// duplicates overwrite earlier values but keep the earlier position, so
// display order follows the file while uniqueness follows shell semantics.
func Parse(contents string) []Variable {
	var vars []Variable
	index := make(map[string]int)

	scanner := bufio.NewScanner(strings.NewReader(contents))
	buf := make([]byte, maxLineSize)
	scanner.Buffer(buf, maxLineSize)

	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		matches := envLineRegex.FindStringSubmatch(trimmed)
		if matches == nil {
			continue
		}

		name := matches[1]
		value := unquote(strings.TrimSpace(matches[2]))

		if i, seen := index[name]; seen {
			vars[i].RawValue = value
			vars[i].IsSecret = Classify(name, value)
			continue
		}
		index[name] = len(vars)
		vars = append(vars, Variable{
			Name:     name,
			RawValue: value,
			IsSecret: Classify(name, value),
		})
	}

	// Scanner errors are impossible over a strings.Reader short of an
	// over-long line, which we treat the same as an unparseable one.
	return vars
}

// unquote strips one pair of surrounding matching single or double quotes.
// No other escape processing is performed.
func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	if (value[0] == '"' && value[len(value)-1] == '"') ||
		(value[0] == '\'' && value[len(value)-1] == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}
