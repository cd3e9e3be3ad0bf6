package envfile

import (
	"strings"
	"unicode"
)

// secretNameHints are case-insensitive substrings that mark a variable name
// as secret-bearing.
var secretNameHints = []string{
	"key",
	"secret",
	"token",
	"password",
	"passwd",
	"auth",
	"credential",
	"api",
	"private",
}

// minGeneratedLength is the value length at which a non-alphabetic value is
// assumed to be a generated credential.
const minGeneratedLength = 20

// Classify reports whether a variable holds a secret.
//
// Classification is pure and order-independent: it looks at exactly one
// (name, value) pair, so re-running it always agrees and no variable's
// result depends on any other variable in the file.
func Classify(name, value string) bool {
	// Nothing to protect.
	if value == "" {
		return false
	}

	lower := strings.ToLower(name)
	for _, hint := range secretNameHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}

	return len(value) >= minGeneratedLength && !isAlphabetic(value)
}

// isAlphabetic reports whether the string is letters only. Long but purely
// alphabetic values (sentences, hostnames without digits) read as config,
// not generated credentials.
func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
