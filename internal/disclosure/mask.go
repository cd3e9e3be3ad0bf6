package disclosure

import "strings"

const (
	maskRune = "•"

	// fixedMaskWidth is the rendering for short secrets: fully masked at a
	// fixed width so the rendering does not leak their length.
	fixedMaskWidth = 8

	// prefixLen/suffixLen bound what a masked rendering may reveal for
	// longer secrets.
	prefixLen = 8
	suffixLen = 4
)

// Mask renders a secret for display without revealing more than the designed
// prefix and suffix.
//
// One policy applies everywhere: values longer than 12 characters keep their
// first 8 and last 4 characters with mask padding in between (length
// preserving, useful for recognizing which key is which); anything shorter
// renders as a fixed-width mask. Lengths and slices are in runes so a
// multibyte value never renders as broken UTF-8.
func Mask(value string) string {
	runes := []rune(value)
	if len(runes) > prefixLen+suffixLen {
		return string(runes[:prefixLen]) +
			strings.Repeat(maskRune, len(runes)-prefixLen-suffixLen) +
			string(runes[len(runes)-suffixLen:])
	}
	return strings.Repeat(maskRune, fixedMaskWidth)
}
