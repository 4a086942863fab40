package scan

import "regexp"

var (
	addressRe    = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	addressAnyRe = regexp.MustCompile(`0x[0-9a-fA-F]{40}`)
)

// ValidAddress reports whether s is a syntactically valid contract address:
// "0x" followed by exactly 40 hex digits. Checksum casing is not enforced.
func ValidAddress(s string) bool {
	return addressRe.MatchString(s)
}

// ExtractAddress returns the first contract address found in text, which is
// typically a block-explorer URL. The second return is false when text
// contains none.
func ExtractAddress(text string) (string, bool) {
	m := addressAnyRe.FindString(text)
	return m, m != ""
}
