package helpers

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var bypassPattern = regexp.MustCompile(`(?i)\s*\(?bypass\)?`)

// letterlike double-struck capitals that live outside the math alphanumeric block
var letterlikeDoubleStruck = map[rune]bool{
	'ℂ': true, 'ℍ': true, 'ℕ': true, 'ℙ': true, 'ℚ': true, 'ℝ': true, 'ℤ': true,
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "'",
	"<", "_",
	">", "_",
	"|", "_",
)

func isDoubleStruck(r rune) bool {
	if r >= 0x1D538 && r <= 0x1D56B {
		return true
	}
	if r >= 0x1D7D8 && r <= 0x1D7E1 {
		return true
	}
	return letterlikeDoubleStruck[r]
}

// CleanTitle strips "bypass" markers, folds double-struck letters to plain
// ASCII and collapses whitespace.
func CleanTitle(name string) string {
	name = bypassPattern.ReplaceAllString(name, "")

	fold := runes.If(runes.Predicate(isDoubleStruck), norm.NFKC, nil)
	if folded, _, err := transform.String(fold, name); err == nil {
		name = folded
	}

	return strings.Join(strings.Fields(name), " ")
}

// SafeFilename cleans a title and replaces characters that are not allowed
// in file names on common filesystems.
func SafeFilename(name string) string {
	name = CleanTitle(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = filenameReplacer.Replace(name)
	name = strings.TrimRight(name, ". ")
	if name == "" {
		return "untitled"
	}
	return name
}
