package ocr

import (
	"regexp"
	"strings"
)

var (
	reSpaces   = regexp.MustCompile(`[\t\x{00A0}\x{2007}\x{202F} ]+`)
	reBoxNoise = regexp.MustCompile(`^[_\-\x{2014}|.\s]{3,}$`)
	reDashes   = regexp.MustCompile(`[\x{2012}\x{2013}\x{2212}]`)
)

// CleanLine collapses the whitespace tesseract leaves in a line and maps
// typographic dashes to '-'. Lines made only of rule or leader characters
// ("_____", "- - - -", ". . . .") come back empty.
func CleanLine(s string) string {
	if s == "" {
		return s
	}
	s = reDashes.ReplaceAllString(s, "-")
	s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
	if reBoxNoise.MatchString(s) {
		return ""
	}
	return s
}
