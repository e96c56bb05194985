package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
)

// glyphs OCR and some PDF fonts use in place of the drafting symbols.
var glyphReplacer = strings.NewReplacer(
	"Ø", "⌀",
	"ø", "⌀",
	"∅", "⌀",
	"º", "°",
	"˚", "°",
	"+/-", "±",
	"+-", "±",
)

// Normalize collapses noisy whitespace in page text. Line breaks are kept
// because metadata values run to the end of a line.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// NormalizeGlyphs maps look-alike diameter, degree and plus-minus glyphs to
// the canonical drafting symbols. Applied to OCR words only.
func NormalizeGlyphs(s string) string {
	return glyphReplacer.Replace(s)
}
