// Package dimension finds dimension callouts in a drawing's token stream,
// resolves their tolerances and numbers them for ballooning.
package dimension

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/ballooning/constants"
)

const (
	diameterGlyph = "⌀"
	degreeGlyph   = "°"
)

var (
	reThreadHole = regexp.MustCompile(`^(M\d+)`)
	reDimension  = regexp.MustCompile(`^(⌀?\d+(?:[.,]\d+)?°?)(?: ?±? ?(\d+(?:[.,]\d+)?))?`)
	reNonNumeric = regexp.MustCompile(`[^\d.]`)
)

// Classification is what a matcher extracted from one token.
type Classification struct {
	Matcher string
	Kind    constants.DimensionKind
	// Raw is the matched nominal text as it appears on the page.
	Raw string
	// Nominal is Raw with decimal commas replaced by periods.
	Nominal string
	Value   float64
	// Inline is set when the token carries its own tolerance, e.g. "14 ±0.05".
	Inline      bool
	InlineValue float64
}

// Matcher recognises one kind of callout. Match returns false for tokens it
// does not recognise, including ones whose numbers fail to parse.
type Matcher struct {
	Name  string
	Match func(text string) (Classification, bool)
}

// DefaultMatchers in priority order: a token is classified by the first
// matcher that accepts it.
var DefaultMatchers = []Matcher{
	{Name: "thread_hole", Match: matchThreadHole},
	{Name: "dimension", Match: matchDimension},
}

// Classify runs matchers in order and stops at the first match.
func Classify(matchers []Matcher, text string) (Classification, bool) {
	for _, m := range matchers {
		if c, ok := m.Match(text); ok {
			c.Matcher = m.Name
			return c, true
		}
	}
	return Classification{}, false
}

func matchThreadHole(text string) (Classification, bool) {
	m := reThreadHole.FindStringSubmatch(text)
	if m == nil {
		return Classification{}, false
	}
	v, err := strconv.ParseFloat(m[1][1:], 64)
	if err != nil {
		return Classification{}, false
	}
	return Classification{
		Kind:    constants.TappedHole,
		Raw:     m[1],
		Nominal: m[1],
		Value:   v,
	}, true
}

func matchDimension(text string) (Classification, bool) {
	m := reDimension.FindStringSubmatch(text)
	if m == nil {
		return Classification{}, false
	}
	nominal := strings.ReplaceAll(m[1], ",", ".")
	v, err := parseNumber(reNonNumeric.ReplaceAllString(nominal, ""))
	if err != nil {
		return Classification{}, false
	}

	c := Classification{
		Kind:    kindOf(nominal),
		Raw:     m[1],
		Nominal: nominal,
		Value:   v,
	}
	if m[2] != "" {
		tol, err := parseNumber(m[2])
		if err != nil {
			return Classification{}, false
		}
		c.Inline, c.InlineValue = true, tol
	}
	return c, true
}

func kindOf(nominal string) constants.DimensionKind {
	switch {
	case strings.Contains(nominal, diameterGlyph):
		return constants.Diametrical
	case strings.Contains(nominal, degreeGlyph):
		return constants.Angular
	default:
		return constants.Linear
	}
}

// parseNumber accepts a decimal comma.
func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}
