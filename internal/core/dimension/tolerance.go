package dimension

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Neighbour window around a dimension's anchor, in page units.
const (
	NeighborDX = 50.0
	NeighborDY = 20.0
)

var (
	reNegative  = regexp.MustCompile(`-\d+[.,]?\d*`)
	rePlusMinus = regexp.MustCompile(`± ?(\d+(?:[.,]\d+)?)`)
)

// ToleranceRange is one band of the general tolerance table: [Lower, Upper).
type ToleranceRange struct {
	Lower, Upper float64
	Tolerance    float64
}

// GeneralTolerances applies when a callout carries no explicit tolerance.
var GeneralTolerances = []ToleranceRange{
	{Lower: 0.1, Upper: 6, Tolerance: 0.1},
	{Lower: 6, Upper: 30, Tolerance: 0.2},
	{Lower: 30, Upper: 120, Tolerance: 0.3},
	{Lower: 120, Upper: 315, Tolerance: 0.5},
	{Lower: 315, Upper: 1000, Tolerance: 0.8},
	{Lower: 1000, Upper: 1200, Tolerance: 1.2},
}

// GeneralTolerance looks value up in GeneralTolerances.
func GeneralTolerance(value float64) (float64, bool) {
	for _, r := range GeneralTolerances {
		if r.Lower <= value && value < r.Upper {
			return r.Tolerance, true
		}
	}
	return 0, false
}

// ToleranceSource records which rule produced a tolerance.
type ToleranceSource string

const (
	SourceNone      ToleranceSource = "none"
	SourceNegative  ToleranceSource = "negative_neighbors"
	SourceNeighbor  ToleranceSource = "plus_minus_neighbor"
	SourceInline    ToleranceSource = "inline"
	SourceGeneral   ToleranceSource = "general_table"
	SourceNotNeeded ToleranceSource = "thread_hole"
)

// Limit is a computed dimension limit, or "-" when none applies.
type Limit struct {
	Value float64
	Valid bool
}

func LimitOf(v float64) Limit { return Limit{Value: v, Valid: true} }

// Rounded is Value rounded to four decimals to hide float noise, e.g.
// 0.30000000000000004.
func (l Limit) Rounded() float64 {
	return math.Round(l.Value*1e4) / 1e4
}

func (l Limit) String() string {
	if !l.Valid {
		return NoValue
	}
	return strconv.FormatFloat(l.Rounded(), 'f', -1, 64)
}

// NoValue is shown for tolerances and limits that do not apply.
const NoValue = "-"

// Resolution is the tolerance that applies to one callout.
type Resolution struct {
	Display string
	Upper   Limit
	Lower   Limit
	Source  ToleranceSource
}

// Resolve picks the tolerance for c given the texts of its neighbouring
// tokens, in priority order:
//
//  1. negative numbers among the neighbours; both limits add them to the nominal
//  2. the first ± value in a neighbour
//  3. the inline tolerance of the token itself
//  4. the general tolerance table
//
// With none of these the display and both limits are NoValue.
func Resolve(c Classification, neighbors []string) Resolution {
	nominal := c.Value

	var negatives []float64
	for _, t := range neighbors {
		for _, s := range reNegative.FindAllString(t, -1) {
			if v, err := parseNumber(s); err == nil {
				negatives = append(negatives, v)
			}
		}
	}
	if len(negatives) > 0 {
		lo, hi := negatives[0], negatives[0]
		for _, v := range negatives[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		return Resolution{
			Display: fmt.Sprintf("%s to %s", formatPlain(lo), formatPlain(hi)),
			Upper:   LimitOf(nominal + hi),
			Lower:   LimitOf(nominal + lo),
			Source:  SourceNegative,
		}
	}

	for _, t := range neighbors {
		if m := rePlusMinus.FindStringSubmatch(t); m != nil {
			if v, err := parseNumber(m[1]); err == nil {
				return symmetric(nominal, v, SourceNeighbor)
			}
		}
	}

	if c.Inline {
		return symmetric(nominal, c.InlineValue, SourceInline)
	}

	if tol, ok := GeneralTolerance(nominal); ok {
		return symmetric(nominal, tol, SourceGeneral)
	}
	return Resolution{Display: NoValue, Source: SourceNone}
}

func symmetric(nominal, tol float64, src ToleranceSource) Resolution {
	return Resolution{
		Display: fmt.Sprintf("±%.2f", tol),
		Upper:   LimitOf(nominal + tol),
		Lower:   LimitOf(nominal - tol),
		Source:  src,
	}
}

// formatPlain prints the shortest form of v that keeps a decimal point, so
// -1 reads "-1.0" and -0.3 reads "-0.3".
func formatPlain(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
