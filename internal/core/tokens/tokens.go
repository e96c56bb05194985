// Package tokens turns drawings into positioned text tokens: the text layer
// of a PDF, OCR words of a scanned image, or a JSON token dump.
package tokens

import (
	"math"
	"sort"
	"strings"
)

// Units of a page's coordinate space.
const (
	UnitPoint = "pt" // PDF user space, 72 per inch
	UnitPixel = "px" // raster pixels
)

// rowTolerance groups tokens whose top edges differ by less than this into one row.
const rowTolerance = 2.0

// Rect is an axis-aligned box in top-left page coordinates.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Intersects reports whether r and o overlap with positive area. Rects that
// only share an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.X0 < o.X1 && o.X0 < r.X1 && r.Y0 < o.Y1 && o.Y0 < r.Y1
}

// Scale multiplies every coordinate by f.
func (r Rect) Scale(f float64) Rect {
	return Rect{X0: r.X0 * f, Y0: r.Y0 * f, X1: r.X1 * f, Y1: r.Y1 * f}
}

// Token is one word of a page's text layer. X,Y is the anchor, normally the
// top-left corner of the bounding box.
type Token struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Rect
	Page int `json:"page"`
}

// NewToken builds a token anchored at the top-left corner of r.
func NewToken(text string, r Rect, page int) Token {
	return Token{Text: text, X: r.X0, Y: r.Y0, Rect: r, Page: page}
}

// Page is the token stream of one page. Index is 0-based.
type Page struct {
	Index   int     `json:"index"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Unit    string  `json:"unit"`
	RawText string  `json:"raw_text"`
	Tokens  []Token `json:"tokens"`
	// Image is the raster the tokens were read from, if any.
	Image string `json:"-"`
}

// Document is every page of one drawing file, in page order.
type Document struct {
	FileName   string `json:"file_name"`
	SourcePath string `json:"-"`
	Format     string `json:"format"`
	Pages      []Page `json:"pages"`
}

// TokenCount returns the number of tokens across all pages.
func (d *Document) TokenCount() int {
	n := 0
	for i := range d.Pages {
		n += len(d.Pages[i].Tokens)
	}
	return n
}

// SortReadingOrder sorts tokens top-to-bottom, then left-to-right within a
// row. Tokens whose tops are within rowTolerance of the row's first token
// share that row.
func SortReadingOrder(toks []Token) {
	sort.SliceStable(toks, func(i, j int) bool {
		return toks[i].Rect.Y0 < toks[j].Rect.Y0
	})

	rowStart := 0
	for i := 1; i <= len(toks); i++ {
		if i < len(toks) && math.Abs(toks[i].Rect.Y0-toks[rowStart].Rect.Y0) < rowTolerance {
			continue
		}
		row := toks[rowStart:i]
		sort.SliceStable(row, func(a, b int) bool {
			return row[a].Rect.X0 < row[b].Rect.X0
		})
		rowStart = i
	}
}

// RawTextFromTokens rebuilds page text from tokens in reading order, one
// line per row.
func RawTextFromTokens(toks []Token) string {
	if len(toks) == 0 {
		return ""
	}
	sorted := make([]Token, len(toks))
	copy(sorted, toks)
	SortReadingOrder(sorted)

	var b strings.Builder
	rowY := sorted[0].Rect.Y0
	for i, t := range sorted {
		if i > 0 {
			if math.Abs(t.Rect.Y0-rowY) < rowTolerance {
				b.WriteByte(' ')
			} else {
				b.WriteByte('\n')
				rowY = t.Rect.Y0
			}
		}
		b.WriteString(t.Text)
	}
	return b.String()
}
