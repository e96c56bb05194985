package dimension

import (
	"math"
	"sort"
	"strings"

	"github.com/tidwall/rtree"

	"github.com/joseph-ayodele/ballooning/internal/core/tokens"
)

// Tracker remembers the rectangles accepted on one page and rejects any
// candidate that overlaps one of them.
type Tracker struct {
	accepted rtree.RTreeG[tokens.Rect]
}

// Accept records r and returns true unless r overlaps, with positive area,
// a rectangle accepted earlier.
func (t *Tracker) Accept(r tokens.Rect) bool {
	if t.Overlaps(r) {
		return false
	}
	t.accepted.Insert([2]float64{r.X0, r.Y0}, [2]float64{r.X1, r.Y1}, r)
	return true
}

// Overlaps reports whether r intersects an accepted rectangle without recording it.
func (t *Tracker) Overlaps(r tokens.Rect) bool {
	hit := false
	// the tree's search also returns boxes that only touch r
	t.accepted.Search([2]float64{r.X0, r.Y0}, [2]float64{r.X1, r.Y1}, func(_, _ [2]float64, prev tokens.Rect) bool {
		if prev.Intersects(r) {
			hit = true
			return false
		}
		return true
	})
	return hit
}

// Len returns the number of accepted rectangles.
func (t *Tracker) Len() int { return t.accepted.Len() }

// Reset forgets every accepted rectangle.
func (t *Tracker) Reset() { t.accepted.Clear() }

// neighborIndex finds the tokens of a page whose anchors lie near a point.
type neighborIndex struct {
	toks []tokens.Token
	tree rtree.RTreeG[int]
}

func newNeighborIndex(toks []tokens.Token) *neighborIndex {
	idx := &neighborIndex{toks: toks}
	for i, t := range toks {
		p := [2]float64{t.X, t.Y}
		idx.tree.Insert(p, p, i)
	}
	return idx
}

// near returns, in page order, the texts of tokens other than self whose
// anchors are strictly within NeighborDX/NeighborDY of self's anchor.
// Tokens with the same text as self are skipped as well.
func (n *neighborIndex) near(self int) []string {
	x, y := n.toks[self].X, n.toks[self].Y
	own := strings.TrimSpace(n.toks[self].Text)

	var hits []int
	n.tree.Search(
		[2]float64{x - NeighborDX, y - NeighborDY},
		[2]float64{x + NeighborDX, y + NeighborDY},
		func(_, _ [2]float64, i int) bool {
			t := n.toks[i]
			if i != self && math.Abs(t.X-x) < NeighborDX && math.Abs(t.Y-y) < NeighborDY {
				hits = append(hits, i)
			}
			return true
		},
	)
	sort.Ints(hits)

	texts := make([]string, 0, len(hits))
	for _, i := range hits {
		txt := strings.TrimSpace(n.toks[i].Text)
		if txt == own {
			continue
		}
		texts = append(texts, txt)
	}
	return texts
}
