package tokens

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRectIntersects(t *testing.T) {
	base := Rect{X0: 10, Y0: 10, X1: 20, Y1: 20}
	tests := []struct {
		name string
		o    Rect
		want bool
	}{
		{"same", base, true},
		{"overlap corner", Rect{X0: 15, Y0: 15, X1: 25, Y1: 25}, true},
		{"contained", Rect{X0: 12, Y0: 12, X1: 14, Y1: 14}, true},
		{"shared edge", Rect{X0: 20, Y0: 10, X1: 30, Y1: 20}, false},
		{"shared corner", Rect{X0: 20, Y0: 20, X1: 30, Y1: 30}, false},
		{"apart", Rect{X0: 40, Y0: 40, X1: 50, Y1: 50}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Intersects(tt.o); got != tt.want {
				t.Errorf("Intersects: got %v, want %v", got, tt.want)
			}
			if got := tt.o.Intersects(base); got != tt.want {
				t.Errorf("Intersects (swapped): got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortReadingOrder(t *testing.T) {
	tok := func(s string, x, y float64) Token {
		return NewToken(s, Rect{X0: x, Y0: y, X1: x + 10, Y1: y + 8}, 0)
	}
	toks := []Token{
		tok("c", 5, 40),
		tok("b", 50, 10.5),
		tok("a", 5, 10),
		tok("d", 60, 39),
	}
	SortReadingOrder(toks)

	var got []string
	for _, t := range toks {
		got = append(got, t.Text)
	}
	if d := cmp.Diff([]string{"a", "b", "c", "d"}, got); d != "" {
		t.Errorf("order (-want +got):\n%s", d)
	}
}

func TestRawTextFromTokens(t *testing.T) {
	toks := []Token{
		NewToken("Steel", Rect{X0: 60, Y0: 100, X1: 90, Y1: 110}, 0),
		NewToken("Material:", Rect{X0: 10, Y0: 100.5, X1: 55, Y1: 110}, 0),
		NewToken("Part", Rect{X0: 10, Y0: 80, X1: 30, Y1: 90}, 0),
		NewToken("No:", Rect{X0: 32, Y0: 80, X1: 50, Y1: 90}, 0),
	}
	want := "Part No:\nMaterial: Steel"
	if got := RawTextFromTokens(toks); got != want {
		t.Errorf("RawTextFromTokens: got %q, want %q", got, want)
	}
	if toks[0].Text != "Steel" {
		t.Error("RawTextFromTokens must not reorder its input")
	}
}

func TestNewTokenAnchorsTopLeft(t *testing.T) {
	got := NewToken("12", Rect{X0: 3, Y0: 4, X1: 9, Y1: 12}, 2)
	if got.X != 3 || got.Y != 4 || got.Page != 2 {
		t.Errorf("token: got %+v", got)
	}
	if got.Width() != 6 || got.Height() != 8 {
		t.Errorf("size: got %vx%v", got.Width(), got.Height())
	}
}
