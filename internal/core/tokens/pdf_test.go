package tokens

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tsawler/tabula/text"
)

func TestWordsFromFragments(t *testing.T) {
	frags := []text.TextFragment{
		{Text: "⌀14 ±0.05", X: 100, Y: 500, Width: 90, Height: 10, FontSize: 10},
	}
	got := wordsFromFragments(frags, 0, 600, 3)
	want := []Token{
		NewToken("⌀14", Rect{X0: 100, Y0: 92, X1: 130, Y1: 102}, 3),
		NewToken("±0.05", Rect{X0: 140, Y0: 92, X1: 190, Y1: 102}, 3),
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("words (-want +got):\n%s", d)
	}
}

func TestWordsFromFragmentsOffsetMediaBox(t *testing.T) {
	frags := []text.TextFragment{{Text: "M6", X: 60, Y: 90, Width: 20, FontSize: 10}}
	got := wordsFromFragments(frags, 50, 200, 0)
	want := []Token{NewToken("M6", Rect{X0: 10, Y0: 102, X1: 30, Y1: 112}, 0)}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("words (-want +got):\n%s", d)
	}
}

func TestJoinFragments(t *testing.T) {
	frags := []text.TextFragment{
		{Text: "14", X: 110, Y: 500, Width: 20, FontSize: 10},
		{Text: "⌀", X: 100, Y: 500, Width: 10, FontSize: 10},
		{Text: "Title", X: 100, Y: 100, Width: 25, FontSize: 10},
		{Text: "far", X: 200, Y: 500, Width: 15, FontSize: 10},
	}
	got := joinFragments(frags)

	var texts []string
	for _, f := range got {
		texts = append(texts, f.Text)
	}
	if d := cmp.Diff([]string{"⌀14", "far", "Title"}, texts); d != "" {
		t.Errorf("runs (-want +got):\n%s", d)
	}
	if got[0].Width != 30 {
		t.Errorf("joined width: got %v, want 30", got[0].Width)
	}
}

func TestSplitWords(t *testing.T) {
	got := splitWords("  25  -0.1\t")
	want := []word{{text: "25", start: 2, runes: 2}, {text: "-0.1", start: 6, runes: 4}}
	if d := cmp.Diff(want, got, cmp.AllowUnexported(word{})); d != "" {
		t.Errorf("splitWords (-want +got):\n%s", d)
	}
	if got := splitWords("   "); len(got) != 0 {
		t.Errorf("blank: got %v", got)
	}
}
