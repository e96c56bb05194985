package tokens

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/text"

	"github.com/joseph-ayodele/ballooning/constants"
)

const (
	// share of the font size above the baseline
	ascent = 0.8
	// share of the font size below the baseline
	descent = 0.2
	// fragments on one baseline closer than this share of the font size are joined
	joinGap = 0.15
)

// PDFSource reads the text layer of vector PDF drawings.
type PDFSource struct {
	logger *slog.Logger
}

func NewPDFSource(logger *slog.Logger) *PDFSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFSource{logger: logger}
}

// Read returns one Page per PDF page, coordinates in points with a top-left origin.
// A page whose text cannot be extracted is kept empty and reported as a warning.
func (s *PDFSource) Read(ctx context.Context, path string) (*Document, []string, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open pdf: %w", err)
	}
	defer r.Close()

	n, err := r.PageCount()
	if err != nil {
		return nil, nil, fmt.Errorf("count pdf pages: %w", err)
	}

	doc := &Document{
		FileName:   filepath.Base(path),
		SourcePath: path,
		Format:     constants.PDF,
		Pages:      make([]Page, 0, n),
	}
	var warnings []string
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, warnings, err
		}
		pg, err := r.GetPage(i)
		if err != nil {
			return nil, warnings, fmt.Errorf("get pdf page %d: %w", i+1, err)
		}
		box, err := pg.MediaBox()
		if err != nil || len(box) < 4 {
			return nil, warnings, fmt.Errorf("pdf page %d has no media box", i+1)
		}
		p := Page{
			Index:  i,
			Width:  box[2] - box[0],
			Height: box[3] - box[1],
			Unit:   UnitPoint,
		}

		frags, err := r.ExtractTextFragments(pg)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: text extraction failed: %v", i+1, err))
			s.logger.Warn("pdf.page.text_failed", "path", path, "page", i+1, "error", err)
			doc.Pages = append(doc.Pages, p)
			continue
		}
		p.Tokens = wordsFromFragments(frags, box[0], box[3], i)
		SortReadingOrder(p.Tokens)
		p.RawText = RawTextFromTokens(p.Tokens)
		doc.Pages = append(doc.Pages, p)

		s.logger.Debug("pdf.page.ok", "path", path, "page", i+1, "fragments", len(frags), "tokens", len(p.Tokens))
	}
	return doc, warnings, nil
}

// wordsFromFragments joins touching fragments on a baseline into runs, then
// splits runs on whitespace into words. Word widths are apportioned by rune
// count. originX and top are the media box's left and top edges in PDF space.
func wordsFromFragments(frags []text.TextFragment, originX, top float64, page int) []Token {
	runs := joinFragments(frags)

	var out []Token
	for _, f := range runs {
		runes := utf8.RuneCountInString(f.Text)
		if runes == 0 {
			continue
		}
		perRune := f.Width / float64(runes)
		size := f.FontSize
		if size <= 0 {
			size = f.Height
		}
		y0 := top - (f.Y + size*ascent)
		y1 := top - (f.Y - size*descent)

		for _, w := range splitWords(f.Text) {
			x0 := f.X - originX + float64(w.start)*perRune
			x1 := x0 + float64(w.runes)*perRune
			out = append(out, NewToken(w.text, Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}, page))
		}
	}
	return out
}

// joinFragments merges fragments that continue each other on the same baseline.
func joinFragments(frags []text.TextFragment) []text.TextFragment {
	if len(frags) == 0 {
		return nil
	}
	sorted := make([]text.TextFragment, len(frags))
	copy(sorted, frags)
	// PDF y grows upward, so higher lines come first
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y-sorted[j].Y) > 0.5 {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	out := []text.TextFragment{sorted[0]}
	for _, f := range sorted[1:] {
		last := &out[len(out)-1]
		gap := f.X - (last.X + last.Width)
		size := math.Max(last.FontSize, f.FontSize)
		if math.Abs(f.Y-last.Y) <= 0.5 && gap >= -size*joinGap && gap < size*joinGap {
			last.Text += f.Text
			last.Width = f.X + f.Width - last.X
			continue
		}
		out = append(out, f)
	}
	return out
}

type word struct {
	text  string
	start int // rune offset in the run
	runes int
}

func splitWords(s string) []word {
	var words []word
	var cur []rune
	start, i := 0, 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			if len(cur) > 0 {
				words = append(words, word{text: string(cur), start: start, runes: len(cur)})
				cur = cur[:0]
			}
		} else {
			if len(cur) == 0 {
				start = i
			}
			cur = append(cur, r)
		}
		i++
	}
	if len(cur) > 0 {
		words = append(words, word{text: string(cur), start: start, runes: len(cur)})
	}
	return words
}
