package dimension

import (
	"strings"

	"github.com/joseph-ayodele/ballooning/constants"
	"github.com/joseph-ayodele/ballooning/internal/core/tokens"
)

// AnnotationRequest asks the renderer to highlight every occurrence of Text
// on a page and draw balloon Sequence near the anchor.
type AnnotationRequest struct {
	Page     int // 0-based
	Text     string
	X, Y     float64
	Rect     tokens.Rect
	Sequence int
}

// Detection is one accepted callout before document metadata is known.
type Detection struct {
	Page           int // 0-based
	Sequence       int
	Classification Classification
	Resolution     Resolution
	Rect           tokens.Rect
}

// Engine holds the matcher list. It has no per-document state and can be
// shared; each document gets its own DocumentContext.
type Engine struct {
	matchers []Matcher
}

func NewEngine(matchers ...Matcher) *Engine {
	if len(matchers) == 0 {
		matchers = DefaultMatchers
	}
	return &Engine{matchers: matchers}
}

// DocumentContext carries the state of one document's pass: the next balloon
// number, the rectangles accepted on the current page and the metadata found
// so far. It is not safe for concurrent use.
type DocumentContext struct {
	engine      *Engine
	fileName    string
	next        int
	pages       int
	tracker     Tracker
	metadata    Metadata
	detections  []Detection
	annotations []AnnotationRequest
}

// NewDocument starts a pass over the named document. Balloon numbers start at 1.
func (e *Engine) NewDocument(fileName string) *DocumentContext {
	return &DocumentContext{engine: e, fileName: fileName, next: 1}
}

// nextSequence hands out balloon numbers 1, 2, 3, ... across all pages.
func (dc *DocumentContext) nextSequence() int {
	n := dc.next
	dc.next++
	return n
}

// ProcessPage runs one page through the pipeline and returns the detections
// accepted on it. Pages must be fed in document order.
func (dc *DocumentContext) ProcessPage(p tokens.Page) []Detection {
	dc.pages++
	dc.tracker.Reset()
	dc.metadata.Merge(p.RawText)

	var idx *neighborIndex
	first := len(dc.detections)
	for i, tok := range p.Tokens {
		if !InWorkingArea(tok.Y, p.Height) {
			continue
		}
		c, ok := Classify(dc.engine.matchers, strings.TrimSpace(tok.Text))
		if !ok {
			continue
		}
		if !dc.tracker.Accept(tok.Rect) {
			continue
		}

		var res Resolution
		if c.Kind == constants.TappedHole {
			res = Resolution{Display: NoValue, Source: SourceNotNeeded}
		} else {
			if idx == nil {
				idx = newNeighborIndex(p.Tokens)
			}
			res = Resolve(c, idx.near(i))
		}

		seq := dc.nextSequence()
		dc.detections = append(dc.detections, Detection{
			Page:           p.Index,
			Sequence:       seq,
			Classification: c,
			Resolution:     res,
			Rect:           tok.Rect,
		})
		dc.annotations = append(dc.annotations, AnnotationRequest{
			Page:     p.Index,
			Text:     c.Raw,
			X:        tok.X,
			Y:        tok.Y,
			Rect:     tok.Rect,
			Sequence: seq,
		})
	}
	return dc.detections[first:len(dc.detections):len(dc.detections)]
}

// Finish builds the document's records, each carrying the metadata gathered
// from every page.
func (dc *DocumentContext) Finish() Result {
	records := make([]Record, 0, len(dc.detections))
	for _, d := range dc.detections {
		records = append(records, newRecord(dc.fileName, d, dc.metadata))
	}
	return Result{
		FileName:    dc.fileName,
		Pages:       dc.pages,
		Metadata:    dc.metadata,
		Records:     records,
		Annotations: append([]AnnotationRequest(nil), dc.annotations...),
	}
}

// Process runs every page of doc through a fresh DocumentContext.
func (e *Engine) Process(doc *tokens.Document) Result {
	dc := e.NewDocument(doc.FileName)
	for _, p := range doc.Pages {
		dc.ProcessPage(p)
	}
	return dc.Finish()
}
