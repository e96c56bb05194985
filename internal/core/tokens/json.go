package tokens

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/ballooning/constants"
)

const dumpSchemaURL = "ballooning://schemas/token-dump.json"

const dumpSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["pages"],
  "properties": {
    "file_name": {"type": "string"},
    "format": {"type": "string"},
    "pages": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["index", "height", "tokens"],
        "properties": {
          "index": {"type": "integer", "minimum": 0},
          "width": {"type": "number", "minimum": 0},
          "height": {"type": "number", "exclusiveMinimum": 0},
          "unit": {"enum": ["pt", "px"]},
          "raw_text": {"type": "string"},
          "tokens": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["text", "x0", "y0", "x1", "y1"],
              "properties": {
                "text": {"type": "string"},
                "x": {"type": "number"},
                "y": {"type": "number"},
                "x0": {"type": "number"},
                "y0": {"type": "number"},
                "x1": {"type": "number"},
                "y1": {"type": "number"},
                "page": {"type": "integer", "minimum": 0}
              }
            }
          }
        }
      }
    }
  }
}`

type dumpToken struct {
	Text string   `json:"text"`
	X    *float64 `json:"x,omitempty"`
	Y    *float64 `json:"y,omitempty"`
	X0   float64  `json:"x0"`
	Y0   float64  `json:"y0"`
	X1   float64  `json:"x1"`
	Y1   float64  `json:"y1"`
}

type dumpPage struct {
	Index   int         `json:"index"`
	Width   float64     `json:"width"`
	Height  float64     `json:"height"`
	Unit    string      `json:"unit"`
	RawText string      `json:"raw_text"`
	Tokens  []dumpToken `json:"tokens"`
}

type dumpDocument struct {
	FileName string     `json:"file_name"`
	Format   string     `json:"format"`
	Pages    []dumpPage `json:"pages"`
}

// JSONSource reads token dumps: pages of positioned words produced by
// another text-extraction tool, or by WriteJSON.
type JSONSource struct {
	schema *jsonschema.Schema
}

// NewJSONSource compiles the dump schema.
func NewJSONSource() (*JSONSource, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(dumpSchemaURL, strings.NewReader(dumpSchema)); err != nil {
		return nil, fmt.Errorf("add token dump schema: %w", err)
	}
	sch, err := c.Compile(dumpSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile token dump schema: %w", err)
	}
	return &JSONSource{schema: sch}, nil
}

// Read loads the dump at path.
func (s *JSONSource) Read(_ context.Context, path string) (*Document, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open token dump: %w", err)
	}
	defer f.Close()

	doc, err := s.Decode(f)
	if err != nil {
		return nil, nil, err
	}
	if doc.FileName == "" {
		doc.FileName = filepath.Base(path)
	}
	doc.SourcePath = path
	return doc, nil, nil
}

// Decode validates r against the dump schema and converts it to a Document.
// Token order within a page is kept as given. A missing x/y anchor defaults
// to the box's top-left corner and a missing raw_text is rebuilt from tokens.
func (s *JSONSource) Decode(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read token dump: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parse token dump: %w", err)
	}
	if err := s.schema.Validate(v); err != nil {
		return nil, fmt.Errorf("invalid token dump: %w", err)
	}

	var dd dumpDocument
	if err := json.Unmarshal(raw, &dd); err != nil {
		return nil, fmt.Errorf("decode token dump: %w", err)
	}

	doc := &Document{FileName: dd.FileName, Format: dd.Format, Pages: make([]Page, 0, len(dd.Pages))}
	if doc.Format == "" {
		doc.Format = constants.TOKENS
	}
	for _, dp := range dd.Pages {
		p := Page{
			Index:   dp.Index,
			Width:   dp.Width,
			Height:  dp.Height,
			Unit:    dp.Unit,
			RawText: dp.RawText,
			Tokens:  make([]Token, 0, len(dp.Tokens)),
		}
		if p.Unit == "" {
			p.Unit = UnitPoint
		}
		for _, dt := range dp.Tokens {
			t := NewToken(dt.Text, Rect{X0: dt.X0, Y0: dt.Y0, X1: dt.X1, Y1: dt.Y1}, dp.Index)
			if dt.X != nil {
				t.X = *dt.X
			}
			if dt.Y != nil {
				t.Y = *dt.Y
			}
			p.Tokens = append(p.Tokens, t)
		}
		if p.RawText == "" {
			p.RawText = RawTextFromTokens(p.Tokens)
		}
		doc.Pages = append(doc.Pages, p)
	}
	return doc, nil
}

// WriteJSON writes doc in the dump format read by JSONSource.
func WriteJSON(w io.Writer, doc *Document) error {
	dd := dumpDocument{FileName: doc.FileName, Format: doc.Format, Pages: make([]dumpPage, 0, len(doc.Pages))}
	for _, p := range doc.Pages {
		dp := dumpPage{
			Index:   p.Index,
			Width:   p.Width,
			Height:  p.Height,
			Unit:    p.Unit,
			RawText: p.RawText,
			Tokens:  make([]dumpToken, 0, len(p.Tokens)),
		}
		for _, t := range p.Tokens {
			x, y := t.X, t.Y
			dp.Tokens = append(dp.Tokens, dumpToken{
				Text: t.Text, X: &x, Y: &y,
				X0: t.Rect.X0, Y0: t.Rect.Y0, X1: t.Rect.X1, Y1: t.Rect.Y1,
			})
		}
		dd.Pages = append(dd.Pages, dp)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(dd)
}
