// Package tesseract reads positioned words from scanned drawings.
//
// Recognition needs cgo and the Tesseract/Leptonica libraries on Linux;
// other builds get a Source whose Read returns ErrUnavailable.
package tesseract

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/joseph-ayodele/ballooning/constants"
	"github.com/joseph-ayodele/ballooning/internal/core/ocr"
	"github.com/joseph-ayodele/ballooning/internal/core/tokens"
)

// ErrUnavailable is returned when the binary was built without Tesseract.
var ErrUnavailable = errors.New("tesseract OCR not available in this build")

// Config configures Tesseract for scanned drawings.
type Config struct {
	Lang        string // default "eng"
	TessdataDir string
	// MinConfidence drops words Tesseract is less sure of (0-100).
	MinConfidence float64
}

// word is one recognised word in pixel coordinates.
type word struct {
	Text       string
	Confidence float64
	Box        image.Rectangle
}

// Source implements tokens.Source for raster drawings.
type Source struct {
	cfg    Config
	logger *slog.Logger
}

var _ tokens.Source = (*Source)(nil)

func NewSource(cfg Config, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	return &Source{cfg: cfg, logger: logger}
}

// Read OCRs a single-page image. Coordinates are pixels.
func (s *Source) Read(ctx context.Context, path string) (*tokens.Document, []string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open image: %w", err)
	}
	b := img.Bounds()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	words, raw, warnings, err := recognize(path, s.cfg)
	if err != nil {
		return nil, nil, err
	}

	p := tokens.Page{
		Index:  0,
		Width:  float64(b.Dx()),
		Height: float64(b.Dy()),
		Unit:   tokens.UnitPixel,
		Image:  path,
		Tokens: tokensFromWords(words, s.cfg.MinConfidence, 0),
	}
	tokens.SortReadingOrder(p.Tokens)
	if raw != "" {
		p.RawText = ocr.Normalize(raw)
	} else {
		p.RawText = tokens.RawTextFromTokens(p.Tokens)
	}

	s.logger.Debug("image.ocr.ok", "path", path, "words", len(words), "tokens", len(p.Tokens))
	return &tokens.Document{
		FileName:   filepath.Base(path),
		SourcePath: path,
		Format:     constants.IMAGE,
		Pages:      []tokens.Page{p},
	}, warnings, nil
}

func tokensFromWords(words []word, minConfidence float64, page int) []tokens.Token {
	out := make([]tokens.Token, 0, len(words))
	for _, w := range words {
		txt := ocr.NormalizeGlyphs(strings.TrimSpace(w.Text))
		if txt == "" || w.Confidence < minConfidence {
			continue
		}
		r := tokens.Rect{
			X0: float64(w.Box.Min.X),
			Y0: float64(w.Box.Min.Y),
			X1: float64(w.Box.Max.X),
			Y1: float64(w.Box.Max.Y),
		}
		out = append(out, tokens.NewToken(txt, r, page))
	}
	return out
}
