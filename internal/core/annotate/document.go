package annotate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/joseph-ayodele/ballooning/constants"
	"github.com/joseph-ayodele/ballooning/internal/core/dimension"
	"github.com/joseph-ayodele/ballooning/internal/core/ocr"
	"github.com/joseph-ayodele/ballooning/internal/core/tokens"
)

// Config configures document rendering.
type Config struct {
	Style    Style
	PDFToPPM string
	DPI      int
}

// PageOutcome is the rendering result of one page.
type PageOutcome struct {
	Page     int // 1-based
	Image    string
	Blank    bool // drawn on a blank canvas because no raster was available
	Outcomes []Outcome
}

// DocumentOutcome lists the written page images. Preview is page 1.
type DocumentOutcome struct {
	Pages   []PageOutcome
	Preview string
}

// Failed counts annotation requests that could not be drawn.
func (d DocumentOutcome) Failed() int {
	n := 0
	for _, p := range d.Pages {
		for _, o := range p.Outcomes {
			if o.Err != nil {
				n++
			}
		}
	}
	return n
}

// DocumentRenderer rasterises drawings and writes annotated page images.
type DocumentRenderer struct {
	cfg      Config
	renderer *Renderer
	runner   ocr.Runner
	logger   *slog.Logger
}

func NewDocumentRenderer(cfg Config, runner ocr.Runner, logger *slog.Logger) (*DocumentRenderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ocr.ExecRunner{}
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 150
	}
	r, err := NewRenderer(cfg.Style, logger)
	if err != nil {
		return nil, err
	}
	return &DocumentRenderer{cfg: cfg, renderer: r, runner: runner, logger: logger}, nil
}

// RenderDocument writes {outDir}/{base}_page{N}.png for every page of doc.
// Pages that cannot be rasterised are drawn on a white canvas of the page
// size; only I/O failures on the output directory are returned as errors.
func (d *DocumentRenderer) RenderDocument(ctx context.Context, doc *tokens.Document, reqs []dimension.AnnotationRequest, outDir, base string) (DocumentOutcome, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return DocumentOutcome{}, fmt.Errorf("create output dir: %w", err)
	}

	rasters, cleanup := d.rasters(ctx, doc)
	defer cleanup()

	byPage := make(map[int][]dimension.AnnotationRequest)
	for _, r := range reqs {
		byPage[r.Page] = append(byPage[r.Page], r)
	}

	var out DocumentOutcome
	for _, p := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		scale := d.scale(p)
		img, blank := d.openRaster(rasters[p.Index], p, scale)

		annotated, outcomes := d.renderer.RenderPage(img, p, scale, byPage[p.Index])
		path := filepath.Join(outDir, fmt.Sprintf("%s_page%d.png", base, p.Index+1))
		if err := imaging.Save(annotated, path); err != nil {
			return out, fmt.Errorf("save page %d: %w", p.Index+1, err)
		}
		out.Pages = append(out.Pages, PageOutcome{Page: p.Index + 1, Image: path, Blank: blank, Outcomes: outcomes})
		if out.Preview == "" {
			out.Preview = path
		}
	}

	d.logger.Info("annotate.document.ok",
		"file", doc.FileName,
		"pages", len(out.Pages),
		"requests", len(reqs),
		"failed", out.Failed(),
	)
	return out, nil
}

// rasters maps page index to a raster file, when one exists. cleanup
// removes any temporary rasters.
func (d *DocumentRenderer) rasters(ctx context.Context, doc *tokens.Document) (map[int]string, func()) {
	out := make(map[int]string)
	cleanup := func() {}
	switch doc.Format {
	case constants.PDF:
		dir, err := os.MkdirTemp("", "balloon-raster-*")
		if err != nil {
			d.logger.Warn("annotate.raster.tmpdir_failed", "error", err)
			return out, cleanup
		}
		cleanup = func() { _ = os.RemoveAll(dir) }
		pages, err := ocr.RasterizePDF(ctx, d.runner, d.logger, d.cfg.PDFToPPM, doc.SourcePath, d.cfg.DPI, dir, "page")
		if err != nil {
			d.logger.Warn("annotate.raster.failed", "file", doc.FileName, "error", err)
			return out, cleanup
		}
		for i, p := range pages {
			out[i] = p
		}
	default:
		for _, p := range doc.Pages {
			if p.Image != "" {
				out[p.Index] = p.Image
			} else if doc.Format == constants.IMAGE && doc.SourcePath != "" {
				out[p.Index] = doc.SourcePath
			}
		}
	}
	return out, cleanup
}

func (d *DocumentRenderer) scale(p tokens.Page) float64 {
	if p.Unit == tokens.UnitPixel {
		return 1
	}
	return float64(d.cfg.DPI) / 72
}

func (d *DocumentRenderer) openRaster(path string, p tokens.Page, scale float64) (image.Image, bool) {
	if path != "" {
		img, err := imaging.Open(path)
		if err == nil {
			return img, false
		}
		d.logger.Warn("annotate.raster.open_failed", "path", path, "error", err)
	}
	w := int(math.Ceil(p.Width * scale))
	h := int(math.Ceil(p.Height * scale))
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return imaging.New(w, h, color.White), true
}
