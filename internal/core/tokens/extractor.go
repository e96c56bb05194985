package tokens

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/ballooning/constants"
	"github.com/joseph-ayodele/ballooning/internal/common"
	"github.com/joseph-ayodele/ballooning/internal/core/ocr"
)

// Source produces the token stream of one drawing file.
type Source interface {
	Read(ctx context.Context, path string) (*Document, []string, error)
}

// Config configures the built-in sources.
type Config struct {
	HeicConverter    string // heif-convert | magick | sips
	ArtifactCacheDir string
}

// Extractor picks a Source from the file extension.
type Extractor struct {
	cfg    Config
	pdf    Source
	image  Source
	dump   Source
	runner ocr.Runner
	logger *slog.Logger
}

type ExtractorOption func(*Extractor)

func WithPDFSource(s Source) ExtractorOption   { return func(e *Extractor) { e.pdf = s } }
func WithImageSource(s Source) ExtractorOption { return func(e *Extractor) { e.image = s } }
func WithRunner(r ocr.Runner) ExtractorOption  { return func(e *Extractor) { e.runner = r } }

func NewExtractor(cfg Config, logger *slog.Logger, opts ...ExtractorOption) (*Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HeicConverter == "" {
		cfg.HeicConverter = "magick"
	}
	dump, err := NewJSONSource()
	if err != nil {
		return nil, err
	}
	e := &Extractor{
		cfg:    cfg,
		pdf:    NewPDFSource(logger),
		dump:   dump,
		runner: ocr.ExecRunner{},
		logger: logger,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Extract reads the drawing at path. HEIC photos are converted to PNG first;
// the OCR'd page then points at the converted raster.
func (e *Extractor) Extract(ctx context.Context, path string) (*Document, []string, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	format := constants.MapExtToFormat(ext)
	e.logger.Debug("tokens.extract.start", "path", path, "ext", ext, "format", format)

	var (
		doc   *Document
		warns []string
		err   error
	)
	switch format {
	case constants.PDF:
		doc, warns, err = e.pdf.Read(ctx, path)
	case constants.IMAGE:
		if e.image == nil {
			return nil, nil, fmt.Errorf("%w: no OCR source configured for %q", common.ErrUnsupportedFormat, ext)
		}
		src, temporary := path, false
		if constants.IsHEICExt(ext) {
			hash, _ := ocr.ContentHashFromContext(ctx)
			out, cleanup, cerr := ocr.ConvertHEIC(ctx, e.runner, e.logger, e.cfg.HeicConverter, path, e.cfg.ArtifactCacheDir, hash)
			if cerr != nil {
				return nil, nil, fmt.Errorf("convert heic: %w", cerr)
			}
			if cleanup != nil {
				temporary = true
				defer cleanup()
			}
			src = out
		}
		doc, warns, err = e.image.Read(ctx, src)
		if err == nil && src != path {
			doc.FileName = filepath.Base(path)
			doc.SourcePath = path
			if temporary {
				// removed on return; the renderer falls back to a blank canvas
				for i := range doc.Pages {
					doc.Pages[i].Image = ""
				}
			}
		}
	case constants.TOKENS:
		doc, warns, err = e.dump.Read(ctx, path)
	default:
		return nil, nil, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}
	if err != nil {
		e.logger.Error("tokens.extract.failed", "path", path, "format", format, "error", err)
		return nil, warns, err
	}

	e.logger.Info("tokens.extract.ok",
		"path", path,
		"format", format,
		"pages", len(doc.Pages),
		"tokens", doc.TokenCount(),
		"warnings", len(warns),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, warns, nil
}
