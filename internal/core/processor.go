package core

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ballooning/constants"
	"github.com/joseph-ayodele/ballooning/internal/common"
	"github.com/joseph-ayodele/ballooning/internal/core/annotate"
	"github.com/joseph-ayodele/ballooning/internal/core/dimension"
	"github.com/joseph-ayodele/ballooning/internal/core/ocr"
	"github.com/joseph-ayodele/ballooning/internal/core/tokens"
	"github.com/joseph-ayodele/ballooning/internal/ingest"
	"github.com/joseph-ayodele/ballooning/internal/repository"
)

// TokenExtractor turns a drawing file into positioned tokens.
type TokenExtractor interface {
	Extract(ctx context.Context, path string) (*tokens.Document, []string, error)
}

// DocumentRenderer draws balloons onto page rasters.
type DocumentRenderer interface {
	RenderDocument(ctx context.Context, doc *tokens.Document, reqs []dimension.AnnotationRequest, outDir, base string) (annotate.DocumentOutcome, error)
}

// PathIngestor registers a file and returns its document row.
type PathIngestor interface {
	IngestPath(ctx context.Context, path string) (ingest.IngestionResult, error)
}

// Summary is the outcome of processing one document.
type Summary struct {
	DocumentID uuid.UUID
	FileName   string
	Status     constants.JobStatus
	Pages      int
	Records    []dimension.Record
	Images     []string
	Preview    string
	Warnings   []string
	Elapsed    time.Duration
}

// Processor coordinates token extraction, the dimension engine, persistence
// and annotation rendering for stored documents.
type Processor struct {
	logger    *slog.Logger
	extractor TokenExtractor
	engine    *dimension.Engine
	docsRepo  repository.DocumentRepository
	dimsRepo  repository.DimensionRepository
	renderer  DocumentRenderer
	ingestor  PathIngestor
	outputDir string
}

type ProcessorOption func(*Processor)

// WithRenderer enables annotated page images under outputDir.
func WithRenderer(r DocumentRenderer, outputDir string) ProcessorOption {
	return func(p *Processor) {
		p.renderer = r
		p.outputDir = outputDir
	}
}

// WithIngestor enables ProcessFile.
func WithIngestor(i PathIngestor) ProcessorOption {
	return func(p *Processor) { p.ingestor = i }
}

func NewProcessor(
	logger *slog.Logger,
	extractor TokenExtractor,
	engine *dimension.Engine,
	docsRepo repository.DocumentRepository,
	dimsRepo repository.DimensionRepository,
	opts ...ProcessorOption,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = dimension.NewEngine()
	}
	p := &Processor{
		logger:    logger,
		extractor: extractor,
		engine:    engine,
		docsRepo:  docsRepo,
		dimsRepo:  dimsRepo,
		outputDir: "./outputs",
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessFile ingests path and processes the resulting document. Content
// seen before is processed again under its existing document id.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Summary, error) {
	if p.ingestor == nil {
		return Summary{}, fmt.Errorf("%w: processor has no ingestor", common.ErrInternal)
	}
	res, err := p.ingestor.IngestPath(ctx, path)
	if err != nil {
		p.logger.Error("processor.ingest.failed", "path", path, "err", err)
		return Summary{}, err
	}
	return p.ProcessDocument(ctx, res.DocumentID)
}

// ProcessDocument runs a stored document end to end:
// RUNNING → TOKENS_OK → DONE | NO_DIMENSIONS, or FAILED with a message.
// Rendering is best effort; its failures become warnings.
func (p *Processor) ProcessDocument(ctx context.Context, documentID uuid.UUID) (Summary, error) {
	start := time.Now()
	sum := Summary{DocumentID: documentID}

	row, err := p.docsRepo.GetByID(ctx, documentID)
	if err != nil {
		return sum, fmt.Errorf("get document: %w", err)
	}
	sum.FileName = row.FileName
	if row.Format() == "" {
		err := fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, row.FileExt)
		return p.fail(ctx, sum, err)
	}

	ctx = common.WithDocumentID(ctx, documentID.String())
	ctx = ocr.WithContentHash(ctx, hex.EncodeToString(row.ContentHash))

	if err := p.docsRepo.SetStatus(ctx, documentID, constants.JobStatusRunning); err != nil {
		return p.fail(ctx, sum, fmt.Errorf("mark running: %w", err))
	}

	doc, warnings, err := p.extractor.Extract(ctx, row.SourcePath)
	if err != nil {
		return p.fail(ctx, sum, fmt.Errorf("extract tokens: %w", err))
	}
	doc.FileName = row.FileName
	sum.Warnings = append(sum.Warnings, warnings...)
	sum.Pages = len(doc.Pages)
	p.logger.Debug("processor tokens ready",
		"document_id", documentID,
		"pages", len(doc.Pages),
		"tokens", doc.TokenCount(),
		"warnings", len(warnings),
	)

	if err := p.docsRepo.SetStatus(ctx, documentID, constants.JobStatusTokensOK); err != nil {
		return p.fail(ctx, sum, fmt.Errorf("mark tokens ok: %w", err))
	}

	result := p.engine.Process(doc)
	if err := p.dimsRepo.ReplaceForDocument(ctx, documentID, result.Records); err != nil {
		return p.fail(ctx, sum, fmt.Errorf("store dimensions: %w", err))
	}
	sum.Records = result.Records

	if result.Empty() {
		sum.Status = constants.JobStatusNoDimensions
		sum.Warnings = append(sum.Warnings, fmt.Sprintf("No dimensions detected in %s", row.FileName))
		p.logger.Warn("processor.no_dimensions", "document_id", documentID, "file", row.FileName)
	} else {
		sum.Status = constants.JobStatusDone
		p.render(ctx, doc, result, &sum)
	}

	err = p.docsRepo.FinishSuccess(ctx, documentID, repository.FinishOutcome{
		Status:      sum.Status,
		PageCount:   sum.Pages,
		Metadata:    result.Metadata,
		PreviewPath: sum.Preview,
	})
	if err != nil {
		return p.fail(ctx, sum, fmt.Errorf("finish document: %w", err))
	}

	sum.Elapsed = time.Since(start)
	p.logger.Info("processed document",
		"document_id", documentID,
		"file", row.FileName,
		"status", sum.Status,
		"dimensions", len(sum.Records),
		"elapsed_ms", sum.Elapsed.Milliseconds(),
	)
	return sum, nil
}

func (p *Processor) render(ctx context.Context, doc *tokens.Document, result dimension.Result, sum *Summary) {
	if p.renderer == nil {
		return
	}
	base := strings.TrimSuffix(doc.FileName, filepath.Ext(doc.FileName))
	out, err := p.renderer.RenderDocument(ctx, doc, result.Annotations, p.outputDir, base)
	if err != nil {
		p.logger.Warn("processor.render.failed", "document_id", common.DocumentIDFromContext(ctx), "err", err)
		sum.Warnings = append(sum.Warnings, fmt.Sprintf("annotation rendering failed: %v", err))
	}
	for _, page := range out.Pages {
		sum.Images = append(sum.Images, page.Image)
		for _, o := range page.Outcomes {
			if o.Err != nil {
				sum.Warnings = append(sum.Warnings, fmt.Sprintf("balloon %d on page %d: %v", o.Sequence, page.Page, o.Err))
			}
		}
	}
	sum.Preview = out.Preview
}

// fail marks the document FAILED and returns err. A failure to record the
// failure is joined to err.
func (p *Processor) fail(ctx context.Context, sum Summary, err error) (Summary, error) {
	sum.Status = constants.JobStatusFailed
	p.logger.Error("processor.failed",
		"document_id", sum.DocumentID,
		"request_id", common.RequestIDFromContext(ctx),
		"err", err)
	if ferr := p.docsRepo.FinishFailure(ctx, sum.DocumentID, err.Error()); ferr != nil {
		return sum, errors.Join(err, ferr)
	}
	return sum, err
}
