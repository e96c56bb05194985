package server

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/ballooning/internal/common"
	"github.com/joseph-ayodele/ballooning/internal/core"
	"github.com/joseph-ayodele/ballooning/internal/core/async"
	"github.com/joseph-ayodele/ballooning/internal/core/dimension"
	"github.com/joseph-ayodele/ballooning/internal/entity"
	"github.com/joseph-ayodele/ballooning/internal/export"
	"github.com/joseph-ayodele/ballooning/internal/ingest"
	"github.com/joseph-ayodele/ballooning/internal/repository"
)

// DrawingProcessor processes one file synchronously.
type DrawingProcessor interface {
	ProcessFile(ctx context.Context, path string) (core.Summary, error)
}

// Enqueuer hands documents to the background workers.
type Enqueuer interface {
	Enqueue(ctx context.Context, job async.Job) error
}

type BallooningService struct {
	processor DrawingProcessor
	ingestor  ingest.Ingestor
	queue     Enqueuer
	docsRepo  repository.DocumentRepository
	dimsRepo  repository.DimensionRepository
	exporter  *export.Service
	layout    string
	validator *validator
	logger    *slog.Logger
}

// Deps bundles the collaborators of the service.
type Deps struct {
	Processor     DrawingProcessor
	Ingestor      ingest.Ingestor
	Queue         Enqueuer
	Documents     repository.DocumentRepository
	Dimensions    repository.DimensionRepository
	Exporter      *export.Service
	DefaultLayout string
}

func NewBallooningService(deps Deps, logger *slog.Logger) (*BallooningService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	v, err := newValidator()
	if err != nil {
		return nil, err
	}
	if deps.DefaultLayout == "" {
		deps.DefaultLayout = export.LayoutExtended
	}
	return &BallooningService{
		processor: deps.Processor,
		ingestor:  deps.Ingestor,
		queue:     deps.Queue,
		docsRepo:  deps.Documents,
		dimsRepo:  deps.Dimensions,
		exporter:  deps.Exporter,
		layout:    deps.DefaultLayout,
		validator: v,
		logger:    logger,
	}, nil
}

// ProcessDrawing ingests and processes one drawing synchronously. A
// processing failure is reported in the response with status FAILED.
func (s *BallooningService) ProcessDrawing(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	m, err := s.validator.check("process_drawing", req)
	if err != nil {
		return nil, err
	}
	path := stringField(m, "path")
	v := common.NewValidator().Field("path", path, common.Required, common.ExistingPath)
	if err := common.ValidateAndReturnError(v); err != nil {
		s.logger.Error("process drawing request invalid", "path", path, "error", err)
		return nil, err
	}

	s.logger.Info("starting drawing processing", "path", path)
	sum, err := s.processor.ProcessFile(ctx, path)
	if err != nil && sum.DocumentID == uuid.Nil {
		s.logger.Error("process drawing failed", "path", path, "error", err)
		return nil, common.ToStatus(err)
	}

	resp := map[string]any{
		"document_id": sum.DocumentID.String(),
		"file_name":   sum.FileName,
		"status":      string(sum.Status),
		"pages":       sum.Pages,
		"dimensions":  len(sum.Records),
		"preview":     sum.Preview,
		"warning":     strings.Join(sum.Warnings, "; "),
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	return toStruct(resp)
}

// IngestDirectory registers every drawing under root and queues it for
// background processing.
func (s *BallooningService) IngestDirectory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	m, err := s.validator.check("ingest_directory", req)
	if err != nil {
		return nil, err
	}
	root := stringField(m, "root")
	skipHidden := true
	if b, ok := m["skip_hidden"].(bool); ok {
		skipHidden = b
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		s.logger.Error("ingest directory root invalid", "root", root, "error", err)
		return nil, common.InvalidArgumentErrorf("root %q is not a readable directory", root)
	}

	s.logger.Info("starting directory ingest", "root", root, "skip_hidden", skipHidden)
	results, stats, err := s.ingestor.IngestDirectory(ctx, root, skipHidden)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "ingest directory: %v", err)
	}

	items := make([]any, 0, len(results))
	queued := 0
	for _, r := range results {
		item := map[string]any{
			"path":         r.SourcePath,
			"deduplicated": r.Deduplicated,
			"error":        r.Err,
			"queued":       false,
		}
		if r.Deduplicated {
			item["stored_path"] = r.StoredPath
		}
		if r.Err == "" {
			item["document_id"] = r.DocumentID.String()
			if err := s.queue.Enqueue(ctx, async.Job{DocumentID: r.DocumentID}); err != nil {
				s.logger.Error("enqueue failed", "document_id", r.DocumentID, "error", err)
				item["error"] = err.Error()
			} else {
				item["queued"] = true
				queued++
			}
		}
		items = append(items, item)
	}
	s.logger.Info("directory ingest completed",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
		"queued", queued,
	)

	return toStruct(map[string]any{
		"scanned":      stats.Scanned,
		"matched":      stats.Matched,
		"succeeded":    stats.Succeeded,
		"deduplicated": stats.Deduplicated,
		"failed":       stats.Failed,
		"queued":       queued,
		"results":      items,
	})
}

func (s *BallooningService) ListDimensions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	m, err := s.validator.check("list_dimensions", req)
	if err != nil {
		return nil, err
	}
	raw := stringField(m, "document_id")
	if err := common.ValidateAndReturnError(common.NewValidator().Field("document_id", raw, common.Required, common.UUID)); err != nil {
		return nil, err
	}
	id := uuid.MustParse(raw)

	doc, err := s.docsRepo.GetByID(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	dims, err := s.dimsRepo.ListByDocument(ctx, id)
	if err != nil {
		s.logger.Error("list dimensions failed", "document_id", id, "error", err)
		return nil, common.InternalError("list dimensions failed")
	}

	records := make([]any, 0, len(dims))
	for _, d := range dims {
		records = append(records, recordMap(d.Record(doc)))
	}
	return toStruct(map[string]any{
		"document_id": doc.ID.String(),
		"file_name":   doc.FileName,
		"status":      string(doc.Status),
		"complete":    doc.Status.Terminal(),
		"pages":       doc.PageCount,
		"metadata":    metadataMap(doc),
		"records":     records,
	})
}

func (s *BallooningService) ExportDimensions(ctx context.Context, req *structpb.Struct) (*wrapperspb.BytesValue, error) {
	m, err := s.validator.check("export_dimensions", req)
	if err != nil {
		return nil, err
	}
	rawIDs := stringsField(m, "document_ids")
	layout := stringField(m, "layout")
	if layout == "" {
		layout = s.layout
	}
	v := common.NewValidator().
		Field("document_ids", rawIDs, common.Required, common.UUID).
		Field("layout", layout, common.OneOf(export.LayoutBasic, export.LayoutExtended))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, r := range rawIDs {
		ids = append(ids, uuid.MustParse(r))
	}
	b, err := s.exporter.ExportDocumentsXLSX(ctx, ids, layout)
	if err != nil {
		s.logger.Error("export failed", "documents", len(ids), "error", err)
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFoundError(err.Error())
		}
		return nil, common.InternalError("export failed")
	}
	return wrapperspb.Bytes(b), nil
}

func limitValue(l dimension.Limit) any {
	if !l.Valid {
		return dimension.NoValue
	}
	return l.Rounded()
}

func recordMap(r dimension.Record) map[string]any {
	return map[string]any{
		"page":             r.Page,
		"kind":             string(r.Kind),
		"dimension_type":   r.Kind.DisplayName(),
		"balloon_number":   r.Sequence,
		"nominal":          r.Nominal,
		"nominal_value":    r.NominalValue,
		"tolerance":        r.Tolerance,
		"tolerance_source": string(r.ToleranceSource),
		"upper_limit":      limitValue(r.Upper),
		"lower_limit":      limitValue(r.Lower),
	}
}

func metadataMap(doc *entity.Document) map[string]any {
	return map[string]any{
		"part_number":     doc.Metadata.PartNumber,
		"part_name":       doc.Metadata.PartName,
		"material":        doc.Metadata.Material,
		"heat_treatment":  doc.Metadata.HeatTreatment,
		"surface_coating": doc.Metadata.SurfaceCoating,
	}
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return st, nil
}
