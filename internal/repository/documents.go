package repository

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/ballooning/constants"
	"github.com/joseph-ayodele/ballooning/internal/common"
	"github.com/joseph-ayodele/ballooning/internal/core/dimension"
	"github.com/joseph-ayodele/ballooning/internal/entity"
)

type DocumentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetByHash(ctx context.Context, hash []byte) (*entity.Document, error)
	UpsertByHash(ctx context.Context, in NewDocument) (*entity.Document, bool, error)
	List(ctx context.Context, opts ListOptions) ([]*entity.Document, error)
	SetStatus(ctx context.Context, id uuid.UUID, status constants.JobStatus) error
	FinishSuccess(ctx context.Context, id uuid.UUID, out FinishOutcome) error
	FinishFailure(ctx context.Context, id uuid.UUID, message string) error
}

// NewDocument is what ingestion knows about a file before processing.
type NewDocument struct {
	SourcePath  string
	FileName    string
	FileExt     string
	FileSize    int64
	ContentHash []byte
}

// ListOptions narrows List. Zero values mean no filter.
type ListOptions struct {
	Status constants.JobStatus
	Limit  int
}

// FinishOutcome is persisted when a document was processed end to end.
type FinishOutcome struct {
	Status      constants.JobStatus
	PageCount   int
	Metadata    dimension.Metadata
	PreviewPath string
}

var documentColumns = []string{
	"id", "file_name", "source_path", "content_hash", "file_ext", "file_size",
	"page_count", "status", "error_message", "preview_path",
	"part_number", "part_name", "material", "heat_treatment", "surface_coating",
	"created_at", "started_at", "finished_at",
}

type documentRow struct {
	ID             string  `sql:"id"`
	FileName       string  `sql:"file_name"`
	SourcePath     string  `sql:"source_path"`
	ContentHash    string  `sql:"content_hash"`
	FileExt        string  `sql:"file_ext"`
	FileSize       int64   `sql:"file_size"`
	PageCount      int     `sql:"page_count"`
	Status         string  `sql:"status"`
	ErrorMessage   *string `sql:"error_message"`
	PreviewPath    *string `sql:"preview_path"`
	PartNumber     string  `sql:"part_number"`
	PartName       string  `sql:"part_name"`
	Material       string  `sql:"material"`
	HeatTreatment  string  `sql:"heat_treatment"`
	SurfaceCoating string  `sql:"surface_coating"`
	CreatedAt      int64   `sql:"created_at"`
	StartedAt      *int64  `sql:"started_at"`
	FinishedAt     *int64  `sql:"finished_at"`
}

func (r documentRow) entity() (*entity.Document, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("document id %q: %w", r.ID, err)
	}
	hash, err := hex.DecodeString(r.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("document %s content hash: %w", r.ID, err)
	}
	return &entity.Document{
		ID:           id,
		FileName:     r.FileName,
		SourcePath:   r.SourcePath,
		ContentHash:  hash,
		FileExt:      r.FileExt,
		FileSize:     r.FileSize,
		PageCount:    r.PageCount,
		Status:       constants.JobStatus(r.Status),
		ErrorMessage: r.ErrorMessage,
		PreviewPath:  r.PreviewPath,
		Metadata: dimension.Metadata{
			PartNumber:     r.PartNumber,
			PartName:       r.PartName,
			Material:       r.Material,
			HeatTreatment:  r.HeatTreatment,
			SurfaceCoating: r.SurfaceCoating,
		},
		CreatedAt:  time.UnixMilli(r.CreatedAt).UTC(),
		StartedAt:  fromMillis(r.StartedAt),
		FinishedAt: fromMillis(r.FinishedAt),
	}, nil
}

func fromMillis(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := time.UnixMilli(*v).UTC()
	return &t
}

type documentRepo struct {
	db     *DB
	now    func() time.Time
	logger *slog.Logger
}

func NewDocumentRepository(db *DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepo{db: db, now: time.Now, logger: logger}
}

func (r *documentRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect())
}

func (r *documentRepo) query(ctx context.Context, where *entsql.Predicate, order string, limit int) ([]*entity.Document, error) {
	sel := r.builder().Select(documentColumns...).From(entsql.Table(tableDocuments))
	if where != nil {
		sel.Where(where)
	}
	if order != "" {
		sel.OrderBy(entsql.Asc(order), entsql.Asc("id"))
	}
	if limit > 0 {
		sel.Limit(limit)
	}
	q, args := sel.Query()

	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var scanned []documentRow
	if err := entsql.ScanSlice(rows, &scanned); err != nil {
		return nil, err
	}
	docs := make([]*entity.Document, 0, len(scanned))
	for _, row := range scanned {
		doc, err := row.entity()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	docs, err := r.query(ctx, entsql.EQ("id", id.String()), "", 1)
	if err != nil {
		r.logger.Error("failed to get document", "document_id", id, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: document %s", common.ErrNotFound, id)
	}
	return docs[0], nil
}

func (r *documentRepo) GetByHash(ctx context.Context, hash []byte) (*entity.Document, error) {
	docs, err := r.query(ctx, entsql.EQ("content_hash", hex.EncodeToString(hash)), "", 1)
	if err != nil {
		r.logger.Error("failed to get document by hash", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: document with hash %x", common.ErrNotFound, hash)
	}
	return docs[0], nil
}

// UpsertByHash returns the stored document for the content hash, creating a
// QUEUED one when the content has not been seen. The bool reports whether
// the document already existed.
func (r *documentRepo) UpsertByHash(ctx context.Context, in NewDocument) (*entity.Document, bool, error) {
	existing, err := r.GetByHash(ctx, in.ContentHash)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}

	id := uuid.New()
	q, args := r.builder().Insert(tableDocuments).
		Columns("id", "file_name", "source_path", "content_hash", "file_ext", "file_size", "status", "created_at").
		Values(id.String(), in.FileName, in.SourcePath, hex.EncodeToString(in.ContentHash),
			constants.NormalizeExt(in.FileExt), in.FileSize, string(constants.JobStatusQueued), r.now().UnixMilli()).
		Query()
	if err := r.db.drv.Exec(ctx, q, args, nil); err != nil {
		r.logger.Error("failed to create document", "source_path", in.SourcePath, "filename", in.FileName, "error", err)
		return nil, false, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	r.logger.Info("document created", "document_id", id, "filename", in.FileName)

	doc, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return doc, false, nil
}

func (r *documentRepo) List(ctx context.Context, opts ListOptions) ([]*entity.Document, error) {
	var where *entsql.Predicate
	if opts.Status != "" {
		where = entsql.EQ("status", string(opts.Status))
	}
	docs, err := r.query(ctx, where, "created_at", opts.Limit)
	if err != nil {
		r.logger.Error("failed to list documents", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return docs, nil
}

func (r *documentRepo) update(ctx context.Context, id uuid.UUID, set func(*entsql.UpdateBuilder)) error {
	u := r.builder().Update(tableDocuments)
	set(u)
	q, args := u.Where(entsql.EQ("id", id.String())).Query()

	var res entsql.Result
	if err := r.db.drv.Exec(ctx, q, args, &res); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: document %s", common.ErrNotFound, id)
	}
	return nil
}

// SetStatus moves a document to status; RUNNING also stamps started_at and
// clears the outcome of a previous run.
func (r *documentRepo) SetStatus(ctx context.Context, id uuid.UUID, status constants.JobStatus) error {
	err := r.update(ctx, id, func(u *entsql.UpdateBuilder) {
		u.Set("status", string(status))
		if status == constants.JobStatusRunning {
			u.Set("started_at", r.now().UnixMilli()).
				SetNull("finished_at").
				SetNull("error_message")
		}
	})
	if err != nil {
		r.logger.Error("failed to set document status", "document_id", id, "status", status, "error", err)
		return err
	}
	r.logger.Debug("document status set", "document_id", id, "status", status)
	return nil
}

func (r *documentRepo) FinishSuccess(ctx context.Context, id uuid.UUID, out FinishOutcome) error {
	err := r.update(ctx, id, func(u *entsql.UpdateBuilder) {
		u.Set("status", string(out.Status)).
			Set("page_count", out.PageCount).
			Set("part_number", out.Metadata.PartNumber).
			Set("part_name", out.Metadata.PartName).
			Set("material", out.Metadata.Material).
			Set("heat_treatment", out.Metadata.HeatTreatment).
			Set("surface_coating", out.Metadata.SurfaceCoating).
			Set("finished_at", r.now().UnixMilli())
		if out.PreviewPath != "" {
			u.Set("preview_path", out.PreviewPath)
		} else {
			u.SetNull("preview_path")
		}
	})
	if err != nil {
		r.logger.Error("document finish failed", "document_id", id, "status", out.Status, "error", err)
		return err
	}
	r.logger.Info("document finished", "document_id", id, "status", out.Status, "pages", out.PageCount)
	return nil
}

func (r *documentRepo) FinishFailure(ctx context.Context, id uuid.UUID, message string) error {
	err := r.update(ctx, id, func(u *entsql.UpdateBuilder) {
		u.Set("status", string(constants.JobStatusFailed)).
			Set("error_message", message).
			Set("finished_at", r.now().UnixMilli())
	})
	if err != nil {
		r.logger.Error("document finish(FAILED) failed", "document_id", id, "error", err)
		return err
	}
	r.logger.Warn("document finished (FAILED)", "document_id", id, "error", message)
	return nil
}
