package repository

import (
	"context"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/ballooning/constants"
	"github.com/joseph-ayodele/ballooning/internal/common"
	"github.com/joseph-ayodele/ballooning/internal/core/dimension"
	"github.com/joseph-ayodele/ballooning/internal/core/tokens"
	"github.com/joseph-ayodele/ballooning/internal/entity"
)

type DimensionRepository interface {
	ReplaceForDocument(ctx context.Context, documentID uuid.UUID, records []dimension.Record) error
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]entity.Dimension, error)
}

// insertBatchSize keeps each INSERT under SQLite's bound-variable limit
// (32766) at 15 columns per row.
const insertBatchSize = 500

var dimensionColumns = []string{
	"id", "document_id", "page", "sequence", "kind", "nominal", "nominal_value",
	"tolerance", "tolerance_source", "upper_limit", "lower_limit",
	"x0", "y0", "x1", "y1",
}

type dimensionRow struct {
	ID              string   `sql:"id"`
	DocumentID      string   `sql:"document_id"`
	Page            int      `sql:"page"`
	Sequence        int      `sql:"sequence"`
	Kind            string   `sql:"kind"`
	Nominal         string   `sql:"nominal"`
	NominalValue    float64  `sql:"nominal_value"`
	Tolerance       string   `sql:"tolerance"`
	ToleranceSource string   `sql:"tolerance_source"`
	UpperLimit      *float64 `sql:"upper_limit"`
	LowerLimit      *float64 `sql:"lower_limit"`
	X0              float64  `sql:"x0"`
	Y0              float64  `sql:"y0"`
	X1              float64  `sql:"x1"`
	Y1              float64  `sql:"y1"`
}

type dimensionRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewDimensionRepository(db *DB, logger *slog.Logger) DimensionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &dimensionRepo{db: db, logger: logger}
}

func limitValue(l dimension.Limit) any {
	if !l.Valid {
		return nil
	}
	return l.Value
}

// ReplaceForDocument swaps the stored dimensions of a document for records
// in one transaction, so a re-run never leaves a mix of old and new rows.
func (r *dimensionRepo) ReplaceForDocument(ctx context.Context, documentID uuid.UUID, records []dimension.Record) (err error) {
	b := entsql.Dialect(r.db.Dialect())
	tx, err := r.db.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrDatabase, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("rollback failed", "document_id", documentID, "error", rbErr)
			}
		}
	}()

	q, args := b.Delete(tableDimensions).Where(entsql.EQ("document_id", documentID.String())).Query()
	if err = tx.Exec(ctx, q, args, nil); err != nil {
		r.logger.Error("failed to delete dimensions", "document_id", documentID, "error", err)
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}

	for start := 0; start < len(records); start += insertBatchSize {
		batch := records[start:min(start+insertBatchSize, len(records))]
		ins := b.Insert(tableDimensions).Columns(dimensionColumns...)
		for _, rec := range batch {
			ins.Values(
				uuid.NewString(), documentID.String(), rec.Page, rec.Sequence,
				string(rec.Kind), rec.Nominal, rec.NominalValue,
				rec.Tolerance, string(rec.ToleranceSource),
				limitValue(rec.Upper), limitValue(rec.Lower),
				rec.Rect.X0, rec.Rect.Y0, rec.Rect.X1, rec.Rect.Y1,
			)
		}
		q, args = ins.Query()
		if err = tx.Exec(ctx, q, args, nil); err != nil {
			r.logger.Error("failed to insert dimensions", "document_id", documentID, "offset", start, "count", len(batch), "error", err)
			return fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}
	r.logger.Info("dimensions stored", "document_id", documentID, "count", len(records))
	return nil
}

func (r *dimensionRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]entity.Dimension, error) {
	q, args := entsql.Dialect(r.db.Dialect()).
		Select(dimensionColumns...).
		From(entsql.Table(tableDimensions)).
		Where(entsql.EQ("document_id", documentID.String())).
		OrderBy(entsql.Asc("sequence")).
		Query()

	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, q, args, &rows); err != nil {
		r.logger.Error("failed to list dimensions", "document_id", documentID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var scanned []dimensionRow
	if err := entsql.ScanSlice(rows, &scanned); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}

	out := make([]entity.Dimension, 0, len(scanned))
	for _, row := range scanned {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, fmt.Errorf("dimension id %q: %w", row.ID, err)
		}
		kind, ok := constants.ParseDimensionKind(row.Kind)
		if !ok {
			return nil, fmt.Errorf("%w: dimension %s has unknown kind %q", common.ErrDatabase, row.ID, row.Kind)
		}
		out = append(out, entity.Dimension{
			ID:              id,
			DocumentID:      documentID,
			Page:            row.Page,
			Sequence:        row.Sequence,
			Kind:            kind,
			Nominal:         row.Nominal,
			NominalValue:    row.NominalValue,
			Tolerance:       row.Tolerance,
			ToleranceSource: row.ToleranceSource,
			UpperLimit:      row.UpperLimit,
			LowerLimit:      row.LowerLimit,
			Rect:            tokens.Rect{X0: row.X0, Y0: row.Y0, X1: row.X1, Y1: row.Y1},
		})
	}
	return out, nil
}
