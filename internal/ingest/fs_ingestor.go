package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/ballooning/constants"
	"github.com/joseph-ayodele/ballooning/internal/common"
	"github.com/joseph-ayodele/ballooning/internal/repository"
)

// FSIngestor reads from the local filesystem.
type FSIngestor struct {
	docs   repository.DocumentRepository
	logger *slog.Logger
}

func NewFSIngestor(docs repository.DocumentRepository, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{docs: docs, logger: logger}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		i.logger.Error("abs path error", "path", path, "error", err)
		return out, err
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		i.logger.Warn("unsupported or missing extension", "path", abs, "ext", ext)
		return out, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(abs)
	if err != nil {
		i.logger.Error("open error", "path", abs, "error", err)
		return out, err
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			i.logger.Warn("close file error", "path", abs, "error", err)
		}
	}(f)

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		i.logger.Error("hash error", "path", abs, "error", err)
		return out, err
	}
	sum := h.Sum(nil)

	row, dedup, err := i.docs.UpsertByHash(ctx, repository.NewDocument{
		SourcePath:  abs,
		FileName:    filepath.Base(abs),
		FileExt:     ext,
		FileSize:    size,
		ContentHash: sum,
	})
	if err != nil {
		return out, err
	}

	out = IngestionResult{
		SourcePath:   abs,
		StoredPath:   row.SourcePath,
		DocumentID:   row.ID,
		Deduplicated: dedup,
		HashHex:      hex.EncodeToString(sum),
		FileExt:      row.FileExt,
		FileSize:     size,
	}
	i.logger.Debug("ingested file", "path", abs, "document_id", row.ID, "deduplicated", dedup)
	return out, nil
}

// IngestDirectory walks root, skips hidden if requested,
// and calls IngestPath for each file. Returns per-file results + aggregate stats.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if !AllowedExt(ext) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path)
		if err != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})

	i.logger.Info("ingest.directory.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}
