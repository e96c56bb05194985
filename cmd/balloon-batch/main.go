package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ballooning/constants"
	"github.com/joseph-ayodele/ballooning/internal/common"
	"github.com/joseph-ayodele/ballooning/internal/core"
	"github.com/joseph-ayodele/ballooning/internal/core/annotate"
	"github.com/joseph-ayodele/ballooning/internal/core/dimension"
	"github.com/joseph-ayodele/ballooning/internal/core/tokens"
	"github.com/joseph-ayodele/ballooning/internal/core/tokens/tesseract"
	"github.com/joseph-ayodele/ballooning/internal/export"
	"github.com/joseph-ayodele/ballooning/internal/ingest"
	repo "github.com/joseph-ayodele/ballooning/internal/repository"
	svc "github.com/joseph-ayodele/ballooning/internal/server"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem  = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir    = flag.String("dir", "", "directory of drawings to process")
		file   = flag.String("file", "", "single drawing to process")
		out    = flag.String("out", "", "output directory (defaults to OUTPUT_DIR)")
		layout = flag.String("layout", "", "spreadsheet layout: basic or extended (defaults to EXPORT_LAYOUT)")
	)
	flag.Parse()

	if (*dir == "") == (*file == "") {
		printError("Error: exactly one of --dir or --file is required\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *out == "" {
		*out = cfg.Render.OutputDir
	}
	if *layout == "" {
		*layout = cfg.Export.Layout
	}
	*layout = strings.ToLower(*layout)
	v := common.NewValidator().
		Field("layout", *layout, common.OneOf(export.LayoutBasic, export.LayoutExtended)).
		Field("dir", *dir, common.ExistingPath).
		Field("file", *file, common.ExistingPath)
	if err := v.Error(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		printError("Error: create output directory: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbCfg := cfg.Database
	if *inmem || dbCfg.DSN == "" {
		dbCfg.DSN = ":memory:"
	}
	db, err := svc.ConnectDB(ctx, dbCfg, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	docsRepo := repo.NewDocumentRepository(db, logger)
	dimsRepo := repo.NewDimensionRepository(db, logger)

	ocrSource := tesseract.NewSource(tesseract.Config{
		Lang:          cfg.Tokens.TesseractLang,
		TessdataDir:   cfg.Tokens.TessdataDir,
		MinConfidence: cfg.Tokens.MinConfidence,
	}, logger)
	extractor, err := tokens.NewExtractor(tokens.Config{
		HeicConverter:    cfg.Tokens.HeicConverter,
		ArtifactCacheDir: cfg.Tokens.ArtifactCacheDir,
	}, logger, tokens.WithImageSource(ocrSource))
	if err != nil {
		logger.Error("failed to build token extractor", "error", err)
		os.Exit(1)
	}
	renderer, err := annotate.NewDocumentRenderer(annotate.Config{
		Style: annotate.Style{
			Highlight: cfg.Render.HighlightColor,
			Balloon:   cfg.Render.BalloonColor,
		},
		PDFToPPM: cfg.Render.PDFToPPM,
		DPI:      cfg.Render.DPI,
	}, nil, logger)
	if err != nil {
		logger.Error("failed to build renderer", "error", err)
		os.Exit(1)
	}

	ingestor := ingest.NewFSIngestor(docsRepo, logger)
	processor := core.NewProcessor(logger, extractor, nil, docsRepo, dimsRepo,
		core.WithRenderer(renderer, *out),
		core.WithIngestor(ingestor),
	)

	var results []ingest.IngestionResult
	if *dir != "" {
		var stats ingest.DirStats
		results, stats, err = ingestor.IngestDirectory(ctx, *dir, true)
		if err != nil {
			logger.Error("failed to ingest directory", "error", err)
			os.Exit(1)
		}
		logger.Info("ingestion complete",
			"scanned", stats.Scanned,
			"matched", stats.Matched,
			"succeeded", stats.Succeeded,
			"failed", stats.Failed,
			"deduplicated", stats.Deduplicated)
	} else {
		res, err := ingestor.IngestPath(ctx, *file)
		if err != nil {
			logger.Error("failed to ingest file", "file", *file, "error", err)
			os.Exit(1)
		}
		results = append(results, res)
	}

	var (
		combined  []dimension.Record
		messages  []string
		processed int
		empty     int
		failures  int
		seen      = make(map[uuid.UUID]bool)
	)
	for _, r := range results {
		// identical content under two names is one document
		if r.Err != "" || seen[r.DocumentID] {
			continue
		}
		seen[r.DocumentID] = true
		sum, err := processor.ProcessDocument(ctx, r.DocumentID)
		if err != nil {
			logger.Error("failed to process document", "document_id", r.DocumentID, "path", r.SourcePath, "error", err)
			messages = append(messages, fmt.Sprintf("Failed %s: %v", filepath.Base(r.SourcePath), err))
			failures++
			continue
		}
		for _, w := range sum.Warnings {
			logger.Warn("processor.warning", "document_id", sum.DocumentID, "warning", w)
		}
		if sum.Status == constants.JobStatusNoDimensions {
			messages = append(messages, fmt.Sprintf("No dimensions detected in %s", sum.FileName))
			empty++
			continue
		}

		wb, err := export.WorkbookXLSX(sum.Records, *layout)
		if err != nil {
			logger.Error("failed to build workbook", "document_id", sum.DocumentID, "error", err)
			failures++
			continue
		}
		name := strings.TrimSuffix(sum.FileName, filepath.Ext(sum.FileName)) + "_Dimensions.xlsx"
		path := filepath.Join(*out, name)
		if err := os.WriteFile(path, wb, 0o644); err != nil {
			logger.Error("failed to write workbook", "path", path, "error", err)
			failures++
			continue
		}
		combined = append(combined, sum.Records...)
		messages = append(messages, fmt.Sprintf("Processed %s: %d dimensions -> %s", sum.FileName, len(sum.Records), name))
		processed++
	}

	var combinedPath string
	if len(combined) > 0 {
		wb, err := export.WorkbookXLSX(combined, *layout)
		if err != nil {
			logger.Error("failed to build combined workbook", "error", err)
			os.Exit(1)
		}
		combinedPath = filepath.Join(*out, "All_Dimensions.xlsx")
		if err := os.WriteFile(combinedPath, wb, 0o644); err != nil {
			logger.Error("failed to write combined workbook", "path", combinedPath, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("batch processing complete",
		"documents", len(results),
		"processed", processed,
		"no_dimensions", empty,
		"failures", failures,
		"dimensions", len(combined),
		"output_dir", *out)

	fmt.Printf("Batch processing complete!\n")
	for _, m := range messages {
		fmt.Printf("- %s\n", m)
	}
	fmt.Printf("- Documents processed: %d\n", processed)
	fmt.Printf("- Without dimensions: %d\n", empty)
	fmt.Printf("- Failures: %d\n", failures)
	if combinedPath != "" {
		fmt.Printf("- Combined workbook: %s\n", combinedPath)
	}
	if failures > 0 {
		os.Exit(1)
	}
}
