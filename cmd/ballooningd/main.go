package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joseph-ayodele/ballooning/internal/common"
	"github.com/joseph-ayodele/ballooning/internal/core"
	"github.com/joseph-ayodele/ballooning/internal/core/annotate"
	"github.com/joseph-ayodele/ballooning/internal/core/async"
	"github.com/joseph-ayodele/ballooning/internal/core/tokens"
	"github.com/joseph-ayodele/ballooning/internal/core/tokens/tesseract"
	"github.com/joseph-ayodele/ballooning/internal/export"
	"github.com/joseph-ayodele/ballooning/internal/ingest"
	repo "github.com/joseph-ayodele/ballooning/internal/repository"
	svc "github.com/joseph-ayodele/ballooning/internal/server"
)

func main() {
	// Setup structured logger that outputs messages with variables but no time/level
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	addr := cfg.Server.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := svc.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect database", "error", err)
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
		core.WithRenderer(renderer, cfg.Render.OutputDir),
		core.WithIngestor(ingestor),
	)

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)

	service, err := svc.NewBallooningService(svc.Deps{
		Processor:     processor,
		Ingestor:      ingestor,
		Queue:         queue,
		Documents:     docsRepo,
		Dimensions:    dimsRepo,
		Exporter:      export.NewService(docsRepo, dimsRepo, logger),
		DefaultLayout: cfg.Export.Layout,
	}, logger)
	if err != nil {
		logger.Error("failed to build service", "error", err)
		os.Exit(1)
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		os.Exit(1)
	}
	grpcServer, _ := svc.NewGRPCServer(service, logger)

	if cfg.Inbox.Dir != "" {
		if err := watchInbox(ctx, cfg.Inbox, ingestor, queue, logger); err != nil {
			logger.Error("failed to start inbox watcher", "dir", cfg.Inbox.Dir, "error", err)
			os.Exit(1)
		}
	}

	if !tesseract.Available {
		logger.Warn("built without tesseract; image drawings will fail")
	}
	logger.Info("ballooningd listening", "addr", addr, "dialect", db.Dialect())
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	queue.Shutdown(context.Background())
	grpcServer.GracefulStop()
}

// watchInbox ingests every drawing dropped into the inbox and queues it.
func watchInbox(ctx context.Context, cfg common.InboxConfig, ingestor *ingest.FSIngestor, queue *async.ProcessorQueue, logger *slog.Logger) error {
	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Dir},
		InitialScan: cfg.InitialScan,
		Debounce:    cfg.Debounce,
		SkipHidden:  true,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	logger.Info("inbox.watching", "dir", cfg.Dir, "initial_scan", cfg.InitialScan)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Warn("inbox.watch.error", "error", err)
			case path, ok := <-paths:
				if !ok {
					return
				}
				res, err := ingestor.IngestPath(ctx, path)
				if err != nil {
					logger.Warn("inbox.ingest.failed", "path", path, "error", err)
					continue
				}
				if err := queue.Enqueue(ctx, async.Job{DocumentID: res.DocumentID}); err != nil {
					logger.Warn("inbox.enqueue.failed", "path", path, "document_id", res.DocumentID, "error", err)
				}
			}
		}
	}()
	return nil
}
