package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/ballooning/internal/common"
	"github.com/joseph-ayodele/ballooning/internal/core/tokens"
	"github.com/joseph-ayodele/ballooning/internal/core/tokens/tesseract"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	out := flag.String("out", "", "output file (defaults to stdout)")
	flag.Parse()
	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "dumptokens [-out tokens.json] <drawing>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := common.LoadConfig()
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
		logger.Error("build extractor", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	doc, warnings, err := extractor.Extract(ctx, path)
	dur := time.Since(start)
	if err != nil {
		logger.Error("token extraction failed", "path", path, "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}
	for _, w := range warnings {
		logger.Warn("token extraction warning", "path", path, "warning", w)
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			logger.Error("create output", "path", *out, "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				logger.Error("close output", "path", *out, "error", cerr)
			}
		}()
		w = f
	}
	if err := tokens.WriteJSON(w, doc); err != nil {
		logger.Error("write dump", "error", err)
		os.Exit(1)
	}

	count := 0
	for _, p := range doc.Pages {
		count += len(p.Tokens)
	}
	logger.Info("token extraction OK",
		"path", path,
		"format", doc.Format,
		"pages", len(doc.Pages),
		"tokens", count,
		"duration_ms", dur.Milliseconds(),
	)
}
