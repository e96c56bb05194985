package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

type ctxKey string

const ctxKeyContentHash ctxKey = "ocr.content_hash_hex"

// WithContentHash stores the hex-encoded SHA256 of the source file so
// converted artifacts can be cached under it.
func WithContentHash(ctx context.Context, hex string) context.Context {
	return context.WithValue(ctx, ctxKeyContentHash, hex)
}

// ContentHashFromContext returns the hash stored by WithContentHash.
func ContentHashFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyContentHash).(string)
	return v, ok && v != ""
}

// ConvertHEIC converts a HEIC/HEIF photo of a drawing to PNG.
//
// With a cache dir and a content hash the result lives at {cacheDir}/{hash}.png
// and is reused on later calls; cleanup is then nil. Otherwise the PNG is
// written to a temp dir that cleanup removes.
func ConvertHEIC(ctx context.Context, r Runner, logger *slog.Logger, converter, in, cacheDir, hashHex string) (string, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	cacheable := cacheDir != "" && hashHex != ""
	var cached string
	if cacheable {
		cached = filepath.Join(cacheDir, hashHex+".png")
		if st, err := os.Stat(cached); err == nil && !st.IsDir() {
			logger.Debug("heic.cache.hit", "cache", cached)
			return cached, nil, nil
		}
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return "", nil, err
		}
	}

	tmpDir, err := os.MkdirTemp("", "balloon-heic-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "page.png")

	var args []string
	switch converter {
	case "heif-convert", "magick":
		args = []string{in, out}
	case "sips":
		args = []string{"-s", "format", "png", in, "--out", out}
	default:
		cleanup()
		return "", nil, fmt.Errorf("heic conversion: unsupported converter %q (heif-convert | magick | sips)", converter)
	}
	if _, errb, err := r.Run(ctx, converter, logger, args...); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("%s failed: %w: %s", converter, err, truncate(string(errb), 512))
	}
	if _, err := os.Stat(out); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("heic conversion produced no output: %w", err)
	}

	if !cacheable {
		return out, cleanup, nil
	}

	defer cleanup()
	if err := os.Rename(out, cached); err != nil {
		// cross-device rename; copy instead
		if err := copyFile(out, cached); err != nil {
			return "", nil, err
		}
	}
	logger.Debug("heic.cache.store", "cache", cached)
	return cached, nil, nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()
	_, err = io.Copy(out, in)
	return err
}
