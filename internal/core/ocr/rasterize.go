package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// RasterizePDF renders every page of a PDF to PNG with pdftoppm and returns
// the page images in page order. Files are written as {dir}/{prefix}-N.png.
func RasterizePDF(ctx context.Context, r Runner, logger *slog.Logger, pdftoppm, path string, dpi int, dir, prefix string) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if pdftoppm == "" {
		pdftoppm = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 150
	}
	if prefix == "" {
		prefix = "page"
	}
	base := filepath.Join(dir, prefix)

	// pdftoppm -r 150 -png <in.pdf> <dir/prefix>
	_, errb, err := r.Run(ctx, pdftoppm, logger, "-r", strconv.Itoa(dpi), "-png", path, base)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, truncate(strings.TrimSpace(string(errb)), 512))
	}

	matches, _ := filepath.Glob(base + "-*.png")
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images for %s", path)
	}
	// pdftoppm zero-pads page numbers only when the document has 10+ pages,
	// so sort numerically on the suffix.
	sort.Slice(matches, func(i, j int) bool {
		return pageSuffix(matches[i], base) < pageSuffix(matches[j], base)
	})
	return matches, nil
}

func pageSuffix(path, base string) int {
	s := strings.TrimSuffix(strings.TrimPrefix(path, base+"-"), ".png")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 1 << 30
	}
	return n
}
