//go:build cgo && linux

package tesseract

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Available reports whether this build can run OCR.
const Available = true

func recognize(path string, cfg Config) ([]word, string, []string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if cfg.TessdataDir != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataDir); err != nil {
			return nil, "", nil, fmt.Errorf("set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(strings.Split(cfg.Lang, "+")...); err != nil {
		return nil, "", nil, fmt.Errorf("set language: %w", err)
	}
	if err := client.SetImage(path); err != nil {
		return nil, "", nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, "", nil, fmt.Errorf("ocr word boxes: %w", err)
	}
	words := make([]word, 0, len(boxes))
	for _, bx := range boxes {
		words = append(words, word{Text: bx.Word, Confidence: bx.Confidence, Box: bx.Box})
	}

	var warnings []string
	raw, err := client.Text()
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("ocr text failed: %v", err))
	}
	return words, raw, warnings, nil
}
