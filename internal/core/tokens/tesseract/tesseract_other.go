//go:build !(cgo && linux)

package tesseract

// Available reports whether this build can run OCR.
const Available = false

func recognize(string, Config) ([]word, string, []string, error) {
	return nil, "", nil, ErrUnavailable
}
