package constants

import "strings"

// Source formats a drawing can arrive in.
const (
	PDF    = "PDF"    // vector drawing, tokens from the text layer
	IMAGE  = "IMAGE"  // scanned drawing, tokens from OCR
	TOKENS = "TOKENS" // JSON token dump produced by another collaborator
)

// AllowedExtensions holds the default allowed file extensions for drawing ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"tif":  {},
	"tiff": {},
	"heic": {},
	"heif": {},
	"json": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without dot) may be ingested.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// IsHEICExt reports whether the image needs conversion before OCR.
func IsHEICExt(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif":
		return true
	}
	return false
}

// MapExtToFormat maps an extension to PDF, IMAGE or TOKENS, or "" if unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "png", "jpg", "jpeg", "tif", "tiff", "heic", "heif":
		return IMAGE
	case "json":
		return TOKENS
	}
	return ""
}
