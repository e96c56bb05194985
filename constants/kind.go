package constants

import (
	"strings"
)

// DimensionKind classifies a dimension callout found on a drawing.
type DimensionKind string

const (
	TappedHole  DimensionKind = "TappedHole"
	Diametrical DimensionKind = "Diametrical"
	Angular     DimensionKind = "Angular"
	Linear      DimensionKind = "Linear"
)

var allKinds = []DimensionKind{
	TappedHole,
	Diametrical,
	Angular,
	Linear,
}

// displayNames are the labels used in reports and RPC payloads.
var displayNames = map[DimensionKind]string{
	TappedHole:  "Tapped Hole",
	Diametrical: "Diametrical",
	Angular:     "Angular",
	Linear:      "Linear",
}

// DisplayName returns the report label, e.g. "Tapped Hole".
func (k DimensionKind) DisplayName() string {
	if name, ok := displayNames[k]; ok {
		return name
	}
	return string(k)
}

func KindsAsStringSlice() []string {
	result := make([]string, len(allKinds))
	for i, k := range allKinds {
		result[i] = string(k)
	}
	return result
}

// ParseDimensionKind accepts either the canonical value or the display label,
// case-insensitively.
func ParseDimensionKind(input string) (DimensionKind, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	synonyms := map[string]DimensionKind{
		"tapped hole": TappedHole,
		"thread":      TappedHole,
		"diameter":    Diametrical,
		"angle":       Angular,
	}
	if k, ok := synonyms[normalized]; ok {
		return k, true
	}

	for _, k := range allKinds {
		if normalized == strings.ToLower(string(k)) || normalized == strings.ToLower(k.DisplayName()) {
			return k, true
		}
	}
	return "", false
}
