package dimension

import (
	"regexp"
	"strings"
)

// Metadata is the title-block information of a drawing.
type Metadata struct {
	PartNumber     string `json:"part_number,omitempty"`
	PartName       string `json:"part_name,omitempty"`
	Material       string `json:"material,omitempty"`
	HeatTreatment  string `json:"heat_treatment,omitempty"`
	SurfaceCoating string `json:"surface_coating,omitempty"`
}

type metadataField struct {
	re  *regexp.Regexp
	get func(*Metadata) *string
}

func keyPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + key + `\s*:\s*(.*)`)
}

var metadataFields = []metadataField{
	{keyPattern(`Part\s*(?:No\.?|Number)`), func(m *Metadata) *string { return &m.PartNumber }},
	{keyPattern(`(?:Part\s*Name|Title)`), func(m *Metadata) *string { return &m.PartName }},
	{keyPattern(`Material`), func(m *Metadata) *string { return &m.Material }},
	{keyPattern(`Heat\s*Treatment`), func(m *Metadata) *string { return &m.HeatTreatment }},
	{keyPattern(`(?:Surface\s*)?Coating`), func(m *Metadata) *string { return &m.SurfaceCoating }},
}

// Merge fills the fields of m that are still empty from the page text.
// A value runs to the end of its line and is cut at the first "|"; the
// first non-empty value on the page wins.
func (m *Metadata) Merge(rawText string) {
	for _, f := range metadataFields {
		dst := f.get(m)
		if *dst != "" {
			continue
		}
		for _, match := range f.re.FindAllStringSubmatch(rawText, -1) {
			v, _, _ := strings.Cut(match[1], "|")
			if v = strings.TrimSpace(v); v != "" {
				*dst = v
				break
			}
		}
	}
}
