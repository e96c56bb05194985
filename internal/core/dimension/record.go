package dimension

import (
	"github.com/joseph-ayodele/ballooning/constants"
	"github.com/joseph-ayodele/ballooning/internal/core/tokens"
)

// Record is one row of the inspection report.
type Record struct {
	FileName        string
	Page            int // 1-based
	Kind            constants.DimensionKind
	Sequence        int
	Nominal         string
	NominalValue    float64
	Tolerance       string
	ToleranceSource ToleranceSource
	Upper           Limit
	Lower           Limit
	Rect            tokens.Rect
	Metadata
}

func newRecord(fileName string, d Detection, md Metadata) Record {
	return Record{
		FileName:        fileName,
		Page:            d.Page + 1,
		Kind:            d.Classification.Kind,
		Sequence:        d.Sequence,
		Nominal:         d.Classification.Nominal,
		NominalValue:    d.Classification.Value,
		Tolerance:       d.Resolution.Display,
		ToleranceSource: d.Resolution.Source,
		Upper:           d.Resolution.Upper,
		Lower:           d.Resolution.Lower,
		Rect:            d.Rect,
		Metadata:        md,
	}
}

// Result is the outcome of one document.
type Result struct {
	FileName    string
	Pages       int
	Metadata    Metadata
	Records     []Record
	Annotations []AnnotationRequest
}

// Empty reports the "no dimensions detected" outcome. Callers show it as a
// warning; it is not an error.
func (r Result) Empty() bool { return len(r.Records) == 0 }
