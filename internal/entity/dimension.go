package entity

import (
	"github.com/google/uuid"

	"github.com/joseph-ayodele/ballooning/constants"
	"github.com/joseph-ayodele/ballooning/internal/core/dimension"
	"github.com/joseph-ayodele/ballooning/internal/core/tokens"
)

// Dimension represents a stored, numbered dimension.
type Dimension struct {
	ID              uuid.UUID               `json:"id"`
	DocumentID      uuid.UUID               `json:"document_id"`
	Page            int                     `json:"page"`
	Sequence        int                     `json:"sequence"`
	Kind            constants.DimensionKind `json:"kind"`
	Nominal         string                  `json:"nominal"`
	NominalValue    float64                 `json:"nominal_value"`
	Tolerance       string                  `json:"tolerance"`
	ToleranceSource string                  `json:"tolerance_source"`
	UpperLimit      *float64                `json:"upper_limit,omitempty"`
	LowerLimit      *float64                `json:"lower_limit,omitempty"`
	Rect            tokens.Rect             `json:"rect"`
}

// Record rebuilds the report row, taking file name and title block from doc.
func (d Dimension) Record(doc *Document) dimension.Record {
	rec := dimension.Record{
		Page:            d.Page,
		Kind:            d.Kind,
		Sequence:        d.Sequence,
		Nominal:         d.Nominal,
		NominalValue:    d.NominalValue,
		Tolerance:       d.Tolerance,
		ToleranceSource: dimension.ToleranceSource(d.ToleranceSource),
		Upper:           limit(d.UpperLimit),
		Lower:           limit(d.LowerLimit),
		Rect:            d.Rect,
	}
	if doc != nil {
		rec.FileName = doc.FileName
		rec.Metadata = doc.Metadata
	}
	return rec
}

func limit(v *float64) dimension.Limit {
	if v == nil {
		return dimension.Limit{}
	}
	return dimension.LimitOf(*v)
}
