package export

import (
	"github.com/joseph-ayodele/ballooning/internal/core/dimension"
)

const (
	LayoutBasic    = "basic"
	LayoutExtended = "extended"
)

// Column is one spreadsheet column: its header, width and cell value.
type Column struct {
	Header string
	Width  float64
	Value  func(dimension.Record) any
}

var (
	colPartNo   = Column{"Part No", 16, func(r dimension.Record) any { return r.PartNumber }}
	colPartName = Column{"Part Name", 24, func(r dimension.Record) any { return r.PartName }}
	colFileName = Column{"File Name", 28, func(r dimension.Record) any { return r.FileName }}
	colPage     = Column{"Page", 8, func(r dimension.Record) any { return r.Page }}
	colKind     = Column{"Dimension Type", 16, func(r dimension.Record) any { return r.Kind.DisplayName() }}
	colBalloon  = Column{"Balloon Number", 16, func(r dimension.Record) any { return r.Sequence }}
	colNominal  = Column{"Nominal Dimension", 20, func(r dimension.Record) any { return r.Nominal }}
	colTol      = Column{"Tolerance", 16, func(r dimension.Record) any { return r.Tolerance }}
	colUpper    = Column{"Upper Limit", 14, func(r dimension.Record) any { return limitCell(r.Upper) }}
	colLower    = Column{"Lower Limit", 14, func(r dimension.Record) any { return limitCell(r.Lower) }}
	colCoating  = Column{"Surface Coating", 20, func(r dimension.Record) any { return r.SurfaceCoating }}
	colMaterial = Column{"Material", 20, func(r dimension.Record) any { return r.Material }}
	colHeat     = Column{"Heat Treatment", 20, func(r dimension.Record) any { return r.HeatTreatment }}
)

var basicColumns = []Column{colFileName, colPage, colKind, colBalloon, colNominal, colTol, colUpper, colLower}

// ColumnsFor returns the fixed column layout. Unknown layouts get the
// extended one.
func ColumnsFor(layout string) []Column {
	if layout == LayoutBasic {
		return basicColumns
	}
	cols := make([]Column, 0, len(basicColumns)+5)
	cols = append(cols, colPartNo, colPartName)
	cols = append(cols, basicColumns...)
	return append(cols, colCoating, colMaterial, colHeat)
}

// Headers lists the header row of a layout.
func Headers(layout string) []string {
	cols := ColumnsFor(layout)
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}

// limitCell writes limits as numbers and absent limits as "-".
func limitCell(l dimension.Limit) any {
	if !l.Valid {
		return dimension.NoValue
	}
	return l.Rounded()
}
