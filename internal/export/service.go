package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/ballooning/internal/core/dimension"
	"github.com/joseph-ayodele/ballooning/internal/repository"
)

// SheetName is the single worksheet of every export.
const SheetName = "Dimensions"

// Service is a tiny façade over repositories that produces XLSX bytes for exports.
type Service struct {
	docsRepo repository.DocumentRepository
	dimsRepo repository.DimensionRepository
	logger   *slog.Logger
}

func NewService(docsRepo repository.DocumentRepository, dimsRepo repository.DimensionRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docsRepo: docsRepo, dimsRepo: dimsRepo, logger: logger}
}

// ExportDocumentsXLSX returns one workbook with the dimensions of every
// listed document, in the given order, each document ordered by balloon number.
func (s *Service) ExportDocumentsXLSX(ctx context.Context, documentIDs []uuid.UUID, layout string) ([]byte, error) {
	start := time.Now()

	var records []dimension.Record
	for _, id := range documentIDs {
		doc, err := s.docsRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load document: %w", err)
		}
		dims, err := s.dimsRepo.ListByDocument(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("query dimensions: %w", err)
		}
		for _, d := range dims {
			records = append(records, d.Record(doc))
		}
	}

	b, err := WorkbookXLSX(records, layout)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"documents", len(documentIDs),
		"rows", len(records),
		"layout", layout,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

// WorkbookXLSX renders records into an XLSX workbook.
func WorkbookXLSX(records []dimension.Record, layout string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(SheetName)
	f.SetActiveSheet(activeIndex)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	cols := ColumnsFor(layout)
	for i, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, c.Header)

		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(SheetName, name, name, c.Width)
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	_ = f.SetCellStyle(SheetName, "A1", last, headerStyle)

	for r, rec := range records {
		for i, c := range cols {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if err := f.SetCellValue(SheetName, cell, c.Value(rec)); err != nil {
				return nil, fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}
	_ = f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
