package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/ballooning/constants"
	"github.com/joseph-ayodele/ballooning/internal/common"
	"github.com/joseph-ayodele/ballooning/internal/core/dimension"
	"github.com/joseph-ayodele/ballooning/internal/repository"
)

func sampleRecords() []dimension.Record {
	md := dimension.Metadata{PartNumber: "BR-1001", PartName: "Bracket", Material: "AL 6061"}
	return []dimension.Record{
		{
			FileName: "bracket.pdf", Page: 1, Kind: constants.Diametrical, Sequence: 1,
			Nominal: "⌀14", NominalValue: 14, Tolerance: "±0.05",
			Upper: dimension.LimitOf(14.05), Lower: dimension.LimitOf(13.950000000000001),
			Metadata: md,
		},
		{
			FileName: "bracket.pdf", Page: 2, Kind: constants.TappedHole, Sequence: 2,
			Nominal: "M6", NominalValue: 6, Tolerance: "-",
			Metadata: md,
		},
	}
}

func readRows(t *testing.T, b []byte) (*excelize.File, [][]string) {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	return f, rows
}

func TestColumnsFor(t *testing.T) {
	basic := []string{"File Name", "Page", "Dimension Type", "Balloon Number", "Nominal Dimension", "Tolerance", "Upper Limit", "Lower Limit"}
	if diff := cmp.Diff(basic, Headers(LayoutBasic)); diff != "" {
		t.Errorf("basic headers (-want +got):\n%s", diff)
	}
	extended := append(append([]string{"Part No", "Part Name"}, basic...), "Surface Coating", "Material", "Heat Treatment")
	if diff := cmp.Diff(extended, Headers(LayoutExtended)); diff != "" {
		t.Errorf("extended headers (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(extended, Headers("unknown")); diff != "" {
		t.Errorf("unknown layout should fall back to extended (-want +got):\n%s", diff)
	}
}

func TestWorkbookBasicLayout(t *testing.T) {
	b, err := WorkbookXLSX(sampleRecords(), LayoutBasic)
	if err != nil {
		t.Fatalf("WorkbookXLSX: %v", err)
	}
	f, rows := readRows(t, b)

	want := [][]string{
		Headers(LayoutBasic),
		{"bracket.pdf", "1", "Diametrical", "1", "⌀14", "±0.05", "14.05", "13.95"},
		{"bracket.pdf", "2", "Tapped Hole", "2", "M6", "-", "-", "-"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	if typ, _ := f.GetCellType(SheetName, "G2"); typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString {
		t.Errorf("upper limit stored as text, want a number")
	}
	if typ, _ := f.GetCellType(SheetName, "G3"); typ != excelize.CellTypeSharedString {
		t.Errorf("missing limit cell type = %v, want shared string", typ)
	}
	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetName {
		t.Errorf("sheets = %v, want [%s]", sheets, SheetName)
	}
}

func TestWorkbookExtendedLayout(t *testing.T) {
	b, err := WorkbookXLSX(sampleRecords()[:1], LayoutExtended)
	if err != nil {
		t.Fatal(err)
	}
	_, rows := readRows(t, b)
	want := []string{"BR-1001", "Bracket", "bracket.pdf", "1", "Diametrical", "1", "⌀14", "±0.05", "14.05", "13.95", "", "AL 6061"}
	if diff := cmp.Diff(want, rows[1]); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestWorkbookEmpty(t *testing.T) {
	b, err := WorkbookXLSX(nil, LayoutBasic)
	if err != nil {
		t.Fatal(err)
	}
	_, rows := readRows(t, b)
	if len(rows) != 1 {
		t.Errorf("rows = %d, want only the header", len(rows))
	}
}

func TestServiceExportDocuments(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.Open(ctx, repository.Config{DSN: ":memory:"}, logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(db.Close)
	if err := db.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	docs := repository.NewDocumentRepository(db, logger)
	dims := repository.NewDimensionRepository(db, logger)

	doc, _, err := docs.UpsertByHash(ctx, repository.NewDocument{
		SourcePath: "/in/bracket.pdf", FileName: "bracket.pdf", FileExt: "pdf", ContentHash: []byte{1},
	})
	if err != nil {
		t.Fatal(err)
	}
	recs := sampleRecords()
	if err := dims.ReplaceForDocument(ctx, doc.ID, recs); err != nil {
		t.Fatal(err)
	}
	if err := docs.FinishSuccess(ctx, doc.ID, repository.FinishOutcome{
		Status: constants.JobStatusDone, PageCount: 2, Metadata: recs[0].Metadata,
	}); err != nil {
		t.Fatal(err)
	}

	svc := NewService(docs, dims, logger)
	b, err := svc.ExportDocumentsXLSX(ctx, []uuid.UUID{doc.ID}, LayoutExtended)
	if err != nil {
		t.Fatalf("ExportDocumentsXLSX: %v", err)
	}
	_, rows := readRows(t, b)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[2][0] != "BR-1001" || rows[2][4] != "Tapped Hole" {
		t.Errorf("second record row = %v", rows[2])
	}

	_, err = svc.ExportDocumentsXLSX(ctx, []uuid.UUID{uuid.New()}, LayoutBasic)
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("unknown document: err = %v, want ErrNotFound", err)
	}
}
