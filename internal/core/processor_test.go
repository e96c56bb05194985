package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/ballooning/constants"
	"github.com/joseph-ayodele/ballooning/internal/common"
	"github.com/joseph-ayodele/ballooning/internal/core/annotate"
	"github.com/joseph-ayodele/ballooning/internal/core/dimension"
	"github.com/joseph-ayodele/ballooning/internal/core/tokens"
	"github.com/joseph-ayodele/ballooning/internal/ingest"
	"github.com/joseph-ayodele/ballooning/internal/repository"
)

const bracketDump = `{
  "pages": [
    {
      "index": 0,
      "width": 800,
      "height": 1000,
      "raw_text": "Part No: BR-1001 | Rev A\nMaterial: AL 6061",
      "tokens": [
        {"text": "⌀14 ±0.05", "x0": 100, "y0": 200, "x1": 160, "y1": 210},
        {"text": "M6", "x0": 300, "y0": 300, "x1": 315, "y1": 310},
        {"text": "25", "x0": 100, "y0": 400, "x1": 115, "y1": 410},
        {"text": "-0.1", "x0": 130, "y0": 400, "x1": 150, "y1": 408},
        {"text": "-0.3", "x0": 130, "y0": 410, "x1": 150, "y1": 418},
        {"text": "99", "x0": 100, "y0": 900, "x1": 115, "y1": 910}
      ]
    }
  ]
}`

const emptyDump = `{
  "pages": [
    {"index": 0, "height": 1000, "raw_text": "Title: Cover", "tokens": [
      {"text": "NOTES", "x0": 100, "y0": 200, "x1": 140, "y1": 210}
    ]}
  ]
}`

type fakeRenderer struct {
	calls  int
	reqs   []dimension.AnnotationRequest
	outDir string
	base   string
	err    error
}

func (f *fakeRenderer) RenderDocument(_ context.Context, doc *tokens.Document, reqs []dimension.AnnotationRequest, outDir, base string) (annotate.DocumentOutcome, error) {
	f.calls++
	f.reqs = reqs
	f.outDir = outDir
	f.base = base
	if f.err != nil {
		return annotate.DocumentOutcome{}, f.err
	}
	img := filepath.Join(outDir, base+"_page1.png")
	return annotate.DocumentOutcome{
		Pages: []annotate.PageOutcome{{
			Page:  1,
			Image: img,
			Outcomes: []annotate.Outcome{
				{Sequence: 1, Highlights: 1},
				{Sequence: 2, Err: errors.New("text not found")},
			},
		}},
		Preview: img,
	}, nil
}

type fixture struct {
	proc     *Processor
	docs     repository.DocumentRepository
	dims     repository.DimensionRepository
	renderer *fakeRenderer
	dir      string
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: ":memory:"}, quietLogger())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(db.Close)
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	extractor, err := tokens.NewExtractor(tokens.Config{}, quietLogger())
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}

	f := &fixture{
		docs:     repository.NewDocumentRepository(db, quietLogger()),
		dims:     repository.NewDimensionRepository(db, quietLogger()),
		renderer: &fakeRenderer{},
		dir:      t.TempDir(),
	}
	f.proc = NewProcessor(quietLogger(), extractor, dimension.NewEngine(), f.docs, f.dims,
		WithRenderer(f.renderer, filepath.Join(f.dir, "out")),
		WithIngestor(ingest.NewFSIngestor(f.docs, quietLogger())),
	)
	return f
}

func (f *fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessFileDone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := f.write(t, "bracket.json", bracketDump)

	sum, err := f.proc.ProcessFile(ctx, path)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if sum.Status != constants.JobStatusDone {
		t.Fatalf("status: got %s, want DONE", sum.Status)
	}
	if sum.FileName != "bracket.json" || sum.Pages != 1 {
		t.Errorf("summary: file=%q pages=%d", sum.FileName, sum.Pages)
	}

	type row struct {
		Seq       int
		Kind      constants.DimensionKind
		Tolerance string
		Upper     string
		Lower     string
	}
	var got []row
	for _, r := range sum.Records {
		got = append(got, row{r.Sequence, r.Kind, r.Tolerance, r.Upper.String(), r.Lower.String()})
	}
	want := []row{
		{1, constants.Diametrical, "±0.05", "14.05", "13.95"},
		{2, constants.TappedHole, "-", "-", "-"},
		{3, constants.Linear, "-0.3 to -0.1", "24.9", "24.7"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	if sum.Records[0].PartNumber != "BR-1001" || sum.Records[0].Material != "AL 6061" {
		t.Errorf("metadata not merged into records: %+v", sum.Records[0].Metadata)
	}

	if f.renderer.calls != 1 || len(f.renderer.reqs) != 3 {
		t.Fatalf("renderer: calls=%d requests=%d", f.renderer.calls, len(f.renderer.reqs))
	}
	if f.renderer.base != "bracket" {
		t.Errorf("render base: got %q, want %q", f.renderer.base, "bracket")
	}
	if len(sum.Warnings) != 1 || !strings.Contains(sum.Warnings[0], "balloon 2") {
		t.Errorf("warnings: %q", sum.Warnings)
	}

	stored, err := f.docs.GetByID(ctx, sum.DocumentID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != constants.JobStatusDone || stored.PageCount != 1 {
		t.Errorf("stored: status=%s pages=%d", stored.Status, stored.PageCount)
	}
	if stored.PreviewPath == nil || *stored.PreviewPath != sum.Preview {
		t.Errorf("preview: stored %v, summary %q", stored.PreviewPath, sum.Preview)
	}
	dims, err := f.dims.ListByDocument(ctx, sum.DocumentID)
	if err != nil || len(dims) != 3 {
		t.Fatalf("stored dimensions: %d, err %v", len(dims), err)
	}

	// Processing again replaces rather than appends.
	again, err := f.proc.ProcessDocument(ctx, sum.DocumentID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sum.Records, again.Records); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
	dims, _ = f.dims.ListByDocument(ctx, sum.DocumentID)
	if len(dims) != 3 {
		t.Errorf("after re-run: %d stored dimensions, want 3", len(dims))
	}
}

func TestProcessFileNoDimensions(t *testing.T) {
	f := newFixture(t)
	sum, err := f.proc.ProcessFile(context.Background(), f.write(t, "cover.json", emptyDump))
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if sum.Status != constants.JobStatusNoDimensions {
		t.Errorf("status: got %s, want NO_DIMENSIONS", sum.Status)
	}
	if len(sum.Records) != 0 || f.renderer.calls != 0 {
		t.Errorf("records=%d renderer calls=%d, want none", len(sum.Records), f.renderer.calls)
	}
	if len(sum.Warnings) != 1 || sum.Warnings[0] != "No dimensions detected in cover.json" {
		t.Errorf("warnings: %q", sum.Warnings)
	}
	stored, _ := f.docs.GetByID(context.Background(), sum.DocumentID)
	if stored.Metadata.PartName != "Cover" {
		t.Errorf("metadata: got %+v", stored.Metadata)
	}
}

func TestProcessFileExtractionFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sum, err := f.proc.ProcessFile(ctx, f.write(t, "broken.json", `{"pages": "nope"}`))
	if err == nil {
		t.Fatal("expected an error for an invalid token dump")
	}
	if sum.Status != constants.JobStatusFailed {
		t.Errorf("status: got %s, want FAILED", sum.Status)
	}
	stored, gerr := f.docs.GetByID(ctx, sum.DocumentID)
	if gerr != nil {
		t.Fatal(gerr)
	}
	if stored.Status != constants.JobStatusFailed || stored.ErrorMessage == nil {
		t.Errorf("stored: status=%s error=%v", stored.Status, stored.ErrorMessage)
	}
}

// statusFailingRepo fails SetStatus for one status and delegates the rest.
type statusFailingRepo struct {
	repository.DocumentRepository
	failOn constants.JobStatus
}

func (r *statusFailingRepo) SetStatus(ctx context.Context, id uuid.UUID, status constants.JobStatus) error {
	if status == r.failOn {
		return errors.New("connection reset")
	}
	return r.DocumentRepository.SetStatus(ctx, id, status)
}

func TestStatusUpdateFailureMarksDocumentFailed(t *testing.T) {
	for _, failOn := range []constants.JobStatus{constants.JobStatusRunning, constants.JobStatusTokensOK} {
		t.Run(string(failOn), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			extractor, err := tokens.NewExtractor(tokens.Config{}, quietLogger())
			if err != nil {
				t.Fatal(err)
			}
			docs := &statusFailingRepo{DocumentRepository: f.docs, failOn: failOn}
			proc := NewProcessor(quietLogger(), extractor, nil, docs, f.dims,
				WithIngestor(ingest.NewFSIngestor(f.docs, quietLogger())))

			sum, err := proc.ProcessFile(ctx, f.write(t, "bracket.json", bracketDump))
			if err == nil || !strings.Contains(err.Error(), "connection reset") {
				t.Fatalf("err = %v, want the status update error", err)
			}
			if sum.Status != constants.JobStatusFailed {
				t.Errorf("status: got %s, want FAILED", sum.Status)
			}
			stored, err := f.docs.GetByID(ctx, sum.DocumentID)
			if err != nil {
				t.Fatal(err)
			}
			if stored.Status != constants.JobStatusFailed || stored.ErrorMessage == nil ||
				!strings.Contains(*stored.ErrorMessage, "connection reset") {
				t.Errorf("stored: status=%s error=%v", stored.Status, stored.ErrorMessage)
			}
		})
	}
}

func TestRenderFailureIsAWarning(t *testing.T) {
	f := newFixture(t)
	f.renderer.err = errors.New("disk full")
	sum, err := f.proc.ProcessFile(context.Background(), f.write(t, "bracket.json", bracketDump))
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if sum.Status != constants.JobStatusDone || len(sum.Records) != 3 {
		t.Errorf("status=%s records=%d", sum.Status, len(sum.Records))
	}
	if len(sum.Warnings) != 1 || !strings.Contains(sum.Warnings[0], "disk full") {
		t.Errorf("warnings: %q", sum.Warnings)
	}
}

func TestProcessFileWithoutIngestor(t *testing.T) {
	proc := NewProcessor(quietLogger(), nil, nil, nil, nil)
	_, err := proc.ProcessFile(context.Background(), "x.pdf")
	if !errors.Is(err, common.ErrInternal) {
		t.Fatalf("err = %v, want ErrInternal", err)
	}
}
