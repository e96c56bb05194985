package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/ballooning/internal/core"
	"github.com/joseph-ayodele/ballooning/internal/core/async"
	"github.com/joseph-ayodele/ballooning/internal/core/dimension"
	"github.com/joseph-ayodele/ballooning/internal/core/tokens"
	"github.com/joseph-ayodele/ballooning/internal/export"
	"github.com/joseph-ayodele/ballooning/internal/ingest"
	"github.com/joseph-ayodele/ballooning/internal/repository"
)

const drawingDump = `{
  "pages": [
    {
      "index": 0,
      "height": 1000,
      "raw_text": "Part No: BR-1001\nMaterial: AL 6061",
      "tokens": [
        {"text": "⌀14 ±0.05", "x0": 100, "y0": 200, "x1": 160, "y1": 210},
        {"text": "M6", "x0": 300, "y0": 300, "x1": 315, "y1": 310},
        {"text": "45", "x0": 100, "y0": 500, "x1": 115, "y1": 510}
      ]
    }
  ]
}`

type recordingQueue struct {
	mu   sync.Mutex
	jobs []async.Job
}

func (q *recordingQueue) Enqueue(_ context.Context, job async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

type harness struct {
	client BallooningServiceClient
	health healthpb.HealthClient
	queue  *recordingQueue
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
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
	ing := ingest.NewFSIngestor(docs, logger)
	extractor, err := tokens.NewExtractor(tokens.Config{}, logger)
	if err != nil {
		t.Fatal(err)
	}
	proc := core.NewProcessor(logger, extractor, dimension.NewEngine(), docs, dims, core.WithIngestor(ing))

	queue := &recordingQueue{}
	svc, err := NewBallooningService(Deps{
		Processor:  proc,
		Ingestor:   ing,
		Queue:      queue,
		Documents:  docs,
		Dimensions: dims,
		Exporter:   export.NewService(docs, dims, logger),
	}, logger)
	if err != nil {
		t.Fatalf("NewBallooningService: %v", err)
	}

	lis := bufconn.Listen(1 << 20)
	srv, _ := NewGRPCServer(svc, logger)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &harness{
		client: NewBallooningServiceClient(conn),
		health: healthpb.NewHealthClient(conn),
		queue:  queue,
		dir:    t.TempDir(),
	}
}

func (h *harness) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func wantCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	if got := status.Code(err); got != code {
		t.Fatalf("code: got %v (%v), want %v", got, err, code)
	}
}

func TestHealthServing(t *testing.T) {
	h := newHarness(t)
	for _, svc := range []string{"", ServiceName} {
		resp, err := h.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: svc})
		if err != nil {
			t.Fatalf("Check(%q): %v", svc, err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Errorf("Check(%q) = %v, want SERVING", svc, resp.GetStatus())
		}
	}
}

func TestProcessListExport(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	path := h.write(t, "bracket.json", drawingDump)

	resp, err := h.client.ProcessDrawing(ctx, mustStruct(t, map[string]any{"path": path}))
	if err != nil {
		t.Fatalf("ProcessDrawing: %v", err)
	}
	fields := resp.GetFields()
	if got := fields["status"].GetStringValue(); got != "DONE" {
		t.Errorf("status: got %q, want DONE", got)
	}
	if got := fields["dimensions"].GetNumberValue(); got != 3 {
		t.Errorf("dimensions: got %v, want 3", got)
	}
	docID := fields["document_id"].GetStringValue()

	list, err := h.client.ListDimensions(ctx, mustStruct(t, map[string]any{"document_id": docID}))
	if err != nil {
		t.Fatalf("ListDimensions: %v", err)
	}
	if !list.GetFields()["complete"].GetBoolValue() {
		t.Errorf("complete: got false for a DONE document")
	}
	records := list.GetFields()["records"].GetListValue().GetValues()
	if len(records) != 3 {
		t.Fatalf("records: got %d, want 3", len(records))
	}
	first := records[0].GetStructValue().GetFields()
	if first["balloon_number"].GetNumberValue() != 1 || first["dimension_type"].GetStringValue() != "Diametrical" {
		t.Errorf("first record: %v", first)
	}
	if first["upper_limit"].GetNumberValue() != 14.05 {
		t.Errorf("upper limit: got %v", first["upper_limit"])
	}
	hole := records[1].GetStructValue().GetFields()
	if hole["upper_limit"].GetStringValue() != "-" || hole["tolerance"].GetStringValue() != "-" {
		t.Errorf("tapped hole record: %v", hole)
	}
	third := records[2].GetStructValue().GetFields()
	if third["tolerance"].GetStringValue() != "±0.30" {
		t.Errorf("general tolerance: got %q, want ±0.30", third["tolerance"].GetStringValue())
	}
	if md := list.GetFields()["metadata"].GetStructValue().GetFields(); md["part_number"].GetStringValue() != "BR-1001" {
		t.Errorf("metadata: %v", md)
	}

	xlsx, err := h.client.ExportDimensions(ctx, mustStruct(t, map[string]any{
		"document_ids": []any{docID},
		"layout":       "basic",
	}))
	if err != nil {
		t.Fatalf("ExportDimensions: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(xlsx.GetValue()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(export.SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 || rows[0][0] != "File Name" || rows[1][0] != "bracket.json" {
		t.Errorf("export rows: %v", rows)
	}
}

func TestProcessDrawingValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	tests := []struct {
		name string
		req  map[string]any
		code codes.Code
	}{
		{"missing path", map[string]any{}, codes.InvalidArgument},
		{"empty path", map[string]any{"path": ""}, codes.InvalidArgument},
		{"unknown field", map[string]any{"path": "x.pdf", "profile": "a"}, codes.InvalidArgument},
		{"wrong type", map[string]any{"path": 12}, codes.InvalidArgument},
		{"missing file", map[string]any{"path": filepath.Join(h.dir, "nope.pdf")}, codes.InvalidArgument},
		{"unsupported extension", map[string]any{"path": h.write(t, "notes.txt", "x")}, codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.client.ProcessDrawing(ctx, mustStruct(t, tt.req))
			wantCode(t, err, tt.code)
		})
	}
}

func TestProcessDrawingReportsFailure(t *testing.T) {
	h := newHarness(t)
	path := h.write(t, "broken.json", `{"pages": 3}`)
	resp, err := h.client.ProcessDrawing(context.Background(), mustStruct(t, map[string]any{"path": path}))
	if err != nil {
		t.Fatalf("ProcessDrawing: %v", err)
	}
	if got := resp.GetFields()["status"].GetStringValue(); got != "FAILED" {
		t.Errorf("status: got %q, want FAILED", got)
	}
	if resp.GetFields()["error"].GetStringValue() == "" {
		t.Error("expected an error message in the response")
	}
}

func TestListDimensionsErrors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.client.ListDimensions(ctx, mustStruct(t, map[string]any{"document_id": "not-a-uuid"}))
	wantCode(t, err, codes.InvalidArgument)

	_, err = h.client.ListDimensions(ctx, mustStruct(t, map[string]any{"document_id": uuid.NewString()}))
	wantCode(t, err, codes.NotFound)
}

func TestExportDimensionsErrors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.client.ExportDimensions(ctx, mustStruct(t, map[string]any{"document_ids": []any{}}))
	wantCode(t, err, codes.InvalidArgument)

	_, err = h.client.ExportDimensions(ctx, mustStruct(t, map[string]any{
		"document_ids": []any{uuid.NewString()},
		"layout":       "wide",
	}))
	wantCode(t, err, codes.InvalidArgument)

	_, err = h.client.ExportDimensions(ctx, mustStruct(t, map[string]any{"document_ids": []any{uuid.NewString()}}))
	wantCode(t, err, codes.NotFound)
}

func TestIngestDirectoryQueuesDocuments(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.write(t, "in/a.json", drawingDump)
	h.write(t, "in/b.pdf", "%PDF-1.4")
	h.write(t, "in/.c.pdf", "%PDF-1.4 hidden")

	resp, err := h.client.IngestDirectory(ctx, mustStruct(t, map[string]any{"root": filepath.Join(h.dir, "in")}))
	if err != nil {
		t.Fatalf("IngestDirectory: %v", err)
	}
	fields := resp.GetFields()
	if fields["matched"].GetNumberValue() != 2 || fields["queued"].GetNumberValue() != 2 {
		t.Errorf("stats: matched=%v queued=%v", fields["matched"], fields["queued"])
	}
	if len(h.queue.jobs) != 2 {
		t.Errorf("queued jobs: got %d, want 2", len(h.queue.jobs))
	}

	_, err = h.client.IngestDirectory(ctx, mustStruct(t, map[string]any{"root": filepath.Join(h.dir, "missing")}))
	wantCode(t, err, codes.InvalidArgument)
}
