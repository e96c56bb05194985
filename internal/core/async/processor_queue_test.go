package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/ballooning/constants"
	"github.com/joseph-ayodele/ballooning/internal/common"
	"github.com/joseph-ayodele/ballooning/internal/core"
)

type fakeProcessor struct {
	mu      sync.Mutex
	seen    []uuid.UUID
	traces  []string
	started chan uuid.UUID
	release chan struct{}
}

func (f *fakeProcessor) ProcessDocument(ctx context.Context, id uuid.UUID) (core.Summary, error) {
	if f.started != nil {
		f.started <- id
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, id)
	f.traces = append(f.traces, common.RequestIDFromContext(ctx))
	return core.Summary{DocumentID: id, Status: constants.JobStatusDone}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQueueProcessesEveryJob(t *testing.T) {
	proc := &fakeProcessor{}
	q := NewProcessorQueue(proc, quietLogger(), WithWorkers(3), WithQueueSize(2), WithProcessTimeout(time.Second))

	var want []string
	for i := 0; i < 10; i++ {
		id := uuid.New()
		want = append(want, id.String())
		if err := q.Enqueue(context.Background(), Job{DocumentID: id}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	q.Shutdown(context.Background())

	var got []string
	for _, id := range proc.seen {
		got = append(got, id.String())
	}
	sort.Strings(want)
	sort.Strings(got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("processed documents mismatch (-want +got):\n%s", diff)
	}
	for _, tr := range proc.traces {
		if tr == "" {
			t.Error("job ran without a trace id in its context")
		}
	}
}

func TestEnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&fakeProcessor{}, quietLogger(), WithWorkers(1))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{DocumentID: uuid.New()})
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
}

func TestEnqueueBackpressureHonoursContext(t *testing.T) {
	proc := &fakeProcessor{started: make(chan uuid.UUID, 4), release: make(chan struct{})}
	q := NewProcessorQueue(proc, quietLogger(), WithWorkers(1), WithQueueSize(1))

	first := uuid.New()
	if err := q.Enqueue(context.Background(), Job{DocumentID: first}); err != nil {
		t.Fatal(err)
	}
	if got := <-proc.started; got != first {
		t.Fatalf("worker started %s, want %s", got, first)
	}
	// The worker is busy and the single slot gets filled.
	if err := q.Enqueue(context.Background(), Job{DocumentID: uuid.New()}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, Job{DocumentID: uuid.New()})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}

	close(proc.release)
	q.Shutdown(context.Background())
	if len(proc.seen) != 2 {
		t.Errorf("processed %d documents, want 2", len(proc.seen))
	}
}
