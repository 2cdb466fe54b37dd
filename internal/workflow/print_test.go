package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeJob struct {
	rendered  []Label
	copies    []int
	printed   bool
	closed    bool
	renderErr error
}

func (j *fakeJob) Render(l Label, copies int) error {
	if j.renderErr != nil {
		return j.renderErr
	}
	j.rendered = append(j.rendered, l)
	j.copies = append(j.copies, copies)
	return nil
}

func (j *fakeJob) Print() error { j.printed = true; return nil }
func (j *fakeJob) Close() error { j.closed = true; return nil }

type fakeSurface struct {
	job     *fakeJob
	openErr error
}

func (s *fakeSurface) Open(ctx context.Context) (PrintJob, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.job, nil
}

type fakeAcker struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (a *fakeAcker) AckPrinted(ctx context.Context, internalCode string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.codes = append(a.codes, internalCode)
	return nil
}

func (a *fakeAcker) acks() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.codes...)
}

func testItem(code string, labels int) *ScannedItem {
	item := &ScannedItem{InternalCode: code, Raw: `{"internal_code":"` + code + `"}`}
	for i := 0; i < labels; i++ {
		item.Labels = append(item.Labels, Label{Kind: "qr", Data: code})
	}
	return item
}

func TestPrintAllConfirmsAndAcks(t *testing.T) {
	job := &fakeJob{}
	acker := &fakeAcker{}
	o := NewPrintOrchestrator(&fakeSurface{job: job}, acker, time.Second)

	item := testItem("A1", 2)
	done := make(chan struct{})
	var completed bool
	var err error
	go func() {
		completed, err = o.PrintAll(context.Background(), item)
		close(done)
	}()

	// Give the orchestrator time to reach the wait.
	time.Sleep(20 * time.Millisecond)
	o.Deliver(CompletionSignal{InternalCode: "A1", Raw: item.Raw})
	<-done

	if err != nil {
		t.Fatalf("PrintAll failed: %v", err)
	}
	if !completed {
		t.Fatal("Expected confirmed print")
	}
	if len(job.rendered) != 2 {
		t.Errorf("Rendered labels: got %d, want 2", len(job.rendered))
	}
	for _, c := range job.copies {
		if c != CopiesPerLabel {
			t.Errorf("Each label must print %d copies, got %d", CopiesPerLabel, c)
		}
	}
	if !job.printed || !job.closed {
		t.Errorf("Job lifecycle: printed=%v closed=%v", job.printed, job.closed)
	}
	if got := acker.acks(); len(got) != 1 || got[0] != "A1" {
		t.Errorf("Acks: %v", got)
	}
}

func TestPrintAllIgnoresMismatchedSignal(t *testing.T) {
	acker := &fakeAcker{}
	o := NewPrintOrchestrator(&fakeSurface{job: &fakeJob{}}, acker, 100*time.Millisecond)

	done := make(chan struct{})
	var completed bool
	go func() {
		completed, _ = o.PrintAll(context.Background(), testItem("A1", 1))
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	// Stale signal from a different item's surface.
	o.Deliver(CompletionSignal{InternalCode: "OTHER"})
	<-done

	if completed {
		t.Error("Mismatched signal must not confirm the print")
	}
	if len(acker.acks()) != 0 {
		t.Errorf("No acknowledgement expected, got %v", acker.acks())
	}
}

func TestPrintAllDoubleSignalSingleAck(t *testing.T) {
	acker := &fakeAcker{}
	o := NewPrintOrchestrator(&fakeSurface{job: &fakeJob{}}, acker, time.Second)

	item := testItem("A1", 1)
	done := make(chan struct{})
	go func() {
		o.PrintAll(context.Background(), item)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	o.Deliver(CompletionSignal{InternalCode: "A1"})
	o.Deliver(CompletionSignal{InternalCode: "A1"})
	<-done

	if got := acker.acks(); len(got) != 1 {
		t.Fatalf("Expected exactly one acknowledgement, got %v", got)
	}

	// A later reprint of the same code must not re-acknowledge either.
	done2 := make(chan struct{})
	var completed bool
	go func() {
		completed, _ = o.PrintAll(context.Background(), item)
		close(done2)
	}()
	time.Sleep(20 * time.Millisecond)
	o.Deliver(CompletionSignal{InternalCode: "A1"})
	<-done2

	if !completed {
		t.Error("Reprint should still confirm")
	}
	if got := acker.acks(); len(got) != 1 {
		t.Errorf("Acknowledgement must stay at-most-once per code, got %v", got)
	}
}

func TestPrintAllTimeoutIsNotAnError(t *testing.T) {
	acker := &fakeAcker{}
	o := NewPrintOrchestrator(&fakeSurface{job: &fakeJob{}}, acker, 50*time.Millisecond)

	completed, err := o.PrintAll(context.Background(), testItem("A1", 1))
	if err != nil {
		t.Fatalf("Timeout must not surface as an error, got %v", err)
	}
	if completed {
		t.Error("Timed-out print must not be confirmed")
	}
	if len(acker.acks()) != 0 {
		t.Errorf("No acknowledgement on timeout, got %v", acker.acks())
	}
}

func TestPrintAllSurfaceRefused(t *testing.T) {
	o := NewPrintOrchestrator(&fakeSurface{openErr: &PrintError{Kind: PopupBlocked}}, &fakeAcker{}, time.Second)

	_, err := o.PrintAll(context.Background(), testItem("A1", 1))
	var perr *PrintError
	if !errors.As(err, &perr) || perr.Kind != PopupBlocked {
		t.Fatalf("Expected PopupBlocked, got %v", err)
	}
}

func TestPrintAllRenderFailure(t *testing.T) {
	job := &fakeJob{renderErr: &PrintError{Kind: RenderError, Message: "image load failed"}}
	o := NewPrintOrchestrator(&fakeSurface{job: job}, &fakeAcker{}, time.Second)

	_, err := o.PrintAll(context.Background(), testItem("A1", 1))
	var perr *PrintError
	if !errors.As(err, &perr) || perr.Kind != RenderError {
		t.Fatalf("Expected RenderError, got %v", err)
	}
	if !job.closed {
		t.Error("Surface must be closed on render failure")
	}
}

func TestPrintAllDrainsStaleSignals(t *testing.T) {
	acker := &fakeAcker{}
	o := NewPrintOrchestrator(&fakeSurface{job: &fakeJob{}}, acker, 50*time.Millisecond)

	// Signal delivered before the print starts is stale and must not satisfy it.
	o.Deliver(CompletionSignal{InternalCode: "A1"})

	completed, err := o.PrintAll(context.Background(), testItem("A1", 1))
	if err != nil {
		t.Fatalf("PrintAll failed: %v", err)
	}
	if completed {
		t.Error("Stale pre-print signal must not confirm the print")
	}
}
