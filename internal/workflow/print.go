package workflow

import (
	"context"
	"sync"
	"time"
)

// CopiesPerLabel is how many physical copies each label is printed as.
const CopiesPerLabel = 2

// DefaultPrintWait bounds the wait for a print-completion signal.
const DefaultPrintWait = 60 * time.Second

// CompletionSignal is the message a print surface sends back once the
// platform print action finished. It carries the originating internal code
// and the raw decoded payload for correlation.
type CompletionSignal struct {
	InternalCode string `json:"internal_code"`
	Raw          string `json:"raw"`
}

// PrintJob is one open rendering surface. It is single-use: never reused
// across items.
type PrintJob interface {
	// Render draws one label, copies times, into the surface.
	Render(label Label, copies int) error
	// Print waits for all rendered images to load and triggers the platform
	// print action.
	Print() error
	Close() error
}

// Surface opens print jobs. Open fails with PrintError{PopupBlocked} when the
// host environment refuses to provide a surface.
type Surface interface {
	Open(ctx context.Context) (PrintJob, error)
}

// Acker performs the backend print acknowledgement for an internal code.
type Acker interface {
	AckPrinted(ctx context.Context, internalCode string) error
}

// PrintOrchestrator drives the print-and-acknowledge protocol: open surface,
// render every label twice, print, wait for a correlated completion signal,
// then acknowledge against the backend exactly once.
type PrintOrchestrator struct {
	surface Surface
	acker   Acker
	wait    time.Duration

	mu      sync.Mutex
	signals chan CompletionSignal
	acked   map[string]bool
}

// NewPrintOrchestrator returns an orchestrator waiting up to wait for
// completion signals (DefaultPrintWait when wait <= 0).
func NewPrintOrchestrator(surface Surface, acker Acker, wait time.Duration) *PrintOrchestrator {
	if wait <= 0 {
		wait = DefaultPrintWait
	}
	return &PrintOrchestrator{
		surface: surface,
		acker:   acker,
		wait:    wait,
		signals: make(chan CompletionSignal, 8),
		acked:   make(map[string]bool),
	}
}

// Deliver hands a completion signal to the orchestrator. It never blocks;
// signals nobody is waiting for are buffered and discarded by the next
// print invocation's drain.
func (o *PrintOrchestrator) Deliver(sig CompletionSignal) {
	select {
	case o.signals <- sig:
	default:
	}
}

// Acked reports whether the backend acknowledgement for internalCode already
// succeeded within this orchestrator's lifetime.
func (o *PrintOrchestrator) Acked(internalCode string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.acked[internalCode]
}

// PrintAll prints every label of item and waits for the completion signal.
// It returns (true, nil) once the print was confirmed and acknowledged,
// (false, nil) on a timeout (the item stays loaded; the user may retry
// manually), and (false, err) on print or acknowledgement failures.
func (o *PrintOrchestrator) PrintAll(ctx context.Context, item *ScannedItem) (bool, error) {
	job, err := o.surface.Open(ctx)
	if err != nil {
		return false, err
	}
	defer job.Close()

	for _, label := range item.Labels {
		if err := job.Render(label, CopiesPerLabel); err != nil {
			return false, err
		}
	}

	// Stale signals from an abandoned wait must not satisfy this print.
	o.drain()

	if err := job.Print(); err != nil {
		return false, err
	}

	timer := time.NewTimer(o.wait)
	defer timer.Stop()

	for {
		select {
		case sig := <-o.signals:
			// Correlation is mandatory: a signal for a different code is a
			// stale message from an earlier surface and is ignored.
			if sig.InternalCode != item.InternalCode {
				continue
			}
			return true, o.ackOnce(ctx, item.InternalCode)
		case <-timer.C:
			// Cancellation by timeout, not an error.
			return false, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// ackOnce performs the backend acknowledgement at most once per internal code.
// A second matching signal after a successful acknowledgement is a no-op.
func (o *PrintOrchestrator) ackOnce(ctx context.Context, internalCode string) error {
	o.mu.Lock()
	if o.acked[internalCode] {
		o.mu.Unlock()
		return nil
	}
	o.mu.Unlock()

	if err := o.acker.AckPrinted(ctx, internalCode); err != nil {
		return err
	}

	o.mu.Lock()
	o.acked[internalCode] = true
	o.mu.Unlock()
	return nil
}

func (o *PrintOrchestrator) drain() {
	for {
		select {
		case <-o.signals:
		default:
			return
		}
	}
}
