package workflow

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Status is the single piece of process state per active session.
type Status int

const (
	StatusIdle Status = iota
	StatusScanning
	StatusItemLoaded
	StatusAwaitingDefectDecision
	StatusSubmitting
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusScanning:
		return "scanning"
	case StatusItemLoaded:
		return "item-loaded"
	case StatusAwaitingDefectDecision:
		return "awaiting-defect-decision"
	case StatusSubmitting:
		return "submitting"
	}
	return "unknown"
}

// Decoder is the exclusive camera/decoder resource. Start acquires it and
// feeds decoded texts to the callback until Stop or context cancellation;
// frames without a recognizable code are not reported.
type Decoder interface {
	Start(ctx context.Context, onDecoded func(text string)) error
	Stop() error
}

// LabelResolver fetches the printable labels for an internal code.
type LabelResolver interface {
	ResolveLabels(ctx context.Context, internalCode string) ([]Label, error)
}

// Result is one workflow outcome to submit to the backend.
type Result struct {
	InternalCode string
	Defect       bool
	Category     string
	Photos       []Photo
}

// Submitter sends a workflow outcome to the backend. Implementations are
// role-specific (quality control posts multipart defect payloads, packing
// posts the bare code).
type Submitter interface {
	Submit(ctx context.Context, res Result) error
}

// RepeatRequester files a request for approval to regenerate labels for a
// code whose labels were already issued once.
type RepeatRequester interface {
	SubmitRepeatRequest(ctx context.Context, internalCode string) error
}

// SessionConfig wires the role-specific collaborators into a session.
// Decoder, Resolver and Repeats may be nil when the role does not use them.
type SessionConfig struct {
	Decoder     Decoder
	Resolver    LabelResolver
	Submitter   Submitter
	Repeats     RepeatRequester
	HistorySize int
	Now         func() time.Time
}

var (
	ErrBadTransition = errors.New("workflow: action not allowed in current state")
	ErrNoSubmitter   = errors.New("workflow: no submitter configured")
	ErrNotInHistory  = errors.New("workflow: internal code not in history")
)

// Session owns all scan-session state: the active item, the bounded history
// and the workflow status. One session per scanning station; a restart
// discards everything by design.
type Session struct {
	mu      sync.Mutex
	cfg     SessionConfig
	status  Status
	current *ScannedItem
	history *History
	filter  DuplicateFilter
	now     func() time.Time

	// Uncommitted defect form state, discarded on cancel.
	pendingCategory string
	pendingPhotos   []Photo

	reprintFiled map[string]bool
}

// NewSession creates an idle session with an empty history.
func NewSession(cfg SessionConfig) *Session {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Session{
		cfg:          cfg,
		status:       StatusIdle,
		history:      NewHistory(cfg.HistorySize),
		now:          now,
		reprintFiled: make(map[string]bool),
	}
}

// Status returns the current workflow status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Current returns the active scanned item, or nil.
func (s *Session) Current() *ScannedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// History returns the session's scan history.
func (s *Session) History() *History {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history
}

// StartScan acquires the decoder and enters Scanning. The decoder is an
// exclusive resource: starting is only legal from Idle, which structurally
// prevents double acquisition.
func (s *Session) StartScan(ctx context.Context) error {
	s.mu.Lock()
	if s.status != StatusIdle {
		s.mu.Unlock()
		return ErrBadTransition
	}
	if s.cfg.Decoder == nil {
		s.mu.Unlock()
		return &DecodeError{Kind: DecodeDeviceNotFound, Message: "no decoder configured"}
	}
	s.filter.Reset()
	s.status = StatusScanning
	s.mu.Unlock()

	if err := s.cfg.Decoder.Start(ctx, func(text string) {
		// Errors are deliberately dropped here: a malformed frame leaves the
		// session Scanning and the next frame gets another chance.
		_ = s.HandleDecoded(ctx, text)
	}); err != nil {
		s.mu.Lock()
		s.status = StatusIdle
		s.mu.Unlock()
		return err
	}
	return nil
}

// CancelScan releases the decoder and returns to Idle without touching the
// item or the history.
func (s *Session) CancelScan() error {
	s.mu.Lock()
	if s.status != StatusScanning {
		s.mu.Unlock()
		return ErrBadTransition
	}
	s.status = StatusIdle
	dec := s.cfg.Decoder
	s.mu.Unlock()

	if dec != nil {
		return dec.Stop()
	}
	return nil
}

// HandleDecoded runs the decode -> parse -> duplicate-check -> label-resolve
// pipeline for one decoded text. It is the entry point for both the camera
// callback and wedge-scanner (stdin) input. Decoded texts arriving outside
// Scanning are ignored.
func (s *Session) HandleDecoded(ctx context.Context, raw string) error {
	s.mu.Lock()
	if s.status != StatusScanning {
		s.mu.Unlock()
		return nil
	}
	if !s.filter.ShouldProcess(raw) {
		s.mu.Unlock()
		return nil
	}

	payload, err := ParsePayload(raw)
	if err != nil {
		// Stay in Scanning; no history entry.
		s.mu.Unlock()
		return err
	}

	dec := s.cfg.Decoder
	resolver := s.cfg.Resolver
	s.mu.Unlock()

	// Successful decode releases the camera before any network work.
	if dec != nil {
		_ = dec.Stop()
	}

	item := &ScannedItem{
		InternalCode: payload.InternalCode,
		Product:      payload.Product,
		Color:        payload.Color,
		Size:         payload.Size,
		ScannedAt:    s.now(),
		Raw:          raw,
	}

	if resolver != nil {
		labels, rerr := resolver.ResolveLabels(ctx, payload.InternalCode)
		if rerr != nil {
			var lre *LabelResolutionError
			if errors.As(rerr, &lre) && lre.Kind == RetryNotAllowed {
				item.ReprintRequired = true
			} else {
				s.mu.Lock()
				if s.status == StatusScanning {
					s.status = StatusIdle
				}
				s.mu.Unlock()
				return rerr
			}
		} else {
			item.Labels = labels
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// The scan may have been cancelled or the session reset while the
	// resolver was on the wire; a cancelled scan loads nothing.
	if s.status != StatusScanning {
		return nil
	}
	s.current = item
	s.history.Push(item)
	s.status = StatusItemLoaded
	return nil
}

// SelectFromHistory re-displays an item already scanned in this session.
// Labels are cached on the entity, so no resolution call is made.
func (s *Session) SelectFromHistory(internalCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusIdle && s.status != StatusItemLoaded {
		return ErrBadTransition
	}
	item := s.history.Find(internalCode)
	if item == nil {
		return ErrNotInHistory
	}
	s.current = item
	s.status = StatusItemLoaded
	return nil
}

// Accept submits the active item as passed. On success the session returns
// to Idle; on failure the item stays loaded for a manual retry.
func (s *Session) Accept(ctx context.Context) error {
	s.mu.Lock()
	if s.status != StatusItemLoaded || s.current == nil {
		s.mu.Unlock()
		return ErrBadTransition
	}
	if s.cfg.Submitter == nil {
		s.mu.Unlock()
		return ErrNoSubmitter
	}
	res := Result{InternalCode: s.current.InternalCode}
	s.status = StatusSubmitting
	s.mu.Unlock()

	err := s.cfg.Submitter.Submit(ctx, res)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status = StatusItemLoaded
		return err
	}
	s.current = nil
	s.status = StatusIdle
	return nil
}

// Reject opens the defect decision for the active item.
func (s *Session) Reject() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusItemLoaded || s.current == nil {
		return ErrBadTransition
	}
	s.status = StatusAwaitingDefectDecision
	return nil
}

// SetDefectCategory records the chosen defect type while awaiting the decision.
func (s *Session) SetDefectCategory(category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusAwaitingDefectDecision {
		return ErrBadTransition
	}
	s.pendingCategory = category
	return nil
}

// AddDefectPhoto attaches one evidence photo while awaiting the decision.
func (s *Session) AddDefectPhoto(p Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusAwaitingDefectDecision {
		return ErrBadTransition
	}
	s.pendingPhotos = append(s.pendingPhotos, p)
	return nil
}

// CancelDefect discards the uncommitted defect form and returns to ItemLoaded.
func (s *Session) CancelDefect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusAwaitingDefectDecision {
		return ErrBadTransition
	}
	s.pendingCategory = ""
	s.pendingPhotos = nil
	s.status = StatusItemLoaded
	return nil
}

// SubmitDefect validates and submits the defect registration. A missing or
// unknown category and an empty photo list are rejected locally before any
// network call.
func (s *Session) SubmitDefect(ctx context.Context) error {
	s.mu.Lock()
	if s.status != StatusAwaitingDefectDecision || s.current == nil {
		s.mu.Unlock()
		return ErrBadTransition
	}
	if s.cfg.Submitter == nil {
		s.mu.Unlock()
		return ErrNoSubmitter
	}
	if !IsDefectCategory(s.pendingCategory) {
		s.mu.Unlock()
		return &ValidationError{Kind: MissingDefectType}
	}
	if len(s.pendingPhotos) == 0 {
		s.mu.Unlock()
		return &ValidationError{Kind: MissingPhotos}
	}
	res := Result{
		InternalCode: s.current.InternalCode,
		Defect:       true,
		Category:     s.pendingCategory,
		Photos:       s.pendingPhotos,
	}
	s.status = StatusSubmitting
	s.mu.Unlock()

	err := s.cfg.Submitter.Submit(ctx, res)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status = StatusAwaitingDefectDecision
		return err
	}
	s.pendingCategory = ""
	s.pendingPhotos = nil
	s.current = nil
	s.status = StatusIdle
	return nil
}

// RequestReprint files a repeat-request for the active item. It is only
// meaningful after label resolution answered RetryNotAllowed, and it is filed
// at most once per code within this session.
func (s *Session) RequestReprint(ctx context.Context) error {
	s.mu.Lock()
	if s.status != StatusItemLoaded || s.current == nil {
		s.mu.Unlock()
		return ErrBadTransition
	}
	if s.cfg.Repeats == nil {
		s.mu.Unlock()
		return ErrNoSubmitter
	}
	if !s.current.ReprintRequired {
		s.mu.Unlock()
		return ErrBadTransition
	}
	code := s.current.InternalCode
	if s.reprintFiled[code] {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.cfg.Repeats.SubmitRepeatRequest(ctx, code); err != nil {
		return err
	}

	s.mu.Lock()
	s.reprintFiled[code] = true
	s.mu.Unlock()
	return nil
}

// Reset discards all session state: active item, history, defect form and
// duplicate filter. A running scan is cancelled and the decoder released.
func (s *Session) Reset() {
	s.mu.Lock()
	scanning := s.status == StatusScanning
	dec := s.cfg.Decoder
	s.current = nil
	s.pendingCategory = ""
	s.pendingPhotos = nil
	s.history.Clear()
	s.filter.Reset()
	s.reprintFiled = make(map[string]bool)
	s.status = StatusIdle
	s.mu.Unlock()

	if scanning && dec != nil {
		_ = dec.Stop()
	}
}
