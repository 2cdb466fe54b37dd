package scanner

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	qrgen "github.com/skip2/go-qrcode"

	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/workflow"
)

func qrImage(t *testing.T, content string) image.Image {
	t.Helper()
	data, err := qrgen.Encode(content, qrgen.Medium, 256)
	if err != nil {
		t.Fatalf("Failed to encode QR: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}
	return img
}

func TestDecodeImageRoundtrip(t *testing.T) {
	content := `{"internal_code":"A1","product":"Shirt","color":"Red","size":"M"}`
	img := qrImage(t, content)

	text, err := DecodeImage(img)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if text != content {
		t.Errorf("Decoded text mismatch: got %s, want %s", text, content)
	}
}

func TestDecodeFileRoundtrip(t *testing.T) {
	data, err := qrgen.Encode("hello-scanflow", qrgen.Medium, 256)
	if err != nil {
		t.Fatalf("Failed to encode QR: %v", err)
	}

	text, err := DecodeFile(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to decode file: %v", err)
	}
	if text != "hello-scanflow" {
		t.Errorf("Decoded text mismatch: got %s", text)
	}
}

func TestDecodeImageNoCode(t *testing.T) {
	blank := image.NewRGBA(image.Rect(0, 0, 64, 64))

	_, err := DecodeImage(blank)
	var derr *workflow.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("Expected DecodeError, got %v", err)
	}
	if derr.Kind != workflow.DecodeUnknown {
		t.Errorf("Kind mismatch: got %v", derr.Kind)
	}
}

func TestDecodeFileUnreadable(t *testing.T) {
	_, err := DecodeFile(bytes.NewReader([]byte("not an image")))
	var derr *workflow.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("Expected DecodeError, got %v", err)
	}
}

// stubSource serves a fixed frame and records lifecycle calls.
type stubSource struct {
	mu       sync.Mutex
	frame    image.Image
	openErr  error
	frameErr error
	opened   bool
	closed   bool
}

func (s *stubSource) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return s.openErr
	}
	s.opened = true
	return nil
}

func (s *stubSource) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frameErr != nil {
		return nil, s.frameErr
	}
	return s.frame, nil
}

func (s *stubSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *stubSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func TestCameraDecoderDecodesFrame(t *testing.T) {
	src := &stubSource{frame: qrImage(t, "camera-code")}
	dec := NewCameraDecoder(src, 50)

	got := make(chan string, 16)
	if err := dec.Start(context.Background(), func(text string) { got <- text }); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer dec.Stop()

	select {
	case text := <-got:
		if text != "camera-code" {
			t.Errorf("Decoded text mismatch: got %s", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for decode")
	}
}

func TestCameraDecoderStopReleasesSource(t *testing.T) {
	// A blank frame keeps the loop in its steady no-code state.
	src := &stubSource{frame: image.NewRGBA(image.Rect(0, 0, 32, 32))}
	dec := NewCameraDecoder(src, 50)

	if err := dec.Start(context.Background(), func(string) {}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := dec.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !src.isClosed() {
		if time.Now().After(deadline) {
			t.Fatal("Source was not released after Stop")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCameraDecoderAcquisitionErrors(t *testing.T) {
	cases := []struct {
		openErr error
		kind    workflow.DecodeErrorKind
	}{
		{ErrPermissionDenied, workflow.DecodePermissionDenied},
		{ErrDeviceNotFound, workflow.DecodeDeviceNotFound},
		{ErrDeviceBusy, workflow.DecodeDeviceBusy},
		{errors.New("something else"), workflow.DecodeUnknown},
	}

	for _, tc := range cases {
		dec := NewCameraDecoder(&stubSource{openErr: tc.openErr}, 10)
		err := dec.Start(context.Background(), func(string) {})
		var derr *workflow.DecodeError
		if !errors.As(err, &derr) {
			t.Errorf("%v: expected DecodeError, got %v", tc.openErr, err)
			continue
		}
		if derr.Kind != tc.kind {
			t.Errorf("%v: kind mismatch: got %v, want %v", tc.openErr, derr.Kind, tc.kind)
		}
	}
}

func TestCameraDecoderExclusive(t *testing.T) {
	src := &stubSource{frame: image.NewRGBA(image.Rect(0, 0, 32, 32))}
	dec := NewCameraDecoder(src, 50)

	if err := dec.Start(context.Background(), func(string) {}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer dec.Stop()

	err := dec.Start(context.Background(), func(string) {})
	var derr *workflow.DecodeError
	if !errors.As(err, &derr) || derr.Kind != workflow.DecodeDeviceBusy {
		t.Errorf("Second Start should fail with DeviceBusy, got %v", err)
	}
}

func TestDeviceLossReportedMidSession(t *testing.T) {
	src := &stubSource{frameErr: ErrDeviceNotFound}
	dec := NewCameraDecoder(src, 50)

	failures := make(chan error, 1)
	dec.OnError = func(err error) { failures <- err }

	if err := dec.Start(context.Background(), func(string) {}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer dec.Stop()

	select {
	case err := <-failures:
		var derr *workflow.DecodeError
		if !errors.As(err, &derr) || derr.Kind != workflow.DecodeDeviceNotFound {
			t.Errorf("expected DeviceNotFound, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("device loss never reported")
	}

	// The loop must have released the source on its way out.
	deadline := time.Now().Add(2 * time.Second)
	for !src.isClosed() {
		if time.Now().After(deadline) {
			t.Fatal("source not released after device loss")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStopDoesNotReportDeviceLoss(t *testing.T) {
	src := &stubSource{frame: image.NewRGBA(image.Rect(0, 0, 32, 32))}
	dec := NewCameraDecoder(src, 50)

	failures := make(chan error, 1)
	dec.OnError = func(err error) { failures <- err }

	if err := dec.Start(context.Background(), func(string) {}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	dec.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for !src.isClosed() {
		if time.Now().After(deadline) {
			t.Fatal("source not released after Stop")
		}
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case err := <-failures:
		t.Errorf("Stop reported a failure: %v", err)
	default:
	}
}
