// Package scanner adapts a QR decoding capability to the scan workflow: a
// frame-sampling camera decoder and a single-shot image-file decoder. It
// yields decoded text only; payload interpretation happens downstream.
package scanner

import (
	"context"
	"errors"
	"image"
	"io"
	"sync"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/workflow"
)

// DefaultFrameRate is how many camera frames per second are sampled while a
// scan session is active.
const DefaultFrameRate = 10

// Sentinel errors FrameSource implementations return from Open so acquisition
// failures classify into the workflow's decode error taxonomy.
var (
	ErrPermissionDenied = errors.New("scanner: camera permission denied")
	ErrDeviceNotFound   = errors.New("scanner: camera not found")
	ErrDeviceBusy       = errors.New("scanner: camera busy")
)

// FrameSource is an exclusive camera handle. Open acquires the device, Frame
// grabs one image, Close releases the device.
type FrameSource interface {
	Open(ctx context.Context) error
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// CameraDecoder samples frames from a FrameSource at a fixed rate and reports
// every successfully decoded text. Frames without a recognizable code are the
// expected steady state and are silently skipped. The source is released on
// every exit path: Stop, context cancellation or a frame failure.
type CameraDecoder struct {
	src FrameSource
	fps int

	// OnError, when set, receives the classified failure if the device is
	// lost mid-session. The loop has already released the source by then.
	OnError func(error)

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// NewCameraDecoder wraps src, sampling fps frames per second
// (DefaultFrameRate when fps <= 0).
func NewCameraDecoder(src FrameSource, fps int) *CameraDecoder {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return &CameraDecoder{src: src, fps: fps}
}

// Start acquires the camera and begins sampling in the background. Only one
// acquisition may be outstanding.
func (d *CameraDecoder) Start(ctx context.Context, onDecoded func(text string)) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return &workflow.DecodeError{Kind: workflow.DecodeDeviceBusy, Message: "scan session already active"}
	}
	d.running = true
	d.mu.Unlock()

	if err := d.src.Open(ctx); err != nil {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
		return classifyAcquisition(err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	go d.loop(loopCtx, onDecoded)
	return nil
}

// Stop cancels the sampling loop. It returns immediately; the loop releases
// the camera as it winds down, so Stop is safe to call from the decode
// callback itself.
func (d *CameraDecoder) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	return nil
}

func (d *CameraDecoder) loop(ctx context.Context, onDecoded func(string)) {
	defer func() {
		_ = d.src.Close()
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	reader := qrcode.NewQRCodeReader()
	ticker := time.NewTicker(time.Second / time.Duration(d.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			img, err := d.src.Frame(ctx)
			if err != nil {
				if ctx.Err() == nil && d.OnError != nil {
					d.OnError(classifyAcquisition(err))
				}
				return
			}
			text, ok := tryDecode(reader, img)
			if !ok {
				continue
			}
			onDecoded(text)
		}
	}
}

// tryDecode decodes one frame. A frame without a code is not an error.
func tryDecode(reader gozxing.Reader, img image.Image) (string, bool) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}
	result, err := reader.Decode(bmp, nil)
	if err != nil {
		return "", false
	}
	return result.GetText(), true
}

// DecodeImage decodes one submitted image. Unlike camera sampling this is
// single-shot: a missing code is a DecodeError.
func DecodeImage(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", &workflow.DecodeError{Kind: workflow.DecodeUnknown, Message: err.Error()}
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", &workflow.DecodeError{Kind: workflow.DecodeUnknown, Message: "no recognizable code in image"}
	}
	return result.GetText(), nil
}

// DecodeFile reads and decodes an image file (png or jpeg).
func DecodeFile(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", &workflow.DecodeError{Kind: workflow.DecodeUnknown, Message: "unreadable image: " + err.Error()}
	}
	return DecodeImage(img)
}

func classifyAcquisition(err error) error {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return &workflow.DecodeError{Kind: workflow.DecodePermissionDenied}
	case errors.Is(err, ErrDeviceNotFound):
		return &workflow.DecodeError{Kind: workflow.DecodeDeviceNotFound}
	case errors.Is(err, ErrDeviceBusy):
		return &workflow.DecodeError{Kind: workflow.DecodeDeviceBusy}
	}
	return &workflow.DecodeError{Kind: workflow.DecodeUnknown, Message: err.Error()}
}
