package workflow

import "fmt"

// DecodeErrorKind classifies camera/decoder failures.
type DecodeErrorKind int

const (
	DecodePermissionDenied DecodeErrorKind = iota
	DecodeDeviceNotFound
	DecodeDeviceBusy
	DecodeUnknown
)

// DecodeError is a camera-acquisition or file-decode failure.
// Frames that simply contain no code are not errors and never produce one.
type DecodeError struct {
	Kind    DecodeErrorKind
	Message string
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case DecodePermissionDenied:
		return "decode: camera permission denied"
	case DecodeDeviceNotFound:
		return "decode: camera not found"
	case DecodeDeviceBusy:
		return "decode: camera busy"
	}
	return fmt.Sprintf("decode: %s", e.Message)
}

// ValidationErrorKind classifies payload and local action validation failures.
type ValidationErrorKind int

const (
	EmptyPayload ValidationErrorKind = iota
	MalformedJSON
	MissingInternalCode
	MissingDefectType
	MissingPhotos
)

// ValidationError blocks the triggering action locally; it never reaches the network.
type ValidationError struct {
	Kind ValidationErrorKind
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case EmptyPayload:
		return "validation: empty payload"
	case MalformedJSON:
		return "validation: payload is not valid JSON"
	case MissingInternalCode:
		return "validation: internal_code is missing"
	case MissingDefectType:
		return "validation: defect type is missing"
	case MissingPhotos:
		return "validation: at least one photo is required"
	}
	return "validation: invalid input"
}

// LabelErrorKind classifies label resolution failures.
type LabelErrorKind int

const (
	LabelNotFound LabelErrorKind = iota
	// RetryNotAllowed means the backend already issued labels for this code
	// once and will not regenerate them without an approved statement.
	// It is an expected business condition, not a fault.
	RetryNotAllowed
	LabelUnknown
)

// LabelResolutionError is returned by a LabelResolver.
type LabelResolutionError struct {
	Kind    LabelErrorKind
	Message string
}

func (e *LabelResolutionError) Error() string {
	switch e.Kind {
	case LabelNotFound:
		return "labels: internal code not found"
	case RetryNotAllowed:
		return "labels: already issued, reprint approval required"
	}
	return fmt.Sprintf("labels: %s", e.Message)
}

// PrintErrorKind classifies print surface failures.
type PrintErrorKind int

const (
	PopupBlocked PrintErrorKind = iota
	RenderError
)

// PrintError is a local print failure; the item stays loaded for manual retry.
type PrintError struct {
	Kind    PrintErrorKind
	Message string
}

func (e *PrintError) Error() string {
	if e.Kind == PopupBlocked {
		return "print: surface refused to open"
	}
	return fmt.Sprintf("print: render failed: %s", e.Message)
}

// SubmissionErrorKind classifies backend submission failures.
type SubmissionErrorKind int

const (
	NetworkFailure SubmissionErrorKind = iota
	ServerRejected
)

// SubmissionError leaves the item active for manual retry. It is never
// retried automatically to avoid duplicate backend side effects.
type SubmissionError struct {
	Kind    SubmissionErrorKind
	Message string
}

func (e *SubmissionError) Error() string {
	if e.Kind == NetworkFailure {
		return fmt.Sprintf("submit: network failure: %s", e.Message)
	}
	return fmt.Sprintf("submit: server rejected: %s", e.Message)
}
