package workflow

import (
	"encoding/json"
	"strings"
)

// ScanPayload is the fixed schema minted into every unit QR at labeling time.
// Only internal_code is mandatory; the descriptive fields are opaque to the
// workflow and default to empty strings.
type ScanPayload struct {
	InternalCode string `json:"internal_code"`
	Product      string `json:"product"`
	Color        string `json:"color"`
	Size         string `json:"size"`
}

// ParsePayload parses a decoded QR text into a ScanPayload.
func ParsePayload(raw string) (*ScanPayload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &ValidationError{Kind: EmptyPayload}
	}

	var p ScanPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, &ValidationError{Kind: MalformedJSON}
	}

	if strings.TrimSpace(p.InternalCode) == "" {
		return nil, &ValidationError{Kind: MissingInternalCode}
	}

	return &p, nil
}
