package workflow

import "time"

// Label is one renderable artifact tied to a unit. It is created by the label
// resolver and consumed by the print orchestrator, never mutated after that.
type Label struct {
	Kind        string `json:"kind"` // qr or barcode
	Data        string `json:"data"`
	Description string `json:"description"`
	File        string `json:"file"` // URL or file reference to the rendered image
}

// ScannedItem is one physical unit loaded into the session. InternalCode is
// immutable once constructed; it is the sole correlation key between the scan
// event, the print confirmation and the backend acknowledgement.
type ScannedItem struct {
	InternalCode string
	Product      string
	Color        string
	Size         string
	Labels       []Label
	ScannedAt    time.Time

	// Raw keeps the decoded text for print-completion correlation.
	Raw string

	// ReprintRequired is set when label resolution answered RetryNotAllowed;
	// the only way forward for this item is the repeat-request action.
	ReprintRequired bool
}

// Photo is one defect evidence attachment.
type Photo struct {
	Name    string
	Content []byte
}

// DefectCategories is the closed set of defect types accepted by quality control.
var DefectCategories = []string{
	"pinch",
	"skipped-seam",
	"stain",
	"button",
	"technical",
	"lock",
	"zipper",
	"fabric",
	"pocket",
	"shine-marks",
	"size-mismatch",
}

// IsDefectCategory reports whether c belongs to the closed defect set.
func IsDefectCategory(c string) bool {
	for _, known := range DefectCategories {
		if c == known {
			return true
		}
	}
	return false
}
