package workflow

// DuplicateFilter suppresses re-processing of an identical decoded text seen
// back-to-back. A camera sampled at 10fps re-decodes the same physical code
// across many consecutive frames; without suppression every frame would
// re-trigger the whole downstream pipeline.
type DuplicateFilter struct {
	last string
	seen bool
}

// ShouldProcess reports whether raw differs from the immediately preceding
// accepted value and remembers it when it does.
func (f *DuplicateFilter) ShouldProcess(raw string) bool {
	if f.seen && raw == f.last {
		return false
	}
	f.last = raw
	f.seen = true
	return true
}

// Reset clears the remembered value so the same code can be intentionally
// rescanned in a new scan session.
func (f *DuplicateFilter) Reset() {
	f.last = ""
	f.seen = false
}
