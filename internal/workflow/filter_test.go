package workflow

import "testing"

func TestDuplicateFilterSuppressesRepeat(t *testing.T) {
	var f DuplicateFilter

	if !f.ShouldProcess("code-1") {
		t.Fatal("First occurrence should be processed")
	}
	if f.ShouldProcess("code-1") {
		t.Error("Immediate repeat should be suppressed")
	}
	if !f.ShouldProcess("code-2") {
		t.Error("Different value should be processed")
	}
	if !f.ShouldProcess("code-1") {
		t.Error("Earlier value should be processed again after an intervening one")
	}
}

func TestDuplicateFilterReset(t *testing.T) {
	var f DuplicateFilter

	f.ShouldProcess("code-1")
	f.Reset()

	if !f.ShouldProcess("code-1") {
		t.Error("Reset should allow the same value again")
	}
}

func TestDuplicateFilterEmptyString(t *testing.T) {
	var f DuplicateFilter

	if !f.ShouldProcess("") {
		t.Error("First empty value should be processed")
	}
	if f.ShouldProcess("") {
		t.Error("Repeated empty value should be suppressed")
	}
}
