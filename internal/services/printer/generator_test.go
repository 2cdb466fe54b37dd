package printer

import (
	"bytes"
	"testing"

	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/models"
)

func TestGenerateUnitLabelsPDF(t *testing.T) {
	units := []models.ProductUnit{
		{InternalCode: "ac3f11", Product: "Hoodie", Color: "black", Size: "M"},
		{InternalCode: "bd4022", Product: "Hoodie", Color: "black", Size: "L"},
	}

	data, err := GenerateUnitLabelsPDF(units, DefaultSheetConfig())
	if err != nil {
		t.Fatalf("GenerateUnitLabelsPDF: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("output is not a PDF, starts with %q", data[:4])
	}
	if len(data) < 1000 {
		t.Errorf("PDF suspiciously small: %d bytes", len(data))
	}
}

func TestRenderLabelPagesCopies(t *testing.T) {
	labels := []LabelArtifact{
		{Kind: "qr", Data: `{"internal_code":"ac3f11"}`, Description: "Hoodie black M"},
		{Kind: "barcode", Data: "2000000000017", Description: "EAN fallback"},
	}

	data, err := RenderLabelPages(labels, 2)
	if err != nil {
		t.Fatalf("RenderLabelPages: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("output is not a PDF")
	}
}

func TestPayloadForRoundTrip(t *testing.T) {
	payload, err := PayloadFor(models.ProductUnit{InternalCode: "ac3f11", Product: "Hoodie", Color: "black", Size: "M"})
	if err != nil {
		t.Fatalf("PayloadFor: %v", err)
	}
	want := `{"internal_code":"ac3f11","product":"Hoodie","color":"black","size":"M"}`
	if payload != want {
		t.Errorf("payload = %s, want %s", payload, want)
	}
}
