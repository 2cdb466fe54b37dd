package printer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/models"
)

// SheetConfig holds layout configuration for A4 unit-label sheets
type SheetConfig struct {
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	MarginTop  float64 `json:"marginTop"`
	MarginLeft float64 `json:"marginLeft"`
	GapX       float64 `json:"gapX"`
	GapY       float64 `json:"gapY"`
}

// DefaultSheetConfig is a 3x7 A4 grid (21 labels per page).
func DefaultSheetConfig() SheetConfig {
	return SheetConfig{Cols: 3, Rows: 7, MarginTop: 8, MarginLeft: 6, GapX: 2, GapY: 2}
}

// unitPayload is the decoded-payload schema minted into every unit QR.
type unitPayload struct {
	InternalCode string `json:"internal_code"`
	Product      string `json:"product"`
	Color        string `json:"color"`
	Size         string `json:"size"`
}

// PayloadFor renders the scan payload JSON for a unit.
func PayloadFor(unit models.ProductUnit) (string, error) {
	data, err := json.Marshal(unitPayload{
		InternalCode: unit.InternalCode,
		Product:      unit.Product,
		Color:        unit.Color,
		Size:         unit.Size,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GenerateUnitLabelsPDF creates an A4 PDF sheet with one QR label per unit.
// The QR content is the scan payload JSON correlated by internal code.
func GenerateUnitLabelsPDF(units []models.ProductUnit, cfg SheetConfig) ([]byte, error) {
	if cfg.Cols <= 0 {
		cfg.Cols = 3
	}
	if cfg.Rows <= 0 {
		cfg.Rows = 7
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 10)

	pageWidth, pageHeight := 210.0, 297.0

	totalGapX := float64(cfg.Cols-1) * cfg.GapX
	totalGapY := float64(cfg.Rows-1) * cfg.GapY

	availW := pageWidth - (cfg.MarginLeft * 2)
	availH := pageHeight - (cfg.MarginTop * 2)

	labelW := (availW - totalGapX) / float64(cfg.Cols)
	labelH := (availH - totalGapY) / float64(cfg.Rows)

	labelsPerPage := cfg.Cols * cfg.Rows

	for i, unit := range units {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		indexOnPage := i % labelsPerPage
		col := indexOnPage % cfg.Cols
		row := indexOnPage / cfg.Cols

		x := cfg.MarginLeft + float64(col)*(labelW+cfg.GapX)
		y := cfg.MarginTop + float64(row)*(labelH+cfg.GapY)

		payload, err := PayloadFor(unit)
		if err != nil {
			return nil, err
		}

		qrPng, err := qrcode.Encode(payload, qrcode.Medium, 256)
		if err != nil {
			return nil, err
		}

		imgName := fmt.Sprintf("qr_%d", i)
		imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		_ = pdf.RegisterImageOptionsReader(imgName, imgOptions, bytes.NewReader(qrPng))

		// QR centered, taking up 70% of label height
		qrSize := labelH * 0.7
		if qrSize > labelW {
			qrSize = labelW * 0.9
		}
		qrX := x + (labelW-qrSize)/2
		qrY := y + (labelH-qrSize)/2 - 2

		pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, imgOptions, 0, "")

		pdf.SetXY(x, y+labelH-6)
		pdf.SetFontSize(8)
		pdf.CellFormat(labelW, 5, unit.InternalCode, "", 0, "C", false, 0, "")

		pdf.SetXY(x, y+1)
		pdf.SetFontSize(6)
		pdf.CellFormat(labelW, 3, fmt.Sprintf("%s %s", unit.Color, unit.Size), "", 0, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LabelArtifact is one label to render onto a print surface.
type LabelArtifact struct {
	Kind        string
	Data        string
	Description string
}

// RenderLabelPages creates a PDF with one 50x30mm page per label copy, the
// physical label format the marking station prints. QR labels embed the code
// image; barcode labels render the digits for a wedge scanner fallback.
func RenderLabelPages(labels []LabelArtifact, copies int) ([]byte, error) {
	if copies <= 0 {
		copies = 1
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: 50, Ht: 30},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 8)

	imgIndex := 0
	for _, label := range labels {
		for c := 0; c < copies; c++ {
			pdf.AddPage()

			if label.Kind == "qr" {
				qrPng, err := qrcode.Encode(label.Data, qrcode.Medium, 256)
				if err != nil {
					return nil, err
				}
				imgName := fmt.Sprintf("lbl_%d", imgIndex)
				imgIndex++
				imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
				_ = pdf.RegisterImageOptionsReader(imgName, imgOptions, bytes.NewReader(qrPng))
				pdf.ImageOptions(imgName, 2, 2, 26, 26, false, imgOptions, 0, "")

				pdf.SetXY(29, 8)
				pdf.SetFontSize(7)
				pdf.MultiCell(19, 3.2, label.Description, "", "L", false)
			} else {
				pdf.SetXY(0, 10)
				pdf.SetFontSize(12)
				pdf.CellFormat(50, 6, label.Data, "", 0, "C", false, 0, "")
				pdf.SetXY(0, 18)
				pdf.SetFontSize(6)
				pdf.CellFormat(50, 4, label.Description, "", 0, "C", false, 0, "")
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
