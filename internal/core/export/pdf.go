package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter writes documents as PDF using gofpdf
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Export writes doc as a paginated table, repeating the header on every page
func (p *PDFExporter) Export(doc *Document, writer io.Writer) error {
	if len(doc.Headers) == 0 {
		return fmt.Errorf("no headers provided")
	}

	orientation := "P"
	if doc.Style.Orientation == "landscape" {
		orientation = "L"
	}
	pageSize := doc.Style.PageSize
	if pageSize == "" {
		pageSize = "A4"
	}
	fontSize := doc.Style.FontSize
	if fontSize == 0 {
		fontSize = 9
	}

	pdf := gofpdf.New(orientation, "mm", pageSize, "")
	// Core fonts are cp1252; accents in Spanish labels need translating
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 7)
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("Presupuéstalo · página %d", pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 16)
		pdf.Cell(0, 10, tr(doc.Title))
		pdf.Ln(10)
	}
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "", fontSize+1)
		pdf.Cell(0, 6, tr(doc.Subtitle))
		pdf.Ln(6)
	}
	if !doc.CreatedAt.IsZero() {
		pdf.SetFont("Arial", "I", 8)
		pdf.Cell(0, 5, tr(fmt.Sprintf("Generado: %s", doc.CreatedAt.Format("2006-01-02 15:04"))))
		pdf.Ln(8)
	}

	for _, line := range doc.Summary {
		pdf.SetFont("Arial", "B", fontSize)
		pdf.CellFormat(45, 5, tr(line.Label), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", fontSize)
		pdf.CellFormat(0, 5, tr(line.Value), "", 1, "L", false, 0, "")
	}
	if len(doc.Summary) > 0 {
		pdf.Ln(4)
	}

	pageWidth, pageHeight := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	widths := columnWidths(doc, pageWidth-left-right)

	drawHeader := func() {
		pdf.SetFont("Arial", "B", fontSize)
		r, g, b := hexToRGB(doc.Style.HeaderBgColor)
		pdf.SetFillColor(r, g, b)
		pdf.SetTextColor(255, 255, 255)
		for i, header := range doc.Headers {
			pdf.CellFormat(widths[i], 7, tr(header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Arial", "", fontSize)
	}
	drawHeader()

	for rowIdx, row := range doc.Rows {
		if pdf.GetY()+6 > pageHeight-bottom-12 {
			pdf.AddPage()
			drawHeader()
		}

		bg := doc.Style.RowBgColor1
		if doc.Style.AlternateRows && rowIdx%2 == 1 {
			bg = doc.Style.RowBgColor2
		}
		r, g, b := hexToRGB(bg)
		pdf.SetFillColor(r, g, b)

		for col, value := range row {
			if col >= len(widths) {
				break
			}
			align := "L"
			if doc.NumericColumns[col] {
				align = "R"
			}
			pdf.CellFormat(widths[col], 6, tr(fmt.Sprintf("%v", value)), "1", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(writer); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// GetContentType returns the MIME type for PDF files
func (p *PDFExporter) GetContentType() string {
	return "application/pdf"
}

// GetFileExtension returns the file extension for PDF files
func (p *PDFExporter) GetFileExtension() string {
	return ".pdf"
}

// columnWidths scales the configured widths to the usable page width,
// splitting evenly when none are configured
func columnWidths(doc *Document, usable float64) []float64 {
	widths := make([]float64, len(doc.Headers))
	total := 0.0
	for i := range widths {
		w, ok := doc.Style.ColumnWidths[i]
		if !ok || w <= 0 {
			w = 10
		}
		widths[i] = w
		total += w
	}
	for i := range widths {
		widths[i] = widths[i] / total * usable
	}
	return widths
}

// hexToRGB converts hex color to RGB values, white when invalid
func hexToRGB(hex string) (int, int, int) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return 255, 255, 255
	}
	var r, g, b int
	fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	return r, g, b
}
