package export

import (
	"io"
	"time"
)

// Format is the statement file format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts the query values used by the dashboard
func ParseFormat(raw string) (Format, bool) {
	switch raw {
	case "pdf":
		return FormatPDF, true
	case "xlsx", "excel", "":
		return FormatXLSX, true
	}
	return "", false
}

// Exporter renders a document in one format
type Exporter interface {
	Export(doc *Document, writer io.Writer) error
	GetContentType() string
	GetFileExtension() string
}

// Document is a titled table with a key/value summary above it
type Document struct {
	Title     string
	Subtitle  string
	CreatedAt time.Time

	// Summary lines are printed in order above the table
	Summary []SummaryLine

	Headers []string
	Rows    [][]interface{}

	// NumericColumns are right aligned and number formatted
	NumericColumns map[int]bool

	Style Style
}

// SummaryLine is one label/value pair of the document header
type SummaryLine struct {
	Label string
	Value string
}

// Style defines the look shared by both formats
type Style struct {
	Orientation string // "portrait" or "landscape"
	PageSize    string

	HeaderBgColor string
	AlternateRows bool
	RowBgColor1   string
	RowBgColor2   string

	FontFamily string
	FontSize   float64

	FreezeHeader bool
	AutoFilter   bool
	ColumnWidths map[int]float64
}

// DefaultStyle returns the brand styling used for statements
func DefaultStyle() Style {
	return Style{
		Orientation:   "portrait",
		PageSize:      "A4",
		HeaderBgColor: "#EA580C",
		AlternateRows: true,
		RowBgColor1:   "#FFFFFF",
		RowBgColor2:   "#FFF7ED",
		FontFamily:    "Arial",
		FontSize:      9,
		FreezeHeader:  true,
		AutoFilter:    true,
		ColumnWidths:  map[int]float64{0: 18, 1: 16, 2: 10, 3: 10, 4: 40},
	}
}
