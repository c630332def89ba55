package export

import (
	"bytes"
	"fmt"
)

// Service renders documents in the supported formats
type Service struct {
	exporters map[Format]Exporter
}

// NewService creates a new export service
func NewService() *Service {
	return &Service{
		exporters: map[Format]Exporter{
			FormatPDF:  NewPDFExporter(),
			FormatXLSX: NewExcelExporter(),
		},
	}
}

// File is a rendered document ready to be served
type File struct {
	Content     []byte
	ContentType string
	Extension   string
}

// Export renders doc in the requested format
func (s *Service) Export(doc *Document, format Format) (*File, error) {
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}

	var buf bytes.Buffer
	if err := exporter.Export(doc, &buf); err != nil {
		return nil, fmt.Errorf("%s export failed: %w", format, err)
	}

	return &File{
		Content:     buf.Bytes(),
		ContentType: exporter.GetContentType(),
		Extension:   exporter.GetFileExtension(),
	}, nil
}
