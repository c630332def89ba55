package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const statementSheet = "Movimientos"

// ExcelExporter renders a Document as a one-sheet workbook
type ExcelExporter struct{}

func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

func (e *ExcelExporter) GetContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *ExcelExporter) GetFileExtension() string {
	return ".xlsx"
}

func (e *ExcelExporter) Export(doc *Document, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), statementSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	s := &sheetWriter{f: f, row: 1}

	if err := s.preamble(doc); err != nil {
		return err
	}
	headerRow, err := s.table(doc)
	if err != nil {
		return err
	}

	if doc.Style.FreezeHeader {
		if err := f.SetPanes(statementSheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      headerRow,
			TopLeftCell: cell(1, headerRow+1),
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("freeze header: %w", err)
		}
	}
	if doc.Style.AutoFilter && len(doc.Headers) > 0 && len(doc.Rows) > 0 {
		rng := cell(1, headerRow) + ":" + cell(len(doc.Headers), headerRow+len(doc.Rows))
		if err := f.AutoFilter(statementSheet, rng, nil); err != nil {
			return fmt.Errorf("auto filter: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetWriter appends rows to the statement sheet, tracking the next free row
type sheetWriter struct {
	f   *excelize.File
	row int
}

func (s *sheetWriter) put(col int, v interface{}, style int) {
	ref := cell(col, s.row)
	s.f.SetCellValue(statementSheet, ref, v)
	if style != 0 {
		s.f.SetCellStyle(statementSheet, ref, ref, style)
	}
}

// preamble writes the title block and the summary lines, then a blank row
func (s *sheetWriter) preamble(doc *Document) error {
	bold, err := s.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Family: doc.Style.FontFamily}})
	if err != nil {
		return fmt.Errorf("summary style: %w", err)
	}
	if doc.Title != "" {
		title, err := s.f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 14, Family: doc.Style.FontFamily},
		})
		if err != nil {
			return fmt.Errorf("title style: %w", err)
		}
		s.put(1, doc.Title, title)
		s.row++
		if doc.Subtitle != "" {
			s.put(1, doc.Subtitle, 0)
			s.row++
		}
	}
	for _, line := range doc.Summary {
		s.put(1, line.Label, bold)
		s.put(2, line.Value, 0)
		s.row++
	}
	s.row++
	return nil
}

// table writes the header and the body rows and returns the header row index
func (s *sheetWriter) table(doc *Document) (int, error) {
	st := doc.Style
	header, err := s.f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: st.FontSize, Family: st.FontFamily, Color: "FFFFFF"},
		Fill:      solidFill(st.HeaderBgColor),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return 0, fmt.Errorf("header style: %w", err)
	}

	headerRow := s.row
	for i, h := range doc.Headers {
		s.put(i+1, h, header)
		if width, ok := st.ColumnWidths[i]; ok {
			col, _ := excelize.ColumnNumberToName(i + 1)
			s.f.SetColWidth(statementSheet, col, col, width)
		}
	}
	s.row++

	// one style per (numeric, striped) combination
	var styles [2][2]int
	for numeric := 0; numeric < 2; numeric++ {
		for striped := 0; striped < 2; striped++ {
			bg := st.RowBgColor1
			if striped == 1 && st.AlternateRows {
				bg = st.RowBgColor2
			}
			rs := &excelize.Style{Font: &excelize.Font{Size: st.FontSize, Family: st.FontFamily}}
			if numeric == 1 {
				rs.NumFmt = 3
				rs.Alignment = &excelize.Alignment{Horizontal: "right"}
			}
			if bg != "" && !strings.EqualFold(bg, "#FFFFFF") {
				rs.Fill = solidFill(bg)
			}
			if styles[numeric][striped], err = s.f.NewStyle(rs); err != nil {
				return 0, fmt.Errorf("row style: %w", err)
			}
		}
	}

	for i, values := range doc.Rows {
		for col, v := range values {
			numeric := 0
			if doc.NumericColumns[col] {
				numeric = 1
			}
			s.put(col+1, v, styles[numeric][i%2])
		}
		s.row++
	}
	return headerRow, nil
}

func solidFill(color string) excelize.Fill {
	return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(color, "#")}}
}

func cell(col, row int) string {
	ref, _ := excelize.CoordinatesToCellName(col, row)
	return ref
}
