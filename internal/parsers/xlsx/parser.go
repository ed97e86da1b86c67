// Package xlsx decodes spreadsheet workbooks in OOXML format.
package xlsx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Parser handles XLSX workbooks. Legacy binary .xls is registered too
// but fails with domain.ErrDecode since it is not a ZIP archive;
// decode failure is propagated rather than guessed around.
type Parser struct{}

// New creates a new XLSX parser.
func New() *Parser {
	return &Parser{}
}

// SupportedTypes returns the file types this parser handles.
func (p *Parser) SupportedTypes() []string {
	return []string{".xlsx", ".xls"}
}

// Parse renders every worksheet as a "Sheet: name" section with
// tab-joined cells, one row per line.
func (p *Parser) Parse(_ context.Context, data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not an xlsx archive: %v", domain.ErrDecode, err)
	}

	shared, err := readSharedStrings(reader)
	if err != nil {
		return "", err
	}
	names := readSheetNames(reader)

	// Worksheets are stored as xl/worksheets/sheetN.xml; pair them
	// with workbook sheet names by ordinal.
	var sheetFiles []*zip.File
	for _, file := range reader.File {
		if strings.HasPrefix(file.Name, "xl/worksheets/sheet") && strings.HasSuffix(file.Name, ".xml") {
			sheetFiles = append(sheetFiles, file)
		}
	}
	if len(sheetFiles) == 0 {
		return "", fmt.Errorf("%w: archive has no worksheets", domain.ErrDecode)
	}
	sort.Slice(sheetFiles, func(i, j int) bool {
		return sheetOrdinal(sheetFiles[i].Name) < sheetOrdinal(sheetFiles[j].Name)
	})

	var b strings.Builder
	for i, file := range sheetFiles {
		name := fmt.Sprintf("Sheet %d", i+1)
		if i < len(names) {
			name = names[i]
		}

		rows, err := readSheetRows(file, shared)
		if err != nil {
			return "", err
		}

		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Sheet: " + name + "\n")
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteString("\n")
		}
	}

	return b.String(), nil
}

// sheetOrdinal extracts N from xl/worksheets/sheetN.xml.
func sheetOrdinal(name string) int {
	name = strings.TrimPrefix(name, "xl/worksheets/sheet")
	name = strings.TrimSuffix(name, ".xml")
	n, err := strconv.Atoi(name)
	if err != nil {
		return 0
	}
	return n
}

// sstXML represents xl/sharedStrings.xml.
type sstXML struct {
	Items []struct {
		Text string `xml:"t"`
		Runs []struct {
			Text string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

// readSharedStrings loads the shared string table, if present.
func readSharedStrings(reader *zip.Reader) ([]string, error) {
	content, ok, err := readArchiveFile(reader, "xl/sharedStrings.xml")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var sst sstXML
	if err := xml.Unmarshal(content, &sst); err != nil {
		return nil, fmt.Errorf("%w: shared strings: %v", domain.ErrDecode, err)
	}

	strs := make([]string, len(sst.Items))
	for i, item := range sst.Items {
		if item.Text != "" {
			strs[i] = item.Text
			continue
		}
		var b strings.Builder
		for _, r := range item.Runs {
			b.WriteString(r.Text)
		}
		strs[i] = b.String()
	}
	return strs, nil
}

// workbookXML represents xl/workbook.xml.
type workbookXML struct {
	Sheets struct {
		Sheet []struct {
			Name string `xml:"name,attr"`
		} `xml:"sheet"`
	} `xml:"sheets"`
}

// readSheetNames returns workbook sheet names in declaration order.
func readSheetNames(reader *zip.Reader) []string {
	content, ok, err := readArchiveFile(reader, "xl/workbook.xml")
	if err != nil || !ok {
		return nil
	}

	var wb workbookXML
	if err := xml.Unmarshal(content, &wb); err != nil {
		return nil
	}

	names := make([]string, 0, len(wb.Sheets.Sheet))
	for _, sheet := range wb.Sheets.Sheet {
		names = append(names, sheet.Name)
	}
	return names
}

// worksheetXML represents xl/worksheets/sheetN.xml.
type worksheetXML struct {
	SheetData struct {
		Rows []struct {
			Cells []cellXML `xml:"c"`
		} `xml:"row"`
	} `xml:"sheetData"`
}

type cellXML struct {
	Type   string `xml:"t,attr"`
	Value  string `xml:"v"`
	Inline struct {
		Text string `xml:"t"`
	} `xml:"is"`
}

// readSheetRows decodes one worksheet into rows of cell text.
func readSheetRows(file *zip.File, shared []string) ([][]string, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", domain.ErrDecode, file.Name, err)
	}
	content, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrDecode, file.Name, err)
	}

	var ws worksheetXML
	if err := xml.Unmarshal(content, &ws); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDecode, file.Name, err)
	}

	rows := make([][]string, 0, len(ws.SheetData.Rows))
	for _, row := range ws.SheetData.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, cellText(cell, shared))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// cellText resolves a cell's display text.
func cellText(cell cellXML, shared []string) string {
	switch cell.Type {
	case "s":
		idx, err := strconv.Atoi(cell.Value)
		if err != nil || idx < 0 || idx >= len(shared) {
			return cell.Value
		}
		return shared[idx]
	case "inlineStr":
		return cell.Inline.Text
	default:
		return cell.Value
	}
}

// readArchiveFile reads a named file from the archive; ok is false
// when the file is absent.
func readArchiveFile(reader *zip.Reader, name string) ([]byte, bool, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, false, fmt.Errorf("%w: opening %s: %v", domain.ErrDecode, name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, false, fmt.Errorf("%w: reading %s: %v", domain.ErrDecode, name, err)
		}
		return content, true, nil
	}
	return nil, false, nil
}
