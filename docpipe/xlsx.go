package docpipe

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// xlsxDecoder is the built-in SpreadsheetDecoder. It reads the OOXML parts
// of an .xlsx workbook directly (workbook.xml for sheet order and names,
// the relationships part for sheet targets, sharedStrings.xml for interned
// cell text) and renders each sheet as a header line followed by row lines.
type xlsxDecoder struct{}

type xlsxWorkbook struct {
	Sheets struct {
		Sheet []struct {
			Name string `xml:"name,attr"`
			RID  string `xml:"id,attr"`
		} `xml:"sheet"`
	} `xml:"sheets"`
}

type xlsxRels struct {
	Relationship []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type xlsxSharedStrings struct {
	SI []struct {
		T    string   `xml:"t"`
		Runs []string `xml:"r>t"`
	} `xml:"si"`
}

type xlsxWorksheet struct {
	SheetData struct {
		Rows []struct {
			Cells []xlsxCell `xml:"c"`
		} `xml:"row"`
	} `xml:"sheetData"`
}

type xlsxCell struct {
	Ref  string `xml:"r,attr"`
	Type string `xml:"t,attr"`
	V    string `xml:"v"`
	IS   struct {
		T string `xml:"t"`
	} `xml:"is"`
}

// DecodeWorkbook renders each sheet in workbook order: a
// "=== Sheet: <name> ===" header section, then one section per row with
// cell values joined by " | ". Gaps between cells render as empty strings.
func (d *xlsxDecoder) DecodeWorkbook(filePath string) ([]Section, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var wb xlsxWorkbook
	if err := unmarshalZipEntry(r, "xl/workbook.xml", &wb); err != nil {
		return nil, err
	}
	if len(wb.Sheets.Sheet) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	var rels xlsxRels
	if err := unmarshalZipEntry(r, "xl/_rels/workbook.xml.rels", &rels); err != nil {
		return nil, err
	}
	targets := make(map[string]string, len(rels.Relationship))
	for _, rel := range rels.Relationship {
		targets[rel.ID] = rel.Target
	}

	shared := readSharedStrings(r)

	var sections []Section
	for _, sheet := range wb.Sheets.Sheet {
		target, ok := targets[sheet.RID]
		if !ok {
			return nil, fmt.Errorf("sheet %q: no relationship target", sheet.Name)
		}
		// Targets are relative to xl/ unless already rooted there.
		if !strings.HasPrefix(target, "xl/") {
			target = path.Join("xl", target)
		}

		var ws xlsxWorksheet
		if err := unmarshalZipEntry(r, target, &ws); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet.Name, err)
		}

		sections = append(sections, Section{
			Title: sheet.Name,
			Text:  fmt.Sprintf("=== Sheet: %s ===", sheet.Name),
			Type:  "sheet",
		})
		for _, row := range ws.SheetData.Rows {
			sections = append(sections, Section{
				Text: renderRow(row.Cells, shared),
				Type: "row",
			})
		}
	}

	return sections, nil
}

func unmarshalZipEntry(r *zip.ReadCloser, name string, v any) error {
	rc, err := zipEntry(r, name)
	if err != nil {
		return err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// readSharedStrings loads the interned string table. Workbooks without one
// (all-numeric or inline-string sheets) are fine; absence yields nil.
func readSharedStrings(r *zip.ReadCloser) []string {
	var sst xlsxSharedStrings
	if err := unmarshalZipEntry(r, "xl/sharedStrings.xml", &sst); err != nil {
		return nil
	}
	out := make([]string, len(sst.SI))
	for i, si := range sst.SI {
		if si.T != "" {
			out[i] = si.T
			continue
		}
		out[i] = strings.Join(si.Runs, "")
	}
	return out
}

// renderRow joins a row's cell values with the cell separator, padding
// column gaps (absent cells) with empty strings.
func renderRow(cells []xlsxCell, shared []string) string {
	var values []string
	next := 0 // next expected column index
	for _, c := range cells {
		col := columnIndex(c.Ref)
		if col < 0 {
			col = next
		}
		for next < col {
			values = append(values, "")
			next++
		}
		values = append(values, cellValue(c, shared))
		next = col + 1
	}
	return strings.Join(values, cellSeparator)
}

func cellValue(c xlsxCell, shared []string) string {
	switch c.Type {
	case "s": // shared string: V is an index into the table
		var idx int
		if _, err := fmt.Sscanf(c.V, "%d", &idx); err == nil && idx >= 0 && idx < len(shared) {
			return strings.TrimSpace(shared[idx])
		}
		return ""
	case "inlineStr":
		return strings.TrimSpace(c.IS.T)
	default: // n, b, str, d — the raw value is the text
		return strings.TrimSpace(c.V)
	}
}

// columnIndex converts a cell reference like "BC12" to a zero-based column
// index (A→0, Z→25, AA→26). Returns -1 when the reference is absent.
func columnIndex(ref string) int {
	if ref == "" {
		return -1
	}
	col := 0
	seen := false
	for _, r := range ref {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		if r < 'A' || r > 'Z' {
			break
		}
		col = col*26 + int(r-'A'+1)
		seen = true
	}
	if !seen {
		return -1
	}
	return col - 1
}
