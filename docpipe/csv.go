package docpipe

import (
	"encoding/csv"
	"os"
	"strings"
)

// cellSeparator joins tabular cell values into one line per row.
const cellSeparator = " | "

// extractCSV renders a .csv file row-wise, one section per row, cell values
// joined by " | ". Ragged rows are tolerated; missing cells render as empty
// strings, not as a null marker.
func extractCSV(path string) ([]Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var sections []Section
	for _, record := range records {
		for i, cell := range record {
			record[i] = strings.TrimSpace(cell)
		}
		line := strings.Join(record, cellSeparator)
		if strings.TrimSpace(line) == "" && len(record) <= 1 {
			continue
		}
		sections = append(sections, Section{
			Text: line,
			Type: "row",
		})
	}

	return sections, nil
}
