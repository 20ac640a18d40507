package sheet

import "strings"

// Row maps a column header to the cell value of one data row.
type Row map[string]string

// Parse converts comma separated text into rows keyed by the header line.
// Blank lines are dropped; fewer than two remaining lines yields no rows.
func Parse(text string) []Row {
	lines := make([]string, 0, strings.Count(text, "\n")+1)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return []Row{}
	}

	records := make([][]string, len(lines))
	for i, line := range lines {
		records[i] = ParseLine(line)
	}
	return RowsFromRecords(records)
}

// ParseLine splits one line into raw (untrimmed) fields.
// Inside a quoted field "" is a literal quote and commas do not split.
func ParseLine(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"' && inQuotes && i+1 < len(runes) && runes[i+1] == '"':
			current.WriteRune('"')
			i++
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	return append(fields, current.String())
}

// RowsFromRecords assembles rows from pre-split records whose first entry is the header.
// Missing trailing values become "" and values beyond the header are ignored.
func RowsFromRecords(records [][]string) []Row {
	if len(records) < 2 {
		return []Row{}
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, values := range records[1:] {
		row := make(Row, len(headers))
		for i, header := range headers {
			value := ""
			if i < len(values) {
				value = strings.TrimSpace(values[i])
			}
			row[header] = value
		}
		rows = append(rows, row)
	}
	return rows
}
