package csvcodec

import "strings"

// Split breaks text into rows of raw cells. Lines are separated by "\n" (a
// trailing "\r" is dropped), blank lines are skipped, and each remaining
// line is split on every comma.
func Split(text string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, strings.Split(line, ","))
	}
	return rows
}

// Normalize trims surrounding whitespace from every cell and lowercases it.
// rows is modified in place and returned.
func Normalize(rows [][]string) [][]string {
	for _, row := range rows {
		for j, cell := range row {
			row[j] = strings.ToLower(strings.TrimSpace(cell))
		}
	}
	return rows
}

// Preprocess is Normalize(Split(text)).
func Preprocess(text string) [][]string {
	return Normalize(Split(text))
}

// ColumnsOf returns the normalized first row of text, or nil when text has
// no rows.
func ColumnsOf(text string) []string {
	rows := Preprocess(text)
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

// cell returns row[j], or "" when the row is too short.
func cell(row []string, j int) string {
	if j < len(row) {
		return row[j]
	}
	return ""
}

// blankFrom reports whether every cell of row from index j on is empty.
func blankFrom(row []string, j int) bool {
	for ; j < len(row); j++ {
		if row[j] != "" {
			return false
		}
	}
	return true
}
