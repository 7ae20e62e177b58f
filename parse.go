package gridastar

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ParseGrid reads a grid in text form: one row per line, '0' or '.' for a
// free cell, '1' or '#' for a blocked one. Spaces, tabs and commas are
// ignored, as are blank lines and anything after "//".
func ParseGrid(r io.Reader) (*Grid, error) {
	var rows [][]bool
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		row := make([]bool, 0, len(line))
		for col, ch := range line {
			switch ch {
			case '0', '.':
				row = append(row, false)
			case '1', '#':
				row = append(row, true)
			case ' ', '\t', ',':
			default:
				return nil, invalidInput("line %d column %d: unexpected %q", lineNo, col+1, ch)
			}
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("gridastar: reading grid: %w", err)
	}
	return NewGridFromBlocked(rows)
}
