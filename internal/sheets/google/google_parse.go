package google

import (
	"fmt"
	"strconv"
	"strings"
)

const idColumn = 6

// findID returns the 1-based row holding id in the id column. The header row
// never matches.
func findID(values [][]any, id int64) (int, bool) {
	for i, row := range values {
		if i == 0 {
			continue
		}
		if v, ok := parseID(row); ok && v == id {
			return i + 1, true
		}
	}
	return 0, false
}

func parseID(row []any) (int64, bool) {
	if len(row) <= idColumn {
		return 0, false
	}
	s := strings.TrimSpace(fmt.Sprint(row[idColumn]))
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
