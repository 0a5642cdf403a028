package exporter

import (
	"strconv"
)

// formatFloat writes the shortest representation of an already rounded value,
// so 13.687 stays 13.687 and 3 stays 3.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

// flagAt reports flags[i], tolerating short slices.
func flagAt(flags []bool, i int) bool {
	return i < len(flags) && flags[i]
}
