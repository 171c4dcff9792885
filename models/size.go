package models

import "fmt"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with one decimal place in 1024 steps,
// e.g. "0 B", "200.0 B", "1.5 KB".
func FormatSize(size int64) string {
	if size == 0 {
		return "0 B"
	}

	value := float64(size)
	i := 0
	for value >= 1024 && i < len(sizeUnits)-1 {
		value /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", value, sizeUnits[i])
}
