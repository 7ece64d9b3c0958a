package utils

import (
	"fmt"
	"math"
)

// HumanizeBytes formats a byte count using binary units, e.g. 25MB.
func HumanizeBytes(bytes int64) string {
	suffixes := []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

	base := 1024.0
	if bytes <= 0 {
		return fmt.Sprintf("0%s", suffixes[0])
	}

	exp := math.Floor(math.Log(float64(bytes)) / math.Log(base))
	index := int(math.Min(exp, float64(len(suffixes)-1)))
	value := float64(bytes) / math.Pow(base, float64(index))

	if value >= 10 || index == 0 {
		return fmt.Sprintf("%.0f%s", value, suffixes[index])
	}

	return fmt.Sprintf("%.1f%s", value, suffixes[index])
}
