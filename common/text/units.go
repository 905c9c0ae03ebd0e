package text

import (
	"fmt"
)

var byteUnits = []string{"KB", "MB", "GB"}

// FormatByteAmount renders a size in bytes with one decimal place in the
// largest unit it reaches. Sizes under a kilobyte are printed exactly.
func FormatByteAmount(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}
	result := float64(size)
	unit := ""
	for _, u := range byteUnits {
		if result < 1024 {
			break
		}
		result /= 1024
		unit = u
	}
	return fmt.Sprintf("%.1f %v", result, unit)
}
