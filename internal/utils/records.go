package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// NextRecordID returns the next id in sequence for a prefix, in the
// PREFIX_NNNN format used by the record catalog. Gaps in the sequence
// are tolerated (the next id follows the maximum), and malformed ids
// are ignored rather than rejected, since the catalog is hand-curated.
func NextRecordID(prefix string, existing []string) string {
	max := 0
	for _, id := range existing {
		if !strings.HasPrefix(id, prefix+"_") {
			continue
		}
		num, err := strconv.Atoi(strings.TrimPrefix(id, prefix+"_"))
		if err != nil || num < 0 {
			continue
		}
		if num > max {
			max = num
		}
	}
	return fmt.Sprintf("%s_%04d", prefix, max+1)
}
