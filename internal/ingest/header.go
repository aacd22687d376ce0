package ingest

import (
	"fmt"
	"strings"
)

const utf8BOM = "\ufeff"

// normalizeHeader names blank header cells "Unnamed: <i>" and suffixes
// repeated names with ".1", ".2" and so on.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		candidate := name
		for k := 1; seen[candidate]; k++ {
			candidate = fmt.Sprintf("%s.%d", name, k)
		}
		seen[candidate] = true
		out[i] = candidate
	}
	return out
}
