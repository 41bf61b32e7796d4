package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// Fields builds a whitelist from column names
func Fields(columns ...string) map[string]bool {
	out := make(map[string]bool, len(columns))
	for _, c := range columns {
		out[c] = true
	}
	return out
}
