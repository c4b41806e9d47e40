package store

import (
	"strings"
)

// ParseInfo parses the text payload of an INFO reply into a property map.
// Section headers ("# Replication") and blank lines are skipped; a line
// without a colon is ignored.
func ParseInfo(raw string) map[string]string {
	props := make(map[string]string)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok || key == "" {
			continue
		}
		props[key] = value
	}

	return props
}
