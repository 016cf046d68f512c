// Package headers parses "Key: Value" header flags.
package headers

import (
	"fmt"
	"net/textproto"
	"strings"
)

// Parse converts "Key: Value" strings into a map keyed by canonical header
// name. Later entries win.
func Parse(lines []string) (map[string]string, error) {
	m := make(map[string]string, len(lines))
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed header %q, want \"Key: Value\"", line)
		}
		m[textproto.CanonicalMIMEHeaderKey(key)] = strings.TrimSpace(value)
	}
	return m, nil
}

// Merge returns base overlaid with extra.
func Merge(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
