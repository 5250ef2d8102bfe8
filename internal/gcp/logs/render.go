package logs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/logging"
)

// RenderEntry formats one log entry as a single report line. n is the
// 1-based position in the result set.
func RenderEntry(n int, e *logging.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Entry %d: %s", n, e.Timestamp.UTC().Format(time.RFC3339))

	if e.Severity != logging.Default {
		fmt.Fprintf(&b, " %s", strings.ToUpper(e.Severity.String()))
	}
	if e.Resource != nil && e.Resource.Type != "" {
		fmt.Fprintf(&b, " [%s]", e.Resource.Type)
	}
	if p := payloadString(e.Payload); p != "" {
		b.WriteString(" ")
		b.WriteString(p)
	}
	return b.String()
}

func payloadString(p any) string {
	switch v := p.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}
