package instance

import (
	"os"
	"strings"
)

// ID names this process for logs and lock ownership: EFARM_INSTANCE_ID,
// then the hostname, then "local".
func ID() string {
	if id := strings.TrimSpace(os.Getenv("EFARM_INSTANCE_ID")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
