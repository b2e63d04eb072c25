package session

import (
	"fmt"
	"hash/fnv"
	"os"
	"os/user"
	"runtime"
)

// Signature builds the replay signature for a submission from the caller's
// environment fingerprint and the raw payload.
func Signature(fingerprint, payload string) string {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s|%s", fingerprint, payload)
	return fmt.Sprintf("%X", h.Sum64())
}

// EnvironmentFingerprint identifies the submitting environment: host, user and platform
func EnvironmentFingerprint() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown-host"
	}

	username := "unknown-user"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	return fmt.Sprintf("%s@%s (%s/%s)", username, host, runtime.GOOS, runtime.GOARCH)
}
