// Package netutil provides network utility helpers used across speedbuild.
package netutil

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"time"
)

var (
	// artifactNameRegex enforces upload-safe artifact names.
	artifactNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]{0,100}$`)

	// domainRegex provides a basic domain name sanity check.
	domainRegex = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)
)

// IsValidArtifactName returns true if name is safe as a hosted artifact name.
func IsValidArtifactName(name string) bool {
	return artifactNameRegex.MatchString(name)
}

// IsValidDomain returns true if domain passes basic format validation.
func IsValidDomain(domain string) bool {
	return domainRegex.MatchString(domain)
}

// ProbeTCP dials host:port and returns nil if successful within the timeout.
func ProbeTCP(ctx context.Context, host string, port int, timeout time.Duration) error {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("tcp probe to %s failed: %w", addr, err)
	}
	conn.Close()
	return nil
}

// ResolveHost resolves a hostname and returns its first IP address string.
func ResolveHost(host string) (string, error) {
	addrs, err := net.LookupHost(host)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", host, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("no addresses resolved for %q", host)
	}
	return addrs[0], nil
}

// SplitHostPort wraps net.SplitHostPort with a default port fallback.
func SplitHostPort(addr string, defaultPort int) (host string, port string, err error) {
	host, port, err = net.SplitHostPort(addr)
	if err != nil {
		// No port in addr — treat entire string as host
		return addr, fmt.Sprintf("%d", defaultPort), nil
	}
	return host, port, nil
}
