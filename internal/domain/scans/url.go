package scans

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// hostProfile mirrors browser host parsing: UTS #46 mapping without the
// STD3 restriction, so labels such as "my_site" stay valid.
var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.StrictDomainName(false),
)

// NormalizeURL turns user input into the canonical form that gets hashed:
// scheme://hostname[/path]. Missing schemes default to https; port, query,
// fragment and credentials are dropped, a bare "/" path is removed and
// internationalized hostnames are converted to their ASCII form.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	host = strings.ToLower(host)
	switch {
	case net.ParseIP(host) != nil && strings.Contains(host, ":"):
		host = "[" + host + "]"
	case !isASCII(host):
		host, err = hostProfile.ToASCII(host)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
	}
	path := u.EscapedPath()
	if path == "/" {
		path = ""
	}
	return strings.ToLower(u.Scheme) + "://" + host + path, nil
}

// IsSelfScan reports whether raw points at the service's own public host.
func IsSelfScan(raw, publicHost string) bool {
	publicHost = strings.TrimSpace(publicHost)
	if publicHost == "" {
		return false
	}
	return strings.Contains(strings.ToLower(raw), strings.ToLower(publicHost))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
