// Package security validates media URLs found in generated artifact
// content before they reach side-effectful consumers.
//
// Summary sections carry image and audio URLs produced by a remote
// generation service. The audio URL in particular is handed to an
// external player process as an argument, so anything that is not a
// plain absolute http(s) URL is rejected: no other schemes, no
// option-looking values, no internal network targets.
package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// MediaURL validates artifact media URLs.
type MediaURL struct {
	allowedSchemes map[string]struct{}
	blockedHosts   map[string]struct{}
}

// NewMediaURL creates a validator with default settings: http/https only,
// internal and metadata hosts blocked.
func NewMediaURL() *MediaURL {
	return &MediaURL{
		allowedSchemes: map[string]struct{}{
			"http":  {},
			"https": {},
		},
		blockedHosts: map[string]struct{}{
			"localhost":                {},
			"metadata.google.internal": {},
			"metadata.gce.internal":    {},
			"metadata.internal":        {},
		},
	}
}

// Validate checks that raw is a plain absolute http(s) URL that is safe
// to pass to an external process.
func (v *MediaURL) Validate(raw string) error {
	if raw == "" {
		return fmt.Errorf("empty media URL")
	}
	if strings.HasPrefix(raw, "-") {
		return fmt.Errorf("media URL looks like a command option")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid media URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if _, ok := v.allowedSchemes[scheme]; !ok {
		return fmt.Errorf("disallowed scheme %q (only http/https)", parsed.Scheme)
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return fmt.Errorf("media URL has no host")
	}
	if _, blocked := v.blockedHosts[strings.ToLower(hostname)]; blocked {
		return fmt.Errorf("blocked host %q", hostname)
	}
	if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
		return fmt.Errorf("blocked private address %q", hostname)
	}
	return nil
}

// isPrivateIP reports whether ip belongs to a loopback, link-local, or
// RFC 1918 range. Media for learning aids always lives on public CDNs.
func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsPrivate() || ip.IsUnspecified()
}
