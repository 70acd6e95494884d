package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"

	"github.com/nao1215/a11yscan/internal/model"
)

// NormalizeURL turns a user-supplied target into an absolute URL.
// A missing scheme is replaced with https:// and the host is converted
// to its ASCII (punycode) form.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyTarget
	}

	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		if strings.Contains(raw, "://") {
			return "", fmt.Errorf("%w: unsupported scheme in %q", ErrInvalidURL, raw)
		}
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidURL, raw)
	}

	host := strings.ToLower(u.Hostname())
	if ip := net.ParseIP(host); ip == nil {
		host, err = idna.Punycode.ToASCII(host)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
		}
	}
	switch port := u.Port(); {
	case port != "":
		host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		host = "[" + host + "]"
	}
	u.Host = host

	return u.String(), nil
}

// HostKey returns the lower-case host name of target without its port.
// It is the key of per-site entries in the configuration file.
func HostKey(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// ParseWCAGLevels parses a comma-separated conformance level list such as
// "a, AA". Unknown tokens are dropped and duplicates removed. When nothing
// valid remains, the result is AA.
func ParseWCAGLevels(s string) []model.WCAGLevel {
	var levels []model.WCAGLevel
	seen := make(map[model.WCAGLevel]bool)
	for _, token := range strings.Split(s, ",") {
		level := model.WCAGLevel(strings.ToUpper(strings.TrimSpace(token)))
		if !level.Valid() || seen[level] {
			continue
		}
		seen[level] = true
		levels = append(levels, level)
	}
	if len(levels) == 0 {
		return []model.WCAGLevel{model.DefaultWCAGLevel}
	}
	return levels
}
