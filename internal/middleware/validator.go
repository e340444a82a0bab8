package middleware

import (
	"fmt"
	"net"
	"regexp"
	"slices"
	"strings"
)

// Input validation and sanitization utilities

var (
	idPattern       = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	hostnamePattern = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)
)

// ValidateProvider checks the assistant provider against the registered names.
// Empty means "use the default" and is accepted.
func ValidateProvider(provider string, allowed []string) error {
	if provider == "" {
		return nil
	}
	if !slices.Contains(allowed, strings.ToLower(provider)) {
		return fmt.Errorf("invalid provider: %s (allowed: %s)", provider, strings.Join(allowed, ", "))
	}
	return nil
}

// ValidateDomain accepts a bare public hostname (already normalised).
// Internal hosts are rejected since the backend fetches the site.
func ValidateDomain(domain string) error {
	if domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}
	host := strings.ToLower(domain)
	if host, _, err := net.SplitHostPort(domain); err == nil {
		return ValidateDomain(host)
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
			return fmt.Errorf("localhost/internal IPs are not allowed")
		}
		return nil
	}
	if host == "localhost" || strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return fmt.Errorf("localhost/internal hosts are not allowed")
	}
	if !hostnamePattern.MatchString(host) {
		return fmt.Errorf("invalid domain format: %s", domain)
	}
	return nil
}

// ValidateID validates company / project / record id format
func ValidateID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%s ID cannot be empty", kind)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid %s ID format (alphanumeric, dash, underscore only, max 64 chars)", kind)
	}
	return nil
}

// SanitizeString drops control characters (NUL included) and trims
func SanitizeString(input string) string {
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage validates page number
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
