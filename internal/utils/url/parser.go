package urlutil

import (
	"fmt"
	"net/url"
)

// ValidateURL performs comprehensive URL validation
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// Resolve makes href absolute against base, the URL of the page the link
// was found on. Root-relative ("/a"), protocol-relative ("//host/a") and
// document-relative ("a") forms are all resolved; absolute hrefs are kept.
// hrefs that do not parse, and any href when base is not absolute, are
// returned unchanged.
func Resolve(base, href string) string {
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() || b.Host == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
