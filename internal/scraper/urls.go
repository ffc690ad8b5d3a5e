package scraper

import (
	"net/url"
	"strings"
)

// Resolve turns href into an absolute http(s) URL against base, dropping the
// fragment. Empty links, bare "#" placeholders and javascript: links are
// unresolvable.
func Resolve(base, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if !ref.IsAbs() {
		b, err := url.Parse(base)
		if err != nil || b.Host == "" {
			return "", false
		}
		ref = b.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", false
	}
	if ref.Host == "" {
		return "", false
	}
	ref.Fragment = ""
	return ref.String(), true
}

// SameSite reports whether rawURL belongs to domain or one of its subdomains.
func SameSite(rawURL, domain string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	d := strings.ToLower(strings.TrimPrefix(domain, "www."))
	host = strings.TrimPrefix(host, "www.")
	return host == d || strings.HasSuffix(host, "."+d)
}
