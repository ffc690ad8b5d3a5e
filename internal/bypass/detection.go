// Package bypass recognizes bot-protection challenge pages so a fetch can be
// treated as a transient failure instead of an empty catalog.
package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Response is the part of a fetch the detectors look at.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Detector reports whether r is a challenge or block page and names the vendor.
type Detector func(r Response) (detected bool, vendor string)

// DefaultDetectors returns the built-in vendor detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
	}
}

// Analyze runs r through detectors and returns the first vendor that matched.
func Analyze(r Response, detectors []Detector) (bool, string) {
	for _, d := range detectors {
		if ok, vendor := d(r); ok {
			return true, vendor
		}
	}
	return false, ""
}

func header(h http.Header, key string) string {
	if v := h.Get(key); v != "" {
		return v
	}
	// tolerate maps built without canonical keys
	for k, vals := range h {
		if strings.EqualFold(k, key) && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

func bodyHasAny(body []byte, needles ...string) bool {
	for _, n := range needles {
		if bytes.Contains(body, []byte(n)) {
			return true
		}
	}
	return false
}

func detectCloudflare(r Response) (bool, string) {
	if r.StatusCode != http.StatusForbidden && r.StatusCode != http.StatusServiceUnavailable {
		return false, ""
	}
	if strings.Contains(strings.ToLower(header(r.Header, "Server")), "cloudflare") ||
		header(r.Header, "Cf-Mitigated") != "" ||
		bodyHasAny(r.Body, "cf-browser-verification", "cf-turnstile", "cf_chl_opt", "Attention Required! | Cloudflare") {
		return true, "Cloudflare"
	}
	return false, ""
}

func detectAkamai(r Response) (bool, string) {
	if r.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(strings.ToLower(header(r.Header, "Server")), "akamai") ||
		(bodyHasAny(r.Body, "Reference #") && bodyHasAny(r.Body, "Access Denied")) {
		return true, "Akamai"
	}
	return false, ""
}

func detectDataDome(r Response) (bool, string) {
	if r.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(strings.ToLower(header(r.Header, "Server")), "datadome") ||
		header(r.Header, "X-DataDome") != "" ||
		header(r.Header, "X-DataDome-Response") != "" ||
		bodyHasAny(r.Body, "geo.captcha-delivery.com", "datadome") {
		return true, "DataDome"
	}
	return false, ""
}

func detectPerimeterX(r Response) (bool, string) {
	if r.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if header(r.Header, "X-Px-Captcha") != "" ||
		bodyHasAny(r.Body, "client.perimeterx.net", "px-captcha", "_pxBlock") {
		return true, "PerimeterX"
	}
	return false, ""
}
