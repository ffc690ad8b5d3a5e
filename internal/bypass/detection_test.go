package bypass

import (
	"net/http"
	"testing"
)

func TestDetectors(t *testing.T) {
	tests := []struct {
		name   string
		detect Detector
		resp   Response
		want   string
	}{
		{"cloudflare server header", detectCloudflare, Response{StatusCode: 403, Header: http.Header{"Server": {"cloudflare"}}}, "Cloudflare"},
		{"cloudflare turnstile body", detectCloudflare, Response{StatusCode: 503, Body: []byte("<div class=cf-turnstile>")}, "Cloudflare"},
		{"cloudflare mitigated header", detectCloudflare, Response{StatusCode: 403, Header: http.Header{"Cf-Mitigated": {"challenge"}}}, "Cloudflare"},
		{"cloudflare ignores 200", detectCloudflare, Response{StatusCode: 200, Header: http.Header{"Server": {"cloudflare"}}}, ""},
		{"akamai header", detectAkamai, Response{StatusCode: 403, Header: http.Header{"Server": {"AkamaiGHost"}}}, "Akamai"},
		{"akamai body", detectAkamai, Response{StatusCode: 403, Body: []byte("Access Denied... Reference #18.abc")}, "Akamai"},
		{"datadome header", detectDataDome, Response{StatusCode: 403, Header: http.Header{"X-Datadome": {"1"}}}, "DataDome"},
		{"datadome lowercase key", detectDataDome, Response{StatusCode: 403, Header: http.Header{"x-datadome": {"1"}}}, "DataDome"},
		{"datadome body", detectDataDome, Response{StatusCode: 403, Body: []byte("https://geo.captcha-delivery.com/captcha")}, "DataDome"},
		{"perimeterx header", detectPerimeterX, Response{StatusCode: 403, Header: http.Header{"X-Px-Captcha": {"required"}}}, "PerimeterX"},
		{"perimeterx body", detectPerimeterX, Response{StatusCode: 403, Body: []byte("window._pxBlock = true;")}, "PerimeterX"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, vendor := tt.detect(tt.resp)
			if ok != (tt.want != "") || vendor != tt.want {
				t.Errorf("got %v/%q, want %q", ok, vendor, tt.want)
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	blocked := Response{StatusCode: 403, Header: http.Header{"X-Datadome": {"1"}}}
	if ok, vendor := Analyze(blocked, DefaultDetectors()); !ok || vendor != "DataDome" {
		t.Errorf("expected DataDome, got %v/%q", ok, vendor)
	}

	clean := Response{StatusCode: 200, Body: []byte("<html>laptops</html>")}
	if ok, vendor := Analyze(clean, DefaultDetectors()); ok || vendor != "" {
		t.Errorf("expected clean response, got %v/%q", ok, vendor)
	}
}
