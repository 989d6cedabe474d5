package precheck

import (
	"bytes"
	"net/http"
	"strings"
)

// Detector inspects a probe result for one vendor's bot-protection
// signatures.
type Detector func(res *Result) (detected bool, vendor string)

// DefaultDetectors covers the wall vendors most common on storefronts.
func DefaultDetectors() []Detector {
	return []Detector{
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
	}
}

// Analyze runs res through detectors, recording the first hit in place.
// Returns true when a wall was detected.
func Analyze(res *Result, detectors []Detector) bool {
	if res == nil {
		return false
	}
	for _, d := range detectors {
		if detected, vendor := d(res); detected {
			res.Blocked = true
			res.WallVendor = vendor
			return true
		}
	}
	res.Blocked = false
	res.WallVendor = ""
	return false
}

func header(h http.Header, key string) string {
	if h == nil {
		return ""
	}
	return h.Get(key)
}

func detectCloudflare(res *Result) (bool, string) {
	// Challenges ride 403 or 503.
	if res.StatusCode == http.StatusForbidden || res.StatusCode == http.StatusServiceUnavailable {
		if strings.Contains(strings.ToLower(header(res.Headers, "Server")), "cloudflare") {
			return true, "Cloudflare"
		}
		if bytes.Contains(res.Body, []byte("cf-browser-verification")) ||
			bytes.Contains(res.Body, []byte("cloudflare-nginx")) ||
			bytes.Contains(res.Body, []byte("cf-turnstile")) ||
			bytes.Contains(res.Body, []byte("Attention Required! | Cloudflare")) {
			return true, "Cloudflare"
		}
	}
	return false, ""
}

func detectAkamai(res *Result) (bool, string) {
	if res.StatusCode == http.StatusForbidden {
		if strings.Contains(strings.ToLower(header(res.Headers, "Server")), "akamai") {
			return true, "Akamai"
		}
		// Akamai block pages carry a generic "Reference #".
		if bytes.Contains(res.Body, []byte("Reference #")) && bytes.Contains(res.Body, []byte("Access Denied")) {
			return true, "Akamai"
		}
	}
	return false, ""
}

func detectDataDome(res *Result) (bool, string) {
	if res.StatusCode == http.StatusForbidden {
		if strings.Contains(strings.ToLower(header(res.Headers, "Server")), "datadome") {
			return true, "DataDome"
		}
		if header(res.Headers, "X-DataDome") != "" || header(res.Headers, "X-DataDome-Response") != "" {
			return true, "DataDome"
		}
		if bytes.Contains(res.Body, []byte("geo.captcha-delivery.com")) || bytes.Contains(res.Body, []byte("datadome")) {
			return true, "DataDome"
		}
	}
	return false, ""
}

func detectPerimeterX(res *Result) (bool, string) {
	if res.StatusCode == http.StatusForbidden {
		if header(res.Headers, "X-Px-Captcha") != "" {
			return true, "PerimeterX"
		}
		if bytes.Contains(res.Body, []byte("client.perimeterx.net")) ||
			bytes.Contains(res.Body, []byte("px-captcha")) ||
			bytes.Contains(res.Body, []byte("_pxBlock")) {
			return true, "PerimeterX"
		}
	}
	return false, ""
}
