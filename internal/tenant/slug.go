// Package tenant maps a company slug (subdomain or leading path segment)
// to the branding used to theme company-scoped pages. Branding is cosmetic:
// resolution never fails a request and never influences data scope.
package tenant

import (
	"net"
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

// Path segments that are routes, not companies.
var reservedSegments = map[string]bool{
	"api": true, "admin": true, "login": true, "register": true,
	"forgot-password": true, "reset-password": true, "healthz": true,
	"readyz": true, "metrics": true, "invite": true, "static": true,
	"www": true, "app": true,
}

// ValidSlug reports whether s can name a company.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s) && !reservedSegments[s]
}

// SlugFromHost extracts "acme" from "acme.example.com" when baseDomain is
// "example.com". The bare base domain, www, ports and IPs yield "".
func SlugFromHost(host, baseDomain string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	baseDomain = strings.ToLower(strings.Trim(baseDomain, "."))
	if baseDomain == "" || net.ParseIP(host) != nil {
		return ""
	}
	suffix := "." + baseDomain
	if !strings.HasSuffix(host, suffix) {
		return ""
	}
	sub := strings.TrimSuffix(host, suffix)
	if strings.Contains(sub, ".") || !ValidSlug(sub) {
		return ""
	}
	return sub
}

// SlugFromPath extracts "acme" from "/acme/dashboard".
func SlugFromPath(path string) string {
	path = strings.TrimPrefix(path, "/")
	seg, _, _ := strings.Cut(path, "/")
	seg = strings.ToLower(seg)
	if !ValidSlug(seg) {
		return ""
	}
	return seg
}
