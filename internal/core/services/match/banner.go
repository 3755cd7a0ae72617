package match

import (
	"regexp"
	"strings"
)

// serverTokenRegex splits the leading product token and optional version
// of a Server header value, e.g. "Apache/2.4.41 (Ubuntu)".
var serverTokenRegex = regexp.MustCompile(`^([a-zA-Z0-9_-]+)(?:/([0-9.]+))?`)

// serverProducts maps lowercased Server header tokens to canonical
// product names usable in feed keyword searches.
var serverProducts = map[string]string{
	"apache":        "Apache httpd",
	"httpd":         "Apache httpd",
	"microsoft-iis": "Microsoft IIS",
	"iis":           "Microsoft IIS",
	"nginx":         "nginx",
	"lighttpd":      "lighttpd",
	"tomcat":        "Apache Tomcat",
	"jetty":         "Eclipse Jetty",
}

// ParseServerHeader parses an HTTP Server header value into a canonical
// product name and, when present, a version. Unrecognized products come
// back as their lowercased leading token; ok is false only when no
// product token could be read at all.
func ParseServerHeader(header string) (product, version string, ok bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", "", false
	}

	m := serverTokenRegex.FindStringSubmatch(header)
	if m == nil {
		return "", "", false
	}

	product = strings.ToLower(m[1])
	if canonical, found := serverProducts[product]; found {
		product = canonical
	}
	return product, m[2], true
}
