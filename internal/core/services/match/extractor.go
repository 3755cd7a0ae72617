// Package match turns loosely formatted service banners into normalized
// product/version pairs and scores upstream vulnerability candidates
// against them.
package match

import (
	"regexp"
	"strings"
)

// Extraction is the (product, version) pair pulled out of a banner or
// search phrase.
type Extraction struct {
	Product    string `json:"product"`    // canonical name, e.g. "Apache httpd"
	Normalized string `json:"normalized"` // lowercase underscore form for CPE comparison, e.g. "apache_httpd"
	Version    string `json:"version"`
	Known      bool   `json:"known"` // true when an ordered table pattern matched, false for the naive fallback
}

// versionToken matches a dotted numeric version with an optional trailing
// suffix, e.g. "2.4.49" or "8.2p1".
const versionToken = `([0-9]+(?:\.[0-9]+)*[0-9a-z]*)`

type productPattern struct {
	product string
	re      *regexp.Regexp
}

// extractionTable is evaluated in order: multi-word products first, then
// single-word ones, so "Apache httpd 2.4.7" is claimed by its own entry
// and never falls through to the generic split. First match wins.
var extractionTable = []productPattern{
	{"Apache httpd", regexp.MustCompile(`(?i)\bapache[\s/_-]+(?:httpd|http[\s_-]?server)[\s/_]+v?` + versionToken)},
	{"Apache Tomcat", regexp.MustCompile(`(?i)\b(?:apache[\s/_-]+)?tomcat[\s/_]+v?` + versionToken)},
	{"Microsoft IIS", regexp.MustCompile(`(?i)\b(?:microsoft[\s/_-]+)?iis[\s/_]+v?` + versionToken)},
	{"Eclipse Jetty", regexp.MustCompile(`(?i)\b(?:eclipse[\s/_-]+)?jetty[\s/_(]+v?` + versionToken)},
	{"nginx", regexp.MustCompile(`(?i)\bnginx[\s/_]+v?` + versionToken)},
	{"OpenSSH", regexp.MustCompile(`(?i)\bopenssh[\s/_]+v?` + versionToken)},
	{"lighttpd", regexp.MustCompile(`(?i)\blighttpd[\s/_]+v?` + versionToken)},
}

// Extract parses free-form banner text into a normalized product/version
// pair. The ordered table decides ties by priority, not by best match; if
// no pattern applies, the naive fallback takes the first whitespace token
// as the product and the remainder as the version. Malformed input never
// fails, it just degrades.
func Extract(text string) Extraction {
	trimmed := strings.TrimSpace(text)

	for _, p := range extractionTable {
		if m := p.re.FindStringSubmatch(trimmed); m != nil {
			return Extraction{
				Product:    p.product,
				Normalized: NormalizeProduct(p.product),
				Version:    m[1],
				Known:      true,
			}
		}
	}

	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return Extraction{}
	}
	ext := Extraction{
		Product:    fields[0],
		Normalized: NormalizeProduct(fields[0]),
	}
	if len(fields) > 1 {
		ext.Version = strings.Join(fields[1:], " ")
	}
	return ext
}

// NormalizeProduct lowercases a product name and replaces spaces with
// underscores, the form CPE criteria strings use.
func NormalizeProduct(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// cpeSynonyms maps a normalized product to the substrings that may stand
// for it inside a CPE criteria string. CPE vendor/product fields rarely
// agree with banner wording (Apache httpd ships as "http_server").
var cpeSynonyms = map[string][]string{
	"apache_httpd":  {"apache", "httpd", "http_server"},
	"apache_tomcat": {"tomcat"},
	"microsoft_iis": {"iis", "internet_information_server"},
	"eclipse_jetty": {"jetty"},
	"nginx":         {"nginx"},
	"openssh":       {"openssh"},
	"lighttpd":      {"lighttpd"},
}

// Synonyms returns the CPE substrings to try for a normalized product.
// Unknown products fall back to the product token itself.
func Synonyms(normalized string) []string {
	if syns, ok := cpeSynonyms[normalized]; ok {
		return syns
	}
	return []string{normalized}
}
