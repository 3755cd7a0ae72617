package match

import "testing"

func TestParseServerHeader(t *testing.T) {
	tests := []struct {
		header  string
		product string
		version string
		ok      bool
	}{
		{"Apache/2.4.41 (Ubuntu)", "Apache httpd", "2.4.41", true},
		{"Apache", "Apache httpd", "", true},
		{"nginx/1.18.0", "nginx", "1.18.0", true},
		{"Microsoft-IIS/10.0", "Microsoft IIS", "10.0", true},
		{"lighttpd/1.4.55", "lighttpd", "1.4.55", true},
		{"Jetty/9.4.44", "Eclipse Jetty", "9.4.44", true},
		{"gws", "gws", "", true}, // unmapped products pass through lowercased
		{"cloudflare", "cloudflare", "", true},
		{"", "", "", false},
		{"  ", "", "", false},
		{"忍者", "", "", false}, // no ASCII product token
	}

	for _, tt := range tests {
		product, version, ok := ParseServerHeader(tt.header)
		if product != tt.product || version != tt.version || ok != tt.ok {
			t.Errorf("ParseServerHeader(%q) = (%q, %q, %v); want (%q, %q, %v)",
				tt.header, product, version, ok, tt.product, tt.version, tt.ok)
		}
	}
}
