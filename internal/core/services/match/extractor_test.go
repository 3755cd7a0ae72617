package match

import "testing"

func TestExtract(t *testing.T) {
	tests := []struct {
		input      string
		product    string
		normalized string
		version    string
		known      bool
	}{
		{"Apache httpd 2.4.7", "Apache httpd", "apache_httpd", "2.4.7", true},
		{"apache http server 2.4.49", "Apache httpd", "apache_httpd", "2.4.49", true},
		{"Apache Tomcat/9.0.65", "Apache Tomcat", "apache_tomcat", "9.0.65", true},
		{"Tomcat 9.0.1", "Apache Tomcat", "apache_tomcat", "9.0.1", true},
		{"Microsoft-IIS/10.0", "Microsoft IIS", "microsoft_iis", "10.0", true},
		{"Microsoft IIS 8.5", "Microsoft IIS", "microsoft_iis", "8.5", true},
		{"Eclipse Jetty 9.4.18", "Eclipse Jetty", "eclipse_jetty", "9.4.18", true},
		{"Jetty(9.4.44.v20210927)", "Eclipse Jetty", "eclipse_jetty", "9.4.44", true},
		{"nginx/1.18.0 (Ubuntu)", "nginx", "nginx", "1.18.0", true},
		{"nginx 1.25.3", "nginx", "nginx", "1.25.3", true},
		{"OpenSSH_8.2p1 Ubuntu-4ubuntu0.5", "OpenSSH", "openssh", "8.2p1", true},
		{"OpenSSH 7.4", "OpenSSH", "openssh", "7.4", true},
		{"lighttpd/1.4.55", "lighttpd", "lighttpd", "1.4.55", true},

		// Naive fallback: first token is the product, remainder the version.
		{"gunicorn 20.0.4", "gunicorn", "gunicorn", "20.0.4", false},
		{"postfix smtpd 3.4.13", "postfix", "postfix", "smtpd 3.4.13", false},
		{"miniupnpd", "miniupnpd", "miniupnpd", "", false},
	}

	for _, tt := range tests {
		got := Extract(tt.input)
		if got.Product != tt.product || got.Normalized != tt.normalized ||
			got.Version != tt.version || got.Known != tt.known {
			t.Errorf("Extract(%q) = %+v; want {Product:%q Normalized:%q Version:%q Known:%v}",
				tt.input, got, tt.product, tt.normalized, tt.version, tt.known)
		}
	}
}

func TestExtractEmpty(t *testing.T) {
	got := Extract("   ")
	if got.Product != "" || got.Version != "" || got.Known {
		t.Errorf("Extract(blank) = %+v; want zero value", got)
	}
}

// The multi-word entries outrank the generic split: "Apache httpd 2.4.7"
// must never come back as product "apache" with version "httpd 2.4.7".
func TestExtractPriorityOverFallback(t *testing.T) {
	got := Extract("Apache httpd 2.4.7")
	if !got.Known {
		t.Fatalf("Extract fell through to the naive split: %+v", got)
	}
	if got.Normalized != "apache_httpd" || got.Version != "2.4.7" {
		t.Errorf("Extract = %+v; want apache_httpd 2.4.7", got)
	}
}

func TestNormalizeProduct(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Apache httpd", "apache_httpd"},
		{"Microsoft IIS", "microsoft_iis"},
		{"nginx", "nginx"},
		{"  Eclipse Jetty  ", "eclipse_jetty"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeProduct(tt.in); got != tt.want {
			t.Errorf("NormalizeProduct(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestSynonyms(t *testing.T) {
	syns := Synonyms("apache_httpd")
	want := map[string]bool{"apache": true, "httpd": true, "http_server": true}
	if len(syns) != len(want) {
		t.Fatalf("Synonyms(apache_httpd) = %v; want 3 entries", syns)
	}
	for _, s := range syns {
		if !want[s] {
			t.Errorf("unexpected synonym %q", s)
		}
	}

	// Unknown products fall back to themselves.
	if got := Synonyms("miniupnpd"); len(got) != 1 || got[0] != "miniupnpd" {
		t.Errorf("Synonyms(miniupnpd) = %v; want [miniupnpd]", got)
	}
}
