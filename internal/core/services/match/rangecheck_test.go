package match

import "testing"

func TestVersionInRange(t *testing.T) {
	tests := []struct {
		name    string
		version string
		bounds  Bounds
		want    bool
	}{
		{"no bounds matches anything", "2.4.7", Bounds{}, true},
		{"below inclusive end", "2.4.7", Bounds{EndIncluding: "2.4.49"}, true},
		{"above inclusive end", "2.4.50", Bounds{EndIncluding: "2.4.49"}, false},
		{"equal to inclusive end", "2.4.49", Bounds{EndIncluding: "2.4.49"}, true},
		{"equal to exclusive end", "2.4.49", Bounds{EndExcluding: "2.4.49"}, false},
		{"below exclusive end", "2.4.48", Bounds{EndExcluding: "2.4.49"}, true},
		{"equal to inclusive start", "2.4.0", Bounds{StartIncluding: "2.4.0"}, true},
		{"below inclusive start", "2.3.9", Bounds{StartIncluding: "2.4.0"}, false},
		{"equal to exclusive start", "2.4.0", Bounds{StartExcluding: "2.4.0"}, false},
		{"above exclusive start", "2.4.1", Bounds{StartExcluding: "2.4.0"}, true},
		{
			"inside closed interval",
			"2.4.25",
			Bounds{StartIncluding: "2.4.0", EndExcluding: "2.4.50"},
			true,
		},
		{
			"one failing bound rejects",
			"2.4.50",
			Bounds{StartIncluding: "2.4.0", EndExcluding: "2.4.50"},
			false,
		},
		{"zero padded comparison", "1.2", Bounds{StartIncluding: "1.2.0", EndIncluding: "1.2.0"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VersionInRange(tt.version, tt.bounds); got != tt.want {
				t.Errorf("VersionInRange(%q, %+v) = %v; want %v", tt.version, tt.bounds, got, tt.want)
			}
		})
	}
}
