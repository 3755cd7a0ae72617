package match

import (
	"strconv"
	"strings"
)

// CompareVersions compares two dotted version strings segment by segment
// and returns -1, 0 or 1. Segments are parsed as non-negative integers;
// non-numeric or missing segments count as 0, so the shorter string is
// zero-padded and malformed banner input degrades instead of failing
// ("1.2" equals "1.2.0", "2.4.x" compares like "2.4.0").
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}

	for i := 0; i < n; i++ {
		av := segmentValue(as, i)
		bv := segmentValue(bs, i)
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}

// segmentValue parses the i-th segment, 0 when absent or non-numeric.
func segmentValue(segments []string, i int) int {
	if i >= len(segments) {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(segments[i]))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
