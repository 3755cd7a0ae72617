package match

import "github.com/vulnscan-ai/vulnscan/internal/core/domain"

// Bounds are the optional version bounds of a CPE match entry. An empty
// string means that bound is absent.
type Bounds struct {
	StartIncluding string
	EndIncluding   string
	StartExcluding string
	EndExcluding   string
}

// BoundsOf extracts the bounds carried by a CPE match entry.
func BoundsOf(m domain.CPEMatch) Bounds {
	return Bounds{
		StartIncluding: m.VersionStartIncluding,
		EndIncluding:   m.VersionEndIncluding,
		StartExcluding: m.VersionStartExcluding,
		EndExcluding:   m.VersionEndExcluding,
	}
}

// None reports whether no bound is supplied.
func (b Bounds) None() bool {
	return b.StartIncluding == "" && b.EndIncluding == "" &&
		b.StartExcluding == "" && b.EndExcluding == ""
}

// VersionInRange decides whether a version falls inside a vulnerable
// range. An entry with no bounds matches any version of that product, so
// the permissive default is true. Otherwise every supplied bound must
// hold; any failing bound makes the entry inapplicable to this version.
func VersionInRange(version string, b Bounds) bool {
	if b.None() {
		return true
	}
	if b.StartIncluding != "" && CompareVersions(version, b.StartIncluding) < 0 {
		return false
	}
	if b.StartExcluding != "" && CompareVersions(version, b.StartExcluding) <= 0 {
		return false
	}
	if b.EndIncluding != "" && CompareVersions(version, b.EndIncluding) > 0 {
		return false
	}
	if b.EndExcluding != "" && CompareVersions(version, b.EndExcluding) >= 0 {
		return false
	}
	return true
}
