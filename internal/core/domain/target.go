package domain

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"regexp"
	"strconv"
	"strings"
)

// TargetType classifies a normalized scan target.
type TargetType string

const (
	TargetSingleIP TargetType = "single_ip"
	TargetCIDR     TargetType = "cidr"
	TargetRange    TargetType = "range"
	TargetHostname TargetType = "hostname"
)

// TargetInfo is the result of normalizing a user-supplied scan target.
type TargetInfo struct {
	Original   string     `json:"original"`
	Normalized string     `json:"normalized"`
	HostsCount int        `json:"hosts_count,omitempty"` // 0 when unknown (hostnames, IPv6 spans)
	Type       TargetType `json:"target_type"`
	Warnings   []string   `json:"warnings,omitempty"`
}

// RFC 1123 label grammar, dot-separated.
var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?)*$`)

// NormalizeTarget validates and normalizes a scan target: a single IP, a
// CIDR block, an IP range ("192.168.1.10-192.168.1.20" or the short form
// "192.168.1.10-20"), or a hostname. A bare IPv4 network address ending in
// .0 is widened to its /24.
func NormalizeTarget(raw string) (TargetInfo, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return TargetInfo{}, fmt.Errorf("target cannot be empty")
	}

	if strings.Contains(raw, "/") {
		return normalizeCIDR(raw)
	}
	if strings.Contains(raw, "-") {
		return normalizeRange(raw)
	}

	if addr, err := netip.ParseAddr(raw); err == nil {
		if addr.Is4() && strings.HasSuffix(raw, ".0") {
			cidr := raw + "/24"
			return TargetInfo{
				Original:   raw,
				Normalized: cidr,
				HostsCount: 256,
				Type:       TargetCIDR,
				Warnings:   []string{fmt.Sprintf("converted %s to %s (256 hosts)", raw, cidr)},
			}, nil
		}
		return TargetInfo{Original: raw, Normalized: raw, HostsCount: 1, Type: TargetSingleIP}, nil
	}

	return normalizeHostname(raw)
}

func normalizeCIDR(raw string) (TargetInfo, error) {
	prefix, err := netip.ParsePrefix(raw)
	if err != nil {
		return TargetInfo{}, fmt.Errorf("invalid CIDR notation %q: %w", raw, err)
	}
	masked := prefix.Masked()

	hosts := 0
	shift := masked.Addr().BitLen() - masked.Bits()
	if shift <= 30 {
		hosts = 1 << shift
	}

	info := TargetInfo{
		Original:   raw,
		Normalized: masked.String(),
		HostsCount: hosts,
		Type:       TargetCIDR,
	}
	info.Warnings = sizeWarnings(hosts)
	return info, nil
}

func normalizeRange(raw string) (TargetInfo, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 2 {
		return TargetInfo{}, fmt.Errorf("invalid range format %q: use '192.168.1.10-192.168.1.20' or '192.168.1.10-20'", raw)
	}
	startStr := strings.TrimSpace(parts[0])
	endStr := strings.TrimSpace(parts[1])

	start, err := netip.ParseAddr(startStr)
	if err != nil {
		return TargetInfo{}, fmt.Errorf("invalid IP range %q: %w", raw, err)
	}

	// Short form: the end is just the final octet.
	if !strings.Contains(endStr, ".") {
		if _, err := strconv.Atoi(endStr); err != nil || !start.Is4() {
			return TargetInfo{}, fmt.Errorf("invalid IP range %q: short notation needs an IPv4 start and a numeric end octet", raw)
		}
		octets := strings.Split(startStr, ".")
		endStr = strings.Join(append(octets[:3], endStr), ".")
	}

	end, err := netip.ParseAddr(endStr)
	if err != nil {
		return TargetInfo{}, fmt.Errorf("invalid IP range %q: %w", raw, err)
	}
	if start.Is4() != end.Is4() {
		return TargetInfo{}, fmt.Errorf("invalid IP range %q: start and end must be the same IP version", raw)
	}
	if start.Compare(end) >= 0 {
		return TargetInfo{}, fmt.Errorf("invalid IP range %q: start must be less than end", raw)
	}

	hosts := 0
	if start.Is4() {
		s4, e4 := start.As4(), end.As4()
		hosts = int(binary.BigEndian.Uint32(e4[:])-binary.BigEndian.Uint32(s4[:])) + 1
	}

	info := TargetInfo{
		Original:   raw,
		Normalized: raw,
		HostsCount: hosts,
		Type:       TargetRange,
	}
	info.Warnings = sizeWarnings(hosts)
	return info, nil
}

func normalizeHostname(raw string) (TargetInfo, error) {
	if len(raw) > 253 {
		return TargetInfo{}, fmt.Errorf("hostname too long (max 253 characters): %q", raw)
	}
	if !hostnameRegex.MatchString(raw) {
		return TargetInfo{}, fmt.Errorf("invalid hostname format %q", raw)
	}
	return TargetInfo{
		Original:   raw,
		Normalized: strings.ToLower(raw),
		Type:       TargetHostname,
	}, nil
}

func sizeWarnings(hosts int) []string {
	switch {
	case hosts > 1024:
		return []string{fmt.Sprintf("large scan: %d hosts, this may take a long time", hosts)}
	case hosts > 256:
		return []string{fmt.Sprintf("medium scan: %d hosts", hosts)}
	}
	return nil
}
