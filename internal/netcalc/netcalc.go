// Package netcalc performs the static CIDR sanity checks that run during
// graph construction: subnet ranges must sit inside their parent network's
// range, and sibling subnets must not overlap.
package netcalc

import (
	"fmt"
	"net/netip"
	"sort"
)

// ParsePrefix parses a CIDR block in its canonical masked form, rejecting
// host bits set beyond the mask (10.0.1.1/24 is a typo, not a network).
func ParsePrefix(cidr string) (netip.Prefix, error) {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid CIDR block %q: %w", cidr, err)
	}
	if p != p.Masked() {
		return netip.Prefix{}, fmt.Errorf("CIDR block %q has host bits set (want %s)", cidr, p.Masked())
	}
	return p, nil
}

// Contains reports whether inner is a sub-range of outer.
func Contains(outer, inner netip.Prefix) bool {
	return outer.Bits() <= inner.Bits() && outer.Contains(inner.Addr())
}

// CheckSubnetLayout validates that every subnet CIDR is contained in the
// parent CIDR and that no two subnets overlap. The map keys name the
// subnets in error messages.
func CheckSubnetLayout(parentCIDR string, subnets map[string]string) error {
	parent, err := ParsePrefix(parentCIDR)
	if err != nil {
		return fmt.Errorf("parent network: %w", err)
	}

	names := make([]string, 0, len(subnets))
	for name := range subnets {
		names = append(names, name)
	}
	sort.Strings(names)

	prefixes := make(map[string]netip.Prefix, len(subnets))
	for _, name := range names {
		p, err := ParsePrefix(subnets[name])
		if err != nil {
			return fmt.Errorf("subnet %s: %w", name, err)
		}
		if !Contains(parent, p) {
			return fmt.Errorf("subnet %s: %s is not contained in parent network %s", name, p, parent)
		}
		prefixes[name] = p
	}

	for i, a := range names {
		for _, b := range names[i+1:] {
			if prefixes[a].Overlaps(prefixes[b]) {
				return fmt.Errorf("subnets %s (%s) and %s (%s) overlap", a, prefixes[a], b, prefixes[b])
			}
		}
	}
	return nil
}
