package jitapi

import (
	"fmt"
	"strings"
)

// Hwcaps is the set of optional instruction set extensions the host provides.
type Hwcaps uint32

const (
	// HwcapVIS2 provides bshuffle.
	HwcapVIS2 Hwcaps = 1 << iota
	// HwcapVIS3 provides moves between the integer and floating point register files.
	HwcapVIS3
	// HwcapSPARC5 provides faligndatai.
	HwcapSPARC5

	HwcapsAll = HwcapVIS2 | HwcapVIS3 | HwcapSPARC5
)

var hwcapNames = []struct {
	c    Hwcaps
	name string
}{
	{HwcapVIS2, "vis2"},
	{HwcapVIS3, "vis3"},
	{HwcapSPARC5, "sparc5"},
}

// Has returns true if every capability of c is present.
func (h Hwcaps) Has(c Hwcaps) bool {
	return h&c == c
}

// String implements fmt.Stringer.
func (h Hwcaps) String() string {
	var names []string
	for _, n := range hwcapNames {
		if h.Has(n.c) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "baseline"
	}
	return strings.Join(names, "-")
}

// ParseHwcaps returns the capabilities named by names.
func ParseHwcaps(names []string) (Hwcaps, error) {
	var h Hwcaps
next:
	for _, name := range names {
		for _, n := range hwcapNames {
			if strings.EqualFold(name, n.name) {
				h |= n.c
				continue next
			}
		}
		return 0, fmt.Errorf("unknown hardware capability %q", name)
	}
	return h, nil
}
