// Package idgen allocates human readable record ids of the form
// <prefix><n>, e.g. B5 or P12.
package idgen

import (
	"strconv"
	"strings"
)

// Entity prefixes.
const (
	PatientPrefix  = "P"
	DoctorPrefix   = "D"
	HospitalPrefix = "H"
	TimeSlotPrefix = "T"
	BookingPrefix  = "B"
)

// Next returns prefix+n for the smallest n >= hint that is not in
// existing. Gaps below hint are never reused: with B0..B4 stored and B2
// deleted, a hint of 4 (the current count) yields B5.
func Next(prefix string, existing []string, hint int) string {
	if hint < 0 {
		hint = 0
	}
	used := make(map[int]struct{}, len(existing))
	for _, id := range existing {
		if n, ok := Parse(prefix, id); ok {
			used[n] = struct{}{}
		}
	}
	n := hint
	for {
		if _, taken := used[n]; !taken {
			return Format(prefix, n)
		}
		n++
	}
}

// Format renders an id.
func Format(prefix string, n int) string {
	return prefix + strconv.Itoa(n)
}

// Parse extracts the numeric suffix of id when it carries prefix.
func Parse(prefix, id string) (int, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	digits := id[len(prefix):]
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
