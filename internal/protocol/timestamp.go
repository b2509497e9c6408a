package protocol

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayouts covers the ISO-8601 date-time forms servers send: extended
// and basic notation, seconds or minutes or hours precision, optional
// fraction, and a Z, ±hh:mm, ±hhmm or ±hh offset. An offset is mandatory.
var timestampLayouts = buildLayouts()

func buildLayouts() []string {
	notations := []struct {
		date  string
		times []string
	}{
		{"2006-01-02T", []string{"15:04:05.999999999", "15:04", "15"}},
		{"20060102T", []string{"150405.999999999", "1504", "15"}},
	}
	zones := []string{"Z07:00", "Z0700", "Z07"}

	var out []string
	for _, n := range notations {
		for _, t := range n.times {
			for _, z := range zones {
				out = append(out, n.date+t+z)
			}
		}
	}
	return out
}

// ParseTimestamp parses an ISO-8601 timestamp carrying a UTC offset.
func ParseTimestamp(s string) (time.Time, error) {
	norm, err := normalizeTimestamp(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrBadTimestamp, s, err)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, norm); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}

// normalizeTimestamp folds the ISO-8601 spellings time.Parse has no layout
// for: a six-digit signed year (+002030), a lower-case t or z, and a comma
// as the decimal sign.
func normalizeTimestamp(s string) (string, error) {
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		if len(s) < 7 || !allDigits(s[1:7]) {
			return "", fmt.Errorf("malformed expanded year")
		}
		if s[0] == '-' || s[1:3] != "00" {
			return "", fmt.Errorf("year out of range")
		}
		s = s[3:]
	}

	date, rest, ok := strings.Cut(s, "T")
	if !ok {
		date, rest, ok = strings.Cut(s, "t")
	}
	if !ok {
		return s, nil
	}
	if strings.HasSuffix(rest, "z") {
		rest = rest[:len(rest)-1] + "Z"
	}
	rest = strings.Replace(rest, ",", ".", 1)
	return date + "T" + rest, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
