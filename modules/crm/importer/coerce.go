package importer

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseAmount coerces currency-formatted text ("$12,500.00", "EUR 300") into
// a float by stripping everything but digits, dots and a leading minus.
func ParseAmount(raw string) (float64, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseCount coerces an integer-ish value; fractional parts are truncated.
// Magnitudes beyond the int32 range are coercion failures, not wrapped ints.
func ParseCount(raw string) (int, bool) {
	v, ok := ParseAmount(raw)
	if !ok {
		return 0, false
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"02/01/2006",
}

// ParseDate accepts ISO-8601, MM/DD/YYYY and DD/MM/YYYY. US order wins when
// both readings are plausible; the DD/MM reading only applies when the first
// component cannot be a month.
func ParseDate(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// NormalizeExpiryText rewrites an expiry in any accepted shape (903, 0903,
// 9/03, 09-03, 09/2003) to the canonical MM/YY display form. This feeds the
// legacy display field only; numeric derivation for tokenization is
// ParseExpiry.
func NormalizeExpiryText(raw string) (string, bool) {
	month, year, ok := ParseExpiry(raw)
	if !ok {
		return "", false
	}
	return twoDigits(month) + "/" + twoDigits(year%100), true
}

// ParseExpiry derives numeric expiry month and four-digit year. Accepted
// forms: M/YY, MM/YY, M-YY, MM/YYYY, MYY, MMYY. Two-digit years read as
// 2000+YY.
func ParseExpiry(raw string) (month, year int, ok bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, 0, false
	}

	var parts []string
	switch {
	case strings.ContainsAny(trimmed, "/-"):
		parts = strings.FieldsFunc(trimmed, func(r rune) bool { return r == '/' || r == '-' })
	default:
		digits := digitsOnly(trimmed)
		switch len(digits) {
		case 3: // MYY
			parts = []string{digits[:1], digits[1:]}
		case 4: // MMYY
			parts = []string{digits[:2], digits[2:]}
		case 6: // MMYYYY
			parts = []string{digits[:2], digits[2:]}
		default:
			return 0, 0, false
		}
	}

	if len(parts) != 2 {
		return 0, 0, false
	}

	m, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || m < 1 || m > 12 {
		return 0, 0, false
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	switch {
	case y < 100:
		y += 2000
	case y < 1000 || y > 9999:
		return 0, 0, false
	}
	return m, y, true
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func twoDigits(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}
