package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var priceRe = regexp.MustCompile(`\d[\d.,]*`)

// ParsePrice reads the first amount in text, e.g. "$1.299,00" or "USD 1,299.99".
// It returns nil when no positive amount can be read.
func ParsePrice(text string) *float64 {
	raw := priceRe.FindString(text)
	if raw == "" {
		return nil
	}
	raw = strings.TrimRight(raw, ".,")
	v, err := strconv.ParseFloat(normalizeAmount(raw), 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// normalizeAmount rewrites raw into the plain "1234.56" form.
func normalizeAmount(raw string) string {
	lastDot := strings.LastIndex(raw, ".")
	lastComma := strings.LastIndex(raw, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		// the later separator is the decimal point
		if lastComma > lastDot {
			return strings.Replace(strings.ReplaceAll(raw, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(raw, ",", "")
	case lastComma >= 0:
		if strings.Count(raw, ",") == 1 && decimals(raw, lastComma) <= 2 {
			return strings.Replace(raw, ",", ".", 1)
		}
		return strings.ReplaceAll(raw, ",", "")
	case lastDot >= 0:
		if strings.Count(raw, ".") > 1 || decimals(raw, lastDot) == 3 {
			return strings.ReplaceAll(raw, ".", "")
		}
	}
	return raw
}

func decimals(raw string, sep int) int {
	return len(raw) - sep - 1
}
