package event

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp accepts the timestamp shapes found in exports.
// Values without a zone are read as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

// ParseAmount reads a decimal amount, accepting a comma as decimal separator.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("amount %q: %w", raw, err)
	}
	return d, nil
}

// ParseBool reads flags stored as 1/0, true/false or t/f.
func ParseBool(raw string) (bool, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "1", "1.0":
		return true, nil
	case "0", "0.0":
		return false, nil
	}
	return strconv.ParseBool(s)
}
