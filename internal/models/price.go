package models

import (
	"strconv"
	"strings"
)

// FormatCSVPrice renders a price the way the bakery tables store it ("5.0", "2.75")
func FormatCSVPrice(price float64) string {
	s := strconv.FormatFloat(price, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// ParseCSVPrice parses a stored price, tolerating surrounding whitespace and a leading "$"
func ParseCSVPrice(raw string) (float64, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "$")
	return strconv.ParseFloat(raw, 64)
}
