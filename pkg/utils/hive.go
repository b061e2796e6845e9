package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// leadingDecimal matches the numeric prefix of an asset string such as "5.123 HIVE".
	leadingDecimal = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)`)
	// nameUnsafe matches every character not allowed in a normalized name.
	nameUnsafe = regexp.MustCompile(`[^a-z0-9_]`)
)

// ParseAmount returns the leading decimal of an asset string.
// Empty or non-numeric values yield 0.
func ParseAmount(value string) float64 {
	match := leadingDecimal.FindString(strings.TrimSpace(value))
	if match == "" {
		return 0
	}

	amount, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}

	return amount
}

// accentFolder strips diacritical marks so "José" folds to "Jose".
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName lowercases a name and replaces anything other than
// ASCII letters, digits and underscores with an underscore.
func NormalizeName(name string) string {
	if folded, _, err := transform.String(accentFolder, name); err == nil {
		name = folded
	}

	return nameUnsafe.ReplaceAllString(strings.ToLower(name), "_")
}
