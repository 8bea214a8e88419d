package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// letters NFKD leaves whole
var foldLetters = strings.NewReplacer(
	"ß", "ss", "ẞ", "SS",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O",
	"ł", "l", "Ł", "L",
	"đ", "d", "Đ", "D",
	"ð", "d", "Ð", "D",
	"þ", "th", "Þ", "TH",
	"ı", "i",
)

// Slugify lowercases, folds to ASCII and joins alphanumeric runs with single
// hyphens: "Museum Label 1" -> "museum-label-1", "IM.001" -> "im-001".
// Thousands separators are dropped, so "BM 33,066" -> "bm-33066".
func Slugify(input string) string {
	s := norm.NFKD.String(foldLetters.Replace(input))
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
	s = strings.ToLower(dropDigitCommas(s))
	s = reNonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// dropDigitCommas removes commas that sit between two ASCII digits.
func dropDigitCommas(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ',' && i > 0 && i+1 < len(s) && isDigit(s[i-1]) && isDigit(s[i+1]) {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// CleanCell trims and collapses internal whitespace (any Unicode space,
// NBSP included) to single spaces.
func CleanCell(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

// StripBOM drops a leading UTF-8 byte-order mark.
func StripBOM(input string) string {
	return strings.TrimPrefix(input, "\ufeff")
}
