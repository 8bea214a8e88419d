package util

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var reInteger = regexp.MustCompile(`^[+-]?\d+(?:_\d+)*$`)

var (
	ErrIntegerSyntax = errors.New("invalid integer syntax")
	ErrIntegerRange  = errors.New("integer out of range")
)

// ParseInteger accepts an optionally signed run of ASCII digits, with
// single underscores allowed between digit groups ("1_000"). Well-formed
// literals that do not fit in an int fail with ErrIntegerRange.
func ParseInteger(input string) (int, error) {
	token := strings.TrimSpace(input)
	if !reInteger.MatchString(token) {
		return 0, ErrIntegerSyntax
	}
	n, err := strconv.Atoi(strings.ReplaceAll(token, "_", ""))
	if errors.Is(err, strconv.ErrRange) {
		return 0, ErrIntegerRange
	}
	if err != nil {
		return 0, ErrIntegerSyntax
	}
	return n, nil
}

// IsAffirmative reports whether token is one of the affirmative markers,
// compared case-insensitively after trimming.
func IsAffirmative(token string, affirmative []string) bool {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return false
	}
	for _, a := range affirmative {
		if strings.ToLower(a) == token {
			return true
		}
	}
	return false
}
