package cli

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLen = 100
	MaxBodyLen  = 5000
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrTitleTooLong  = errors.New("title must be 100 characters or less")
	ErrBodyRequired  = errors.New("body is required")
	ErrBodyTooLong   = errors.New("body must be 5000 characters or less")
)

// validateTitle trims s and checks it against the title rules.
func validateTitle(s string) (string, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return "", ErrTitleRequired
	case utf8.RuneCountInString(s) > MaxTitleLen:
		return "", ErrTitleTooLong
	}
	return s, nil
}

func validateBody(s string) (string, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return "", ErrBodyRequired
	case utf8.RuneCountInString(s) > MaxBodyLen:
		return "", ErrBodyTooLong
	}
	return s, nil
}
