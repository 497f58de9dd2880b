package services

import (
	"strings"
	"time"
	"unicode/utf8"

	apperr "timefiles.com/timefiles/internal/errors"
)

const maxNameLength = 200

func unixNow() int64 {
	return time.Now().Unix()
}

func sanitizeTitle(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", apperr.InvalidInput("title cannot be empty")
	}
	if utf8.RuneCountInString(cleaned) > maxNameLength {
		return "", apperr.InvalidInput("title cannot exceed %d characters", maxNameLength)
	}
	return cleaned, nil
}

func sanitizeTag(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", apperr.InvalidInput("tag cannot be empty")
	}
	if utf8.RuneCountInString(cleaned) > maxNameLength {
		return "", apperr.InvalidInput("tag cannot exceed %d characters", maxNameLength)
	}
	return cleaned, nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
