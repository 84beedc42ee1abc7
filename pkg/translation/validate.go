package translation

import (
	"fmt"
	"strings"

	"github.com/nguyenvanduocit/indictrans/pkg/languages"
)

const DefaultMaxWords = 500

// ValidationError is a malformed request. Its message is shown to callers verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Validate checks a request. Rules run in a fixed order and the first
// failure is returned.
func Validate(text, sourceLang, targetLang string, maxWords int) error {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return invalid("Text cannot be empty")
	}

	if wordCount := CountWords(trimmed); wordCount > maxWords {
		return invalid("Text exceeds maximum of %d words (got %d)", maxWords, wordCount)
	}

	if !languages.IsSupported(sourceLang) {
		return invalid("Unsupported source language: %s", sourceLang)
	}

	if !languages.IsSupported(targetLang) {
		return invalid("Unsupported target language: %s", targetLang)
	}

	if sourceLang == targetLang {
		return invalid("Source and target languages must be different")
	}

	return nil
}

// CountWords splits on any run of whitespace.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
