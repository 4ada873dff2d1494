package domain

import (
	"fmt"
	"net/url"
	"regexp"
)

// Field size limits shared between input validation and the DB schema.
const (
	SlugMaxLen        = 512
	TitleMaxLen       = 512
	DescMaxLen        = 8192
	CopyrightMaxLen   = 512
	AuthorFieldMaxLen = 254
	LanguageMinLen    = 2
	LanguageMaxLen    = 128

	// URLMaxLen is the max url length in webkit-based browsers.
	URLMaxLen = 2083
)

var slugPattern = regexp.MustCompile(`^\w+$`)

// ValidateSlug checks a slug against the shared pattern and length limit.
// Used for both payload fields and path parameters.
func ValidateSlug(field, slug string) error {
	return validateSlug(field, slug)
}

func validateSlug(field, slug string) error {
	if slug == "" {
		return invalid(field, "must not be empty")
	}
	if len(slug) > SlugMaxLen {
		return invalid(field, fmt.Sprintf("must be at most %d characters", SlugMaxLen))
	}
	if !slugPattern.MatchString(slug) {
		return invalid(field, "must contain only word characters")
	}
	return nil
}

func validateRequiredString(field, value string, maxLen int) error {
	if value == "" {
		return invalid(field, "must not be empty")
	}
	return validateMaxLen(field, value, maxLen)
}

func validateMaxLen(field, value string, maxLen int) error {
	if len(value) > maxLen {
		return invalid(field, fmt.Sprintf("must be at most %d characters", maxLen))
	}
	return nil
}

func validateURL(field, value string) error {
	if len(value) > URLMaxLen {
		return invalid(field, fmt.Sprintf("must be at most %d characters", URLMaxLen))
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid(field, "must be a valid absolute URL")
	}
	return nil
}
