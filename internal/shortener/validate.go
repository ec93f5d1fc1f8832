package shortener

import (
	"errors"
	"net/url"
	"strings"
)

const maxURLLength = 2048

var (
	ErrEmptyURL   = errors.New("url is empty")
	ErrInvalidURL = errors.New("url must be an absolute http or https URL")
)

// ValidateLongURL accepts absolute http(s) URLs with a host.
func ValidateLongURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return ErrEmptyURL
	}

	if len(rawURL) > maxURLLength {
		return ErrInvalidURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return ErrInvalidURL
	}

	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}

	return nil
}
