package entity

import (
	"fmt"
	"net/url"
)

// maxURLLength bounds the length of URLs accepted as record keys.
const maxURLLength = 2048

// ValidateURL validates that rawURL is an absolute http(s) URL with a host.
// Unlike an API-facing validator it does not resolve hosts: crawl targets are
// operator-configured and article URLs come from the configured site.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Message: fmt.Sprintf("invalid URL: %v", err)}
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	return nil
}
