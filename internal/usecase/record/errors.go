// Package record provides the read-side use cases over the crawl stores:
// listing and looking up article records, checking seen-set membership and
// reading the run log.
package record

import "errors"

// Sentinel errors for record use case operations.
var (
	// ErrRecordNotFound indicates that no record exists for the URL.
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidURL indicates a lookup URL that is empty or not an absolute
	// http(s) URL.
	ErrInvalidURL = errors.New("invalid url")

	// ErrInvalidLimit indicates a limit outside 1..MaxLimit.
	ErrInvalidLimit = errors.New("invalid limit")

	// ErrInvalidCategory indicates a category filter that cannot name a target.
	ErrInvalidCategory = errors.New("invalid category")
)
