// Package fetcher retrieves raw page content over HTTP, archives it by URL
// hash, and streams canonical CSV input.
package fetcher

import (
	"context"
)

// Getter performs a single retrieval attempt for a URL.
type Getter interface {
	// Get fetches the URL once and returns the decoded body. HTTP status
	// codes >= 400 are returned as errors.
	Get(ctx context.Context, url string) ([]byte, error)
}

// Archive persists raw content keyed by ArchiveKey.
type Archive interface {
	// Get returns the archived content and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// PutIfAbsent stores content unless the key already exists.
	PutIfAbsent(ctx context.Context, key string, content []byte) error
	// Location returns a human-readable location for the key.
	Location(key string) string
}
