// Package storage provides object storage implementations for design
// images and generated artifacts.
package storage

import (
	"context"
	"time"
)

// ObjectStorage abstracts the blob store holding design images and
// artifact zips. Keys are opaque slash-separated paths.
type ObjectStorage interface {
	// Upload writes an object
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	// Download reads an object in full
	Download(ctx context.Context, key string) ([]byte, error)
	// DeleteObject removes an object; deleting a missing object is not an error
	DeleteObject(ctx context.Context, key string) error
	// ObjectExists checks if an object exists
	ObjectExists(ctx context.Context, key string) (bool, error)
}

// URLSigner is implemented by backends that can hand out time-limited
// download links, letting artifact downloads bypass the API process.
type URLSigner interface {
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// StaleSweeper is implemented by backends that can purge objects under a
// prefix by age. Retention uses it to remove orphaned artifact files
// whose job records are already gone.
type StaleSweeper interface {
	CleanupOlderThan(ctx context.Context, prefix string, age time.Duration) (int, error)
}
