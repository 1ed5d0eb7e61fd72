package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound is returned when no stored object exists at a path.
var ErrNotFound = errors.New("stored content not found")

// ContentStore keeps the raw bytes of uploaded files. Paths are opaque keys
// returned by Save and recorded on the file row.
type ContentStore interface {
	// Save stores data under a unique name derived from originalName.
	Save(ctx context.Context, originalName string, data []byte) (string, error)

	// Read returns the bytes stored at path.
	Read(ctx context.Context, path string) ([]byte, error)

	// Remove deletes the object. Removing a missing object is not an error.
	Remove(ctx context.Context, path string) error
}

// uniqueName prefixes the base name with the current time in nanoseconds.
func uniqueName(originalName string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%d-%s", now.UnixNano(), base)
}
