// Package storage defines the blob provider used to mirror snapshots off the
// local disk. The local file stays authoritative; a provider only receives
// copies.
package storage

import (
	"context"
)

// Provider saves an opaque blob under an object name.
type Provider interface {
	Save(ctx context.Context, objectName string, data []byte) error
}

// NoOpProvider discards every blob. It is used when no mirror is configured.
type NoOpProvider struct{}

// Save does nothing and always returns nil.
func (n *NoOpProvider) Save(_ context.Context, _ string, _ []byte) error {
	return nil
}
