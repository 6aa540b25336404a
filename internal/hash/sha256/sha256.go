// Package sha256 digests snapshot bytes so unchanged snapshots are not
// mirrored twice.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/JakeFAU/dream-symbol-crawler/internal/crawler"
)

// Hasher implements crawler.Hasher using SHA-256.
type Hasher struct{}

var _ crawler.Hasher = (*Hasher)(nil)

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the hex digest of data.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
