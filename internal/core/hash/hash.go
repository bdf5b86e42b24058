// Package hash computes content digests used as cache identities.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

// Hash returns the hex SHA-256 digest of b.
func Hash(b []byte) entity.ContentHash {
	sum := sha256.Sum256(b)
	return entity.ContentHash(hex.EncodeToString(sum[:]))
}

// HashReader streams r through SHA-256 and returns the digest and byte count.
func HashReader(r io.Reader) (entity.ContentHash, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, fmt.Errorf("hash content: %w", err)
	}
	return entity.ContentHash(hex.EncodeToString(h.Sum(nil))), n, nil
}
