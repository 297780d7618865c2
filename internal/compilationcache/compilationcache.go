// Package compilationcache stores encoded blocks keyed by the content they were translated from, so that a block
// translated once with a given configuration never has to go through the back end again.
package compilationcache

import (
	"crypto/sha256"
	"encoding/binary"
	"io"
)

// Cache is the interface for compilation caches.
//
// Since these methods are concurrently accessed, the implementations must be Goroutine-safe.
//
// See NewFileCache and NewMemoryCache for the implementations.
type Cache interface {
	// Get returns the content previously passed to Add for key. Returns ok=true if the content was found,
	// and ok=false with err=nil when it was not. The caller closes content.
	//
	// Note: the content is not validated again, so the returned bytes are trusted as they are.
	Get(key Key) (content io.ReadCloser, ok bool, err error)
	// Add stores content for key. The content must be returned as-is by Get.
	Add(key Key, content io.Reader) (err error)
	// Delete purges the content for key. Deleting a missing key is not an error.
	Delete(key Key) (err error)
}

// Key represents the 256-bit unique identifier assigned to each cache content.
type Key = [sha256.Size]byte

// NewKey hashes the given parts into a Key. Each part is length-prefixed so that different splits of the same
// bytes produce different keys.
func NewKey(parts ...[]byte) Key {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	var k Key
	h.Sum(k[:0])
	return k
}
