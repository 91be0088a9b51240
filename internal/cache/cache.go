package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"MedLegalChat/internal/session"
)

// CachedUpload records a document already accepted by the external file store
type CachedUpload struct {
	Ref       session.UploadedFileRef
	Timestamp time.Time
}

// GenerateCacheKey generates a cache key from a file name and its bytes
func GenerateCacheKey(name string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write(data)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Uploads remembers successful uploads for the life of the process. Safe for concurrent use.
type Uploads struct {
	entries sync.Map
}

// Load returns the earlier upload for key, if any
func (u *Uploads) Load(key string) (session.UploadedFileRef, bool) {
	val, ok := u.entries.Load(key)
	if !ok {
		return session.UploadedFileRef{}, false
	}
	return val.(CachedUpload).Ref, true
}

// Store records a successful upload
func (u *Uploads) Store(key string, ref session.UploadedFileRef) {
	u.entries.Store(key, CachedUpload{
		Ref:       ref,
		Timestamp: time.Now(),
	})
}
