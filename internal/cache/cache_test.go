package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"MedLegalChat/internal/session"
)

func TestGenerateCacheKey(t *testing.T) {
	a := GenerateCacheKey("consent.pdf", []byte("body"))

	assert.Len(t, a, 64)
	assert.Equal(t, a, GenerateCacheKey("consent.pdf", []byte("body")))
	assert.NotEqual(t, a, GenerateCacheKey("consent.txt", []byte("body")))
	assert.NotEqual(t, a, GenerateCacheKey("consent.pdf", []byte("other")))
	// the separator keeps name/body boundaries distinct
	assert.NotEqual(t, GenerateCacheKey("ab", []byte("c")), GenerateCacheKey("a", []byte("bc")))
}

func TestUploads(t *testing.T) {
	var u Uploads
	key := GenerateCacheKey("notice.txt", []byte("legal notice"))

	_, ok := u.Load(key)
	assert.False(t, ok)

	ref := session.UploadedFileRef{ID: "file-1", Name: "notice.txt"}
	u.Store(key, ref)

	got, ok := u.Load(key)
	assert.True(t, ok)
	assert.Equal(t, ref, got)
}
