package api

// API limits and constants.
const (
	// MaxUploadSize is the default maximum size of an image upload (10 MB).
	MaxUploadSize = 10 << 20
)

// Cache-Control header values.
const (
	// CacheImmutable is used for uploaded images, whose names never repeat.
	CacheImmutable = "public, max-age=31536000, immutable"
)
