// Package storage provides blob storage for version content. It defines a
// System interface with filesystem and S3 implementations, plus signed
// download links for both.
package storage

import "errors"

// Storage errors returned by System implementations.
var (
	// ErrNotFound indicates the requested key does not exist in storage.
	ErrNotFound = errors.New("storage: key not found")

	// ErrPermissionDenied indicates insufficient permissions to access the key.
	ErrPermissionDenied = errors.New("storage: permission denied")

	// ErrInvalidKey indicates the key is malformed or contains invalid characters.
	// This includes empty keys and path traversal attempts.
	ErrInvalidKey = errors.New("storage: invalid key")

	// ErrInvalidToken indicates a download token failed verification or expired.
	ErrInvalidToken = errors.New("storage: invalid link token")
)
