package repository

import "errors"

// Sentinel errors shared by every document-store backend.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrVersionConflict means the document changed since it was read.
	ErrVersionConflict = errors.New("repository: version conflict")
	// ErrDuplicate indicates a uniqueness constraint was violated.
	ErrDuplicate = errors.New("repository: duplicate")
)
