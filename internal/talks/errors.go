package talks

import "errors"

// Sentinel errors for talk discovery. They are wrapped inside classified errors, so callers
// can match them with errors.Is.
var (
	// ErrRootMissing indicates the content root does not exist or is not a directory.
	ErrRootMissing = errors.New("content root not found")

	// ErrWalkFailed indicates filesystem traversal of the content root failed.
	ErrWalkFailed = errors.New("content root walk failed")

	// ErrInvalidMetadata indicates a metadata file exists but is unreadable, not JSON, or
	// does not match the metadata schema.
	ErrInvalidMetadata = errors.New("invalid talk metadata")

	// ErrEmptySlug indicates a talk whose title slugifies to the empty string.
	ErrEmptySlug = errors.New("talk slug is empty")

	// ErrSlugCollision indicates two talks resolve to the same slug.
	ErrSlugCollision = errors.New("slug collision")
)
