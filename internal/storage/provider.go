// Package storage defines the material-library file-system abstraction.
package storage

// Provider is the interface for library file operations.
type Provider interface {
	// List returns metadata for every .json document under dir (relative to the library root).
	List(dir string) ([]DocInfo, error)
	// Read returns the raw bytes of the document at path (relative to the library root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the library root).
	Write(path string, content []byte) error
	// Delete removes the document at path (relative to the library root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to the library root).
	Move(oldPath, newPath string) error
}

// Verify *FS satisfies Provider at compile time.
var _ Provider = (*FS)(nil)
