// Package storage defines the local index directory abstraction.
package storage

import "github.com/starford/newsroll/internal/models"

// Provider is the interface for index file operations.
type Provider interface {
	// List returns metadata for every .json file in the index directory.
	List() ([]models.IndexFileMeta, error)
	// Read returns the raw bytes of the named file (relative to the root).
	Read(name string) ([]byte, error)
	// Write atomically writes content to the named file (relative to the root).
	Write(name string, content []byte) error
}
