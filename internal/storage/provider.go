// Package storage defines the read-only view of the Markdown vault.
package storage

import "github.com/starford/rehearse/internal/models"

// Provider is the interface for vault file access. Paths are relative to the vault root.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Root returns the absolute vault directory.
	Root() string
}
