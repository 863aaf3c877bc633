// Package models defines the vault listing types.
package models

import "time"

// NoteMetadata is the listing entry returned by the vault. UpdatedAt is the
// file modification time and seeds the creation time of notes without a
// created frontmatter field.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
