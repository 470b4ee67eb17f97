// Package index maintains the per-tenant chunk index and answers
// similarity queries over it.
package index

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ChunkEntry is one retrievable unit of a document. The JSON field names
// define the on-disk layout of the file-backed store.
type ChunkEntry struct {
	ID         string        `json:"id"` // documentID:chunkIndex
	DocumentID uuid.UUID     `json:"document_id"`
	ChunkIndex int           `json:"chunk_id"`
	Text       string        `json:"text"`
	Embedding  []float32     `json:"embedding,omitempty"`
	Metadata   ChunkMetadata `json:"metadata"`
}

type ChunkMetadata struct {
	Filename string `json:"filename"`
	Kind     string `json:"type"`
}

// EntryID builds the composite chunk identity.
func EntryID(documentID uuid.UUID, chunkIndex int) string {
	return fmt.Sprintf("%s:%d", documentID, chunkIndex)
}

// Store persists per-tenant chunk collections. Implementations must make
// ReplaceDocument atomic per document: a concurrent Load observes either
// all the old entries or all the new ones, never a mix. Writes for the
// same tenant are serialized by the implementation; tenants never contend
// with each other.
type Store interface {
	// Load returns every entry in the tenant's store, in insertion order.
	// A tenant with no store yet yields an empty slice, not an error.
	Load(ctx context.Context, tenantID uuid.UUID) ([]ChunkEntry, error)

	// ReplaceDocument atomically swaps all entries for documentID with the
	// given set. An empty set is valid and still materializes the tenant's
	// store, so later queries return no results instead of erroring.
	ReplaceDocument(ctx context.Context, tenantID, documentID uuid.UUID, entries []ChunkEntry) error

	// RemoveDocument drops all entries for documentID. Removing from a
	// tenant with no store is a no-op.
	RemoveDocument(ctx context.Context, tenantID, documentID uuid.UUID) error
}
