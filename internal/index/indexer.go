package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/docsage/docsage/internal/embedding"
	"github.com/docsage/docsage/internal/metrics"
	"github.com/docsage/docsage/pkg/chunker"
)

// Indexer chunks document text, embeds the chunks when an embedding
// provider is available, and replaces the document's entries in the store.
type Indexer struct {
	chunker  *chunker.Chunker
	embedder embedding.Embedder // may be nil
	store    Store
	metrics  *metrics.Metrics // nil disables instrumentation
}

func NewIndexer(ch *chunker.Chunker, embedder embedding.Embedder, store Store, m *metrics.Metrics) *Indexer {
	return &Indexer{chunker: ch, embedder: embedder, store: store, metrics: m}
}

// Index replaces all prior entries for documentID within the tenant's
// store. Empty text stores the empty set, which still materializes the
// tenant's store. Embedding failures degrade to vectorless entries.
func (ix *Indexer) Index(ctx context.Context, tenantID, documentID uuid.UUID, filename, kind string, text string) error {
	chunks := ix.chunker.Split(text)

	var vectors [][]float32
	if ix.embedder != nil && len(chunks) > 0 {
		var err error
		vectors, err = ix.embedder.Embed(ctx, chunks)
		if err != nil {
			slog.Warn("embedding failed, indexing without vectors", "document_id", documentID, "error", err)
			vectors = nil
		}
	}

	if kind == "" {
		kind = "unknown"
	}

	entries := make([]ChunkEntry, len(chunks))
	for i, text := range chunks {
		entries[i] = ChunkEntry{
			ID:         EntryID(documentID, i),
			DocumentID: documentID,
			ChunkIndex: i,
			Text:       text,
			Metadata: ChunkMetadata{
				Filename: filename,
				Kind:     kind,
			},
		}
		if vectors != nil && i < len(vectors) {
			entries[i].Embedding = vectors[i]
		}
	}

	if err := ix.store.ReplaceDocument(ctx, tenantID, documentID, entries); err != nil {
		return fmt.Errorf("replace document entries: %w", err)
	}

	if ix.metrics != nil {
		ix.metrics.ChunksIndexed.Add(float64(len(entries)))
	}

	slog.Info("document indexed", "document_id", documentID, "chunks", len(entries))
	return nil
}

// Remove drops a document's entries from the tenant's store.
func (ix *Indexer) Remove(ctx context.Context, tenantID, documentID uuid.UUID) error {
	return ix.store.RemoveDocument(ctx, tenantID, documentID)
}
