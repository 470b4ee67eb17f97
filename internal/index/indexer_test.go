package index

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsage/docsage/pkg/chunker"
)

func newTestIndexer(store Store, embedder *stubEmbedder) *Indexer {
	ch := chunker.New(chunker.Options{ChunkSize: 40, ChunkOverlap: 8})
	if embedder == nil {
		return NewIndexer(ch, nil, store, nil)
	}
	return NewIndexer(ch, embedder, store, nil)
}

func TestIndex_ChunksAndStores(t *testing.T) {
	store := newTestStore(t)
	ix := newTestIndexer(store, nil)
	ctx := context.Background()
	tenantID := uuid.New()
	docID := uuid.New()

	text := strings.Repeat("Payment is due on the first of the month. ", 5)
	require.NoError(t, ix.Index(ctx, tenantID, docID, "contract.pdf", "contract", text))

	entries, err := store.Load(ctx, tenantID)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for i, e := range entries {
		assert.Equal(t, docID, e.DocumentID)
		assert.Equal(t, i, e.ChunkIndex)
		assert.Equal(t, EntryID(docID, i), e.ID)
		assert.Equal(t, "contract.pdf", e.Metadata.Filename)
		assert.Equal(t, "contract", e.Metadata.Kind)
		assert.Nil(t, e.Embedding)
	}
}

func TestIndex_EmptyTextStoresEmptySet(t *testing.T) {
	store := newTestStore(t)
	ix := newTestIndexer(store, nil)
	ctx := context.Background()
	tenantID := uuid.New()
	docID := uuid.New()

	require.NoError(t, ix.Index(ctx, tenantID, docID, "scan.pdf", "other", "some old text"))
	require.NoError(t, ix.Index(ctx, tenantID, docID, "scan.pdf", "other", ""))

	entries, err := store.Load(ctx, tenantID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIndex_EmbeddingFailureKeepsVectorlessChunks(t *testing.T) {
	store := newTestStore(t)
	ix := newTestIndexer(store, &stubEmbedder{err: errors.New("quota exceeded")})
	ctx := context.Background()
	tenantID := uuid.New()
	docID := uuid.New()

	require.NoError(t, ix.Index(ctx, tenantID, docID, "note.txt", "other", "short note text"))

	entries, err := store.Load(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Embedding)
}

func TestIndex_UnknownKindDefault(t *testing.T) {
	store := newTestStore(t)
	ix := newTestIndexer(store, nil)
	ctx := context.Background()
	tenantID := uuid.New()
	docID := uuid.New()

	require.NoError(t, ix.Index(ctx, tenantID, docID, "note.txt", "", "short note"))

	entries, err := store.Load(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "unknown", entries[0].Metadata.Kind)
}

func TestRemove_DropsDocumentEntries(t *testing.T) {
	store := newTestStore(t)
	ix := newTestIndexer(store, nil)
	ctx := context.Background()
	tenantID := uuid.New()
	docID := uuid.New()

	require.NoError(t, ix.Index(ctx, tenantID, docID, "note.txt", "other", "text to remove"))
	require.NoError(t, ix.Remove(ctx, tenantID, docID))

	entries, err := store.Load(ctx, tenantID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
