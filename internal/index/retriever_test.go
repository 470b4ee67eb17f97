package index

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	entries []ChunkEntry
	err     error
}

func (s *stubStore) Load(ctx context.Context, tenantID uuid.UUID) ([]ChunkEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]ChunkEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *stubStore) ReplaceDocument(ctx context.Context, tenantID, documentID uuid.UUID, entries []ChunkEntry) error {
	return nil
}

func (s *stubStore) RemoveDocument(ctx context.Context, tenantID, documentID uuid.UUID) error {
	return nil
}

type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (e *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vectors[t]
	}
	return out, e.err
}

func (e *stubEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vectors[text], nil
}

func chunk(docID uuid.UUID, i int, text string, vec []float32) ChunkEntry {
	return ChunkEntry{
		ID:         EntryID(docID, i),
		DocumentID: docID,
		ChunkIndex: i,
		Text:       text,
		Embedding:  vec,
	}
}

func TestRetrieve_KeywordRanking(t *testing.T) {
	docID := uuid.New()
	store := &stubStore{entries: []ChunkEntry{
		chunk(docID, 0, "the weather today is sunny", nil),
		chunk(docID, 1, "invoice total amount due", nil),
		chunk(docID, 2, "the invoice total is large", nil),
	}}
	r := NewRetriever(store, nil)

	got, err := r.Retrieve(context.Background(), uuid.New(), "what is the invoice total amount", nil, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ChunkIndex)
	assert.Equal(t, 2, got[1].ChunkIndex)
}

func TestRetrieve_TieBreakKeepsInsertionOrder(t *testing.T) {
	docID := uuid.New()
	store := &stubStore{entries: []ChunkEntry{
		chunk(docID, 0, "payment received", nil),
		chunk(docID, 1, "payment pending", nil),
		chunk(docID, 2, "payment overdue", nil),
	}}
	r := NewRetriever(store, nil)

	got, err := r.Retrieve(context.Background(), uuid.New(), "payment", nil, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, e := range got {
		assert.Equal(t, i, e.ChunkIndex)
	}
}

func TestRetrieve_CosineRanking(t *testing.T) {
	docID := uuid.New()
	store := &stubStore{entries: []ChunkEntry{
		chunk(docID, 0, "far", []float32{0, 1, 0}),
		chunk(docID, 1, "near", []float32{1, 0.1, 0}),
		chunk(docID, 2, "exact", []float32{1, 0, 0}),
	}}
	embedder := &stubEmbedder{vectors: map[string][]float32{"query": {1, 0, 0}}}
	r := NewRetriever(store, embedder)

	got, err := r.Retrieve(context.Background(), uuid.New(), "query", nil, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 2, got[0].ChunkIndex)
	assert.Equal(t, 1, got[1].ChunkIndex)
	assert.Equal(t, 0, got[2].ChunkIndex)
}

func TestRetrieve_EmbedderFailureFallsBackToKeywords(t *testing.T) {
	docID := uuid.New()
	store := &stubStore{entries: []ChunkEntry{
		chunk(docID, 0, "nothing relevant here", []float32{0, 1}),
		chunk(docID, 1, "contract renewal terms", []float32{1, 0}),
	}}
	embedder := &stubEmbedder{err: errors.New("provider down")}
	r := NewRetriever(store, embedder)

	got, err := r.Retrieve(context.Background(), uuid.New(), "contract terms", nil, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ChunkIndex)
}

func TestRetrieve_VectorlessChunksScoreZero(t *testing.T) {
	docID := uuid.New()
	store := &stubStore{entries: []ChunkEntry{
		chunk(docID, 0, "no vector", nil),
		chunk(docID, 1, "has vector", []float32{1, 0}),
	}}
	embedder := &stubEmbedder{vectors: map[string][]float32{"query": {1, 0}}}
	r := NewRetriever(store, embedder)

	got, err := r.Retrieve(context.Background(), uuid.New(), "query", nil, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ChunkIndex)
}

func TestRetrieve_DocumentFilter(t *testing.T) {
	docA := uuid.New()
	docB := uuid.New()
	store := &stubStore{entries: []ChunkEntry{
		chunk(docA, 0, "invoice from A", nil),
		chunk(docB, 0, "invoice from B", nil),
	}}
	r := NewRetriever(store, nil)

	got, err := r.Retrieve(context.Background(), uuid.New(), "invoice", []uuid.UUID{docB}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, docB, got[0].DocumentID)
}

func TestRetrieve_EmptyStore(t *testing.T) {
	r := NewRetriever(&stubStore{}, nil)

	got, err := r.Retrieve(context.Background(), uuid.New(), "anything", nil, 5)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRetrieve_DefaultK(t *testing.T) {
	docID := uuid.New()
	var entries []ChunkEntry
	for i := 0; i < 8; i++ {
		entries = append(entries, chunk(docID, i, "same text", nil))
	}
	r := NewRetriever(&stubStore{entries: entries}, nil)

	got, err := r.Retrieve(context.Background(), uuid.New(), "same", nil, 0)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestCosineSimilarity_DegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, cosineSimilarity(nil, []float32{1}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1}, nil))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
}

func TestKeywordScore_DistinctTokens(t *testing.T) {
	assert.Equal(t, 2, keywordScore("Total TOTAL amount due", "the total amount"))
	assert.Equal(t, 0, keywordScore("unrelated text", "invoice total"))
}
