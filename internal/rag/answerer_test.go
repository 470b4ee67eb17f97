package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsage/docsage/internal/index"
	"github.com/docsage/docsage/internal/llm"
	"github.com/docsage/docsage/internal/models"
)

type stubRetriever struct {
	chunks []index.ChunkEntry
	err    error
	gotK   int
}

func (s *stubRetriever) Retrieve(ctx context.Context, tenantID uuid.UUID, query string, documentIDs []uuid.UUID, k int) ([]index.ChunkEntry, error) {
	s.gotK = k
	return s.chunks, s.err
}

type stubLister struct {
	docs []models.Document
	err  error
}

func (s *stubLister) ListWithBody(ctx context.Context, ownerID uuid.UUID, documentIDs []uuid.UUID) ([]models.Document, error) {
	return s.docs, s.err
}

type stubGateway struct {
	configured bool
	reply      string
	err        error
	lastPrompt string
}

func (g *stubGateway) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if len(req.Messages) > 0 {
		g.lastPrompt = req.Messages[len(req.Messages)-1].Content
	}
	if g.err != nil {
		return nil, g.err
	}
	return &llm.ChatResponse{Content: g.reply}, nil
}

func (g *stubGateway) Embed(ctx context.Context, req llm.EmbeddingRequest) (*llm.EmbeddingResponse, error) {
	return nil, errors.New("not implemented")
}

func (g *stubGateway) Configured() bool { return g.configured }

func chunkEntry(docID uuid.UUID, i int, filename, kind, text string) index.ChunkEntry {
	return index.ChunkEntry{
		ID:         index.EntryID(docID, i),
		DocumentID: docID,
		ChunkIndex: i,
		Text:       text,
		Metadata:   index.ChunkMetadata{Filename: filename, Kind: kind},
	}
}

func TestAnswer_FromChunks(t *testing.T) {
	docID := uuid.New()
	retriever := &stubRetriever{chunks: []index.ChunkEntry{
		chunkEntry(docID, 0, "invoice.pdf", "invoice", "Total due is $1,234.56."),
		chunkEntry(docID, 1, "invoice.pdf", "invoice", "Payment terms: net 30."),
	}}
	gw := &stubGateway{configured: true, reply: "The total is $1,234.56."}
	a := NewAnswerer(retriever, &stubLister{}, gw, DefaultOptions(), nil)

	ans, err := a.Answer(context.Background(), uuid.New(), "what is the total", nil)
	require.NoError(t, err)

	assert.Equal(t, "what is the total", ans.Query)
	assert.Equal(t, "The total is $1,234.56.", ans.Response)
	assert.Equal(t, 2, ans.ContextDocuments)
	assert.Nil(t, ans.Confidence)
	assert.Equal(t, []string{"invoice.pdf"}, ans.Sources)
	assert.Equal(t, 5, retriever.gotK)

	assert.Contains(t, gw.lastPrompt, "Total due is $1,234.56.")
	assert.Contains(t, gw.lastPrompt, "Document: invoice.pdf")
	assert.Contains(t, gw.lastPrompt, "Type: invoice")
}

func TestAnswer_RawDocumentFallback(t *testing.T) {
	lister := &stubLister{docs: []models.Document{
		{OriginalName: "contract.pdf", Kind: "contract", Body: "This agreement is binding."},
	}}
	gw := &stubGateway{configured: true, reply: "It is a binding agreement."}
	a := NewAnswerer(&stubRetriever{}, lister, gw, DefaultOptions(), nil)

	ans, err := a.Answer(context.Background(), uuid.New(), "is it binding", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, ans.ContextDocuments)
	assert.Equal(t, []string{"contract.pdf"}, ans.Sources)
	assert.Contains(t, gw.lastPrompt, "This agreement is binding.")
}

func TestAnswer_RawFallbackCapsBody(t *testing.T) {
	long := strings.Repeat("a", 1500)
	lister := &stubLister{docs: []models.Document{
		{OriginalName: "big.txt", Kind: "other", Body: long},
	}}
	gw := &stubGateway{configured: true, reply: "ok"}
	a := NewAnswerer(&stubRetriever{}, lister, gw, Options{RawContextCap: 1000}, nil)

	_, err := a.Answer(context.Background(), uuid.New(), "anything", nil)
	require.NoError(t, err)

	assert.Contains(t, gw.lastPrompt, strings.Repeat("a", 1000)+"...")
	assert.NotContains(t, gw.lastPrompt, strings.Repeat("a", 1001))
}

func TestAnswer_NotConfigured(t *testing.T) {
	docID := uuid.New()
	retriever := &stubRetriever{chunks: []index.ChunkEntry{
		chunkEntry(docID, 0, "invoice.pdf", "invoice", "Total due is $5."),
	}}
	a := NewAnswerer(retriever, &stubLister{}, &stubGateway{configured: false}, DefaultOptions(), nil)

	ans, err := a.Answer(context.Background(), uuid.New(), "what is the total", nil)
	require.NoError(t, err)

	assert.Equal(t, notConfiguredMessage, ans.Response)
	assert.Equal(t, 1, ans.ContextDocuments)
	assert.Equal(t, []string{"invoice.pdf"}, ans.Sources)
}

func TestAnswer_NilGateway(t *testing.T) {
	a := NewAnswerer(&stubRetriever{}, &stubLister{}, nil, DefaultOptions(), nil)

	ans, err := a.Answer(context.Background(), uuid.New(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, notConfiguredMessage, ans.Response)
	assert.Equal(t, 0, ans.ContextDocuments)
	assert.Empty(t, ans.Sources)
}

func TestAnswer_GatewayErrorDegrades(t *testing.T) {
	docID := uuid.New()
	retriever := &stubRetriever{chunks: []index.ChunkEntry{
		chunkEntry(docID, 0, "a.txt", "other", "text"),
	}}
	gw := &stubGateway{configured: true, err: errors.New("rate limited")}
	a := NewAnswerer(retriever, &stubLister{}, gw, DefaultOptions(), nil)

	ans, err := a.Answer(context.Background(), uuid.New(), "anything", nil)
	require.NoError(t, err)
	assert.Contains(t, ans.Response, "I'm sorry")
}

func TestAnswer_RetrievalErrorFallsBackToRaw(t *testing.T) {
	retriever := &stubRetriever{err: errors.New("store unreadable")}
	lister := &stubLister{docs: []models.Document{
		{OriginalName: "note.txt", Kind: "other", Body: "fallback text"},
	}}
	gw := &stubGateway{configured: true, reply: "from fallback"}
	a := NewAnswerer(retriever, lister, gw, DefaultOptions(), nil)

	ans, err := a.Answer(context.Background(), uuid.New(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, "from fallback", ans.Response)
	assert.Contains(t, gw.lastPrompt, "fallback text")
}

func TestAnswer_ListerErrorPropagates(t *testing.T) {
	lister := &stubLister{err: errors.New("db down")}
	a := NewAnswerer(&stubRetriever{}, lister, &stubGateway{configured: true}, DefaultOptions(), nil)

	_, err := a.Answer(context.Background(), uuid.New(), "anything", nil)
	assert.Error(t, err)
}

func TestAnswer_DistinctSources(t *testing.T) {
	docA := uuid.New()
	docB := uuid.New()
	retriever := &stubRetriever{chunks: []index.ChunkEntry{
		chunkEntry(docA, 0, "a.pdf", "invoice", "one"),
		chunkEntry(docB, 0, "b.pdf", "receipt", "two"),
		chunkEntry(docA, 1, "a.pdf", "invoice", "three"),
	}}
	a := NewAnswerer(retriever, &stubLister{}, &stubGateway{configured: true, reply: "ok"}, DefaultOptions(), nil)

	ans, err := a.Answer(context.Background(), uuid.New(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, ans.Sources)
	assert.Equal(t, 3, ans.ContextDocuments)
}
