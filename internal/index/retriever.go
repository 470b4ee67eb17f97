package index

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/docsage/docsage/internal/embedding"
)

// Retriever scores and ranks stored chunks against a query. It is
// read-only and safe to use concurrently with indexing.
type Retriever struct {
	store    Store
	embedder embedding.Embedder // may be nil
}

func NewRetriever(store Store, embedder embedding.Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Retrieve returns up to k entries ranked by score descending. When the
// embedding provider is configured and the query embeds successfully,
// chunks are scored by cosine similarity; otherwise by the number of
// distinct lowercase tokens shared with the query. Equal scores keep
// insertion order. An empty store yields an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, tenantID uuid.UUID, query string, documentIDs []uuid.UUID, k int) ([]ChunkEntry, error) {
	if k <= 0 {
		k = 5
	}

	entries, err := r.store.Load(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if len(documentIDs) > 0 {
		allowed := make(map[uuid.UUID]bool, len(documentIDs))
		for _, id := range documentIDs {
			allowed[id] = true
		}
		filtered := entries[:0]
		for _, e := range entries {
			if allowed[e.DocumentID] {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if len(entries) == 0 {
		return nil, nil
	}

	scores := r.score(ctx, query, entries)

	idx := make([]int, len(entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})

	if k > len(idx) {
		k = len(idx)
	}
	top := make([]ChunkEntry, k)
	for i := 0; i < k; i++ {
		top[i] = entries[idx[i]]
	}
	return top, nil
}

func (r *Retriever) score(ctx context.Context, query string, entries []ChunkEntry) []float64 {
	scores := make([]float64, len(entries))

	if r.embedder != nil {
		queryVec, err := r.embedder.EmbedSingle(ctx, query)
		if err == nil {
			for i, e := range entries {
				scores[i] = cosineSimilarity(queryVec, e.Embedding)
			}
			return scores
		}
		slog.Warn("query embedding failed, using keyword scoring", "error", err)
	}

	for i, e := range entries {
		scores[i] = float64(keywordScore(e.Text, query))
	}
	return scores
}

// cosineSimilarity scores 0.0 for degenerate inputs (nil vectors, length
// mismatch, zero norm) instead of failing.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// keywordScore counts distinct whitespace-delimited lowercase tokens
// shared between the chunk text and the query.
func keywordScore(text, query string) int {
	qtoks := make(map[string]bool)
	for _, t := range strings.Fields(strings.ToLower(query)) {
		qtoks[t] = true
	}

	seen := make(map[string]bool)
	n := 0
	for _, t := range strings.Fields(strings.ToLower(text)) {
		if qtoks[t] && !seen[t] {
			seen[t] = true
			n++
		}
	}
	return n
}
