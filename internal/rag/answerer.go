// Package rag answers natural-language questions by combining retrieved
// chunks (or raw document bodies when nothing is indexed) with a
// generative collaborator.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/docsage/docsage/internal/index"
	"github.com/docsage/docsage/internal/llm"
	"github.com/docsage/docsage/internal/metrics"
	"github.com/docsage/docsage/internal/models"
)

// ChunkRetriever selects the top-k chunks for a query.
type ChunkRetriever interface {
	Retrieve(ctx context.Context, tenantID uuid.UUID, query string, documentIDs []uuid.UUID, k int) ([]index.ChunkEntry, error)
}

// DocumentLister supplies raw document bodies for tenants whose documents
// predate indexing.
type DocumentLister interface {
	ListWithBody(ctx context.Context, ownerID uuid.UUID, documentIDs []uuid.UUID) ([]models.Document, error)
}

// Answer is the response to one query.
type Answer struct {
	Query            string   `json:"query"`
	Response         string   `json:"response"`
	ContextDocuments int      `json:"context_documents"`
	Confidence       *float64 `json:"confidence,omitempty"`
	Sources          []string `json:"sources"`
}

const notConfiguredMessage = "LLM not configured. Provide an API key to enable query answering."

const answerPrompt = `Based on the following document context, answer the user's question.

User Question: %s

Document Context:
%s

Please provide a clear, accurate answer based on the document information.
If the information is not available in the documents, say so.`

type Options struct {
	TopK          int // chunks retrieved per query
	RawContextCap int // max characters taken from a raw document body
	Model         string
}

func DefaultOptions() Options {
	return Options{TopK: 5, RawContextCap: 1000}
}

type Answerer struct {
	retriever ChunkRetriever
	docs      DocumentLister
	gateway   llm.Gateway // may be nil
	opts      Options
	metrics   *metrics.Metrics // nil disables instrumentation
}

func NewAnswerer(retriever ChunkRetriever, docs DocumentLister, gw llm.Gateway, opts Options, m *metrics.Metrics) *Answerer {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.RawContextCap <= 0 {
		opts.RawContextCap = 1000
	}
	return &Answerer{retriever: retriever, docs: docs, gateway: gw, opts: opts, metrics: m}
}

type contextEntry struct {
	filename string
	kind     string
	text     string
}

// Answer assembles retrieved context for the query and delegates to the
// generative collaborator. Every failure past retrieval degrades to a
// message in the response body rather than an error.
func (a *Answerer) Answer(ctx context.Context, tenantID uuid.UUID, query string, documentIDs []uuid.UUID) (*Answer, error) {
	entries, source, err := a.buildContext(ctx, tenantID, query, documentIDs)
	if err != nil {
		return nil, err
	}
	if a.metrics != nil {
		a.metrics.QueriesTotal.WithLabelValues(source).Inc()
	}

	var sources []string
	seen := make(map[string]bool)
	for _, e := range entries {
		if !seen[e.filename] {
			seen[e.filename] = true
			sources = append(sources, e.filename)
		}
	}

	return &Answer{
		Query:            query,
		Response:         a.generate(ctx, query, entries),
		ContextDocuments: len(entries),
		Sources:          sources,
	}, nil
}

// buildContext prefers indexed chunks and falls back to raw stored bodies
// so documents indexed before the chunk store existed stay queryable.
func (a *Answerer) buildContext(ctx context.Context, tenantID uuid.UUID, query string, documentIDs []uuid.UUID) ([]contextEntry, string, error) {
	chunks, err := a.retriever.Retrieve(ctx, tenantID, query, documentIDs, a.opts.TopK)
	if err != nil {
		slog.Warn("retrieval failed, falling back to raw documents", "tenant_id", tenantID, "error", err)
		chunks = nil
	}

	if len(chunks) > 0 {
		entries := make([]contextEntry, len(chunks))
		for i, c := range chunks {
			entries[i] = contextEntry{
				filename: c.Metadata.Filename,
				kind:     c.Metadata.Kind,
				text:     c.Text,
			}
		}
		return entries, "chunks", nil
	}

	docs, err := a.docs.ListWithBody(ctx, tenantID, documentIDs)
	if err != nil {
		return nil, "", fmt.Errorf("load raw document context: %w", err)
	}
	if len(docs) == 0 {
		return nil, "none", nil
	}

	entries := make([]contextEntry, len(docs))
	for i, d := range docs {
		text := d.Body
		if len(text) > a.opts.RawContextCap {
			text = text[:a.opts.RawContextCap] + "..."
		}
		entries[i] = contextEntry{
			filename: d.OriginalName,
			kind:     d.Kind,
			text:     text,
		}
	}
	return entries, "raw", nil
}

func (a *Answerer) generate(ctx context.Context, query string, entries []contextEntry) string {
	if a.gateway == nil || !a.gateway.Configured() {
		if a.metrics != nil {
			a.metrics.DegradedAnswers.Inc()
		}
		return notConfiguredMessage
	}

	resp, err := a.gateway.Chat(ctx, llm.ChatRequest{
		Model: a.opts.Model,
		Messages: []llm.Message{
			{Role: "user", Content: fmt.Sprintf(answerPrompt, query, formatContext(entries))},
		},
		Temperature: 0.1,
	})
	if err != nil {
		slog.Error("answer generation failed", "error", err)
		if a.metrics != nil {
			a.metrics.DegradedAnswers.Inc()
		}
		return "I'm sorry, I encountered an error while processing your query. Please try again."
	}
	return strings.TrimSpace(resp.Content)
}

func formatContext(entries []contextEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		kind := e.kind
		if kind == "" {
			kind = "unknown"
		}
		fmt.Fprintf(&sb, "\nDocument: %s\nType: %s\nText: %s\n", e.filename, kind, e.text)
		sb.WriteString(strings.Repeat("-", 50))
		sb.WriteString("\n")
	}
	return sb.String()
}
