// Package ingest owns the per-document processing state machine:
// extraction, classification, persistence of the derived fields, and
// best-effort indexing.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/docsage/docsage/internal/analysis"
	"github.com/docsage/docsage/internal/document"
	"github.com/docsage/docsage/internal/metrics"
	"github.com/docsage/docsage/internal/models"
	"github.com/docsage/docsage/internal/queue"
)

// DocumentStore is the slice of the document service the coordinator
// writes through. The coordinator is the only writer of document status.
type DocumentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID, upd document.CompletionUpdate) error
	Fail(ctx context.Context, id uuid.UUID) error
}

// DocumentIndexer maintains the per-tenant chunk index.
type DocumentIndexer interface {
	Index(ctx context.Context, tenantID, documentID uuid.UUID, filename, kind, text string) error
	Remove(ctx context.Context, tenantID, documentID uuid.UUID) error
}

// Enqueuer schedules background processing units.
type Enqueuer interface {
	EnqueueDocumentProcess(payload queue.DocumentProcessPayload) error
	EnqueueDocumentReindex(payload queue.DocumentReindexPayload) error
}

// A classifier kind is only trusted at or above this confidence;
// below it the keyword heuristic decides.
const minClassifierConfidence = 0.5

type Coordinator struct {
	docs       DocumentStore
	extractor  Extractor
	classifier analysis.Classifier // nil when no collaborator is configured
	indexer    DocumentIndexer
	tasks      Enqueuer
	metrics    *metrics.Metrics // nil disables instrumentation
}

func NewCoordinator(docs DocumentStore, extractor Extractor, classifier analysis.Classifier, indexer DocumentIndexer, tasks Enqueuer, m *metrics.Metrics) *Coordinator {
	return &Coordinator{
		docs:       docs,
		extractor:  extractor,
		classifier: classifier,
		indexer:    indexer,
		tasks:      tasks,
		metrics:    m,
	}
}

// Submit schedules asynchronous processing for a document already created
// in pending and returns immediately.
func (c *Coordinator) Submit(documentID, ownerID uuid.UUID) error {
	err := c.tasks.EnqueueDocumentProcess(queue.DocumentProcessPayload{
		DocumentID: documentID.String(),
		TenantID:   ownerID.String(),
	})
	if err != nil {
		return fmt.Errorf("enqueue document process: %w", err)
	}
	slog.Info("document submitted for processing", "document_id", documentID)
	return nil
}

// SubmitReindex schedules an asynchronous index rebuild from the stored
// body.
func (c *Coordinator) SubmitReindex(documentID, ownerID uuid.UUID) error {
	err := c.tasks.EnqueueDocumentReindex(queue.DocumentReindexPayload{
		DocumentID: documentID.String(),
		TenantID:   ownerID.String(),
	})
	if err != nil {
		return fmt.Errorf("enqueue document reindex: %w", err)
	}
	return nil
}

// Process runs one full processing cycle for a document and always leaves
// it in completed or failed once processing has started. Failing to enter
// processing aborts the run and leaves the prior status untouched; there
// is no automatic retry.
func (c *Coordinator) Process(ctx context.Context, documentID uuid.UUID) error {
	doc, err := c.docs.GetByID(ctx, documentID)
	if err != nil {
		// Deletion can race a queued task; nothing to do then.
		return fmt.Errorf("get document: %w", err)
	}

	if err := c.docs.MarkProcessing(ctx, documentID); err != nil {
		slog.Error("cannot enter processing", "document_id", documentID, "error", err)
		return err
	}

	slog.Info("processing document", "document_id", documentID, "name", doc.OriginalName)

	text, err := c.extractor.Extract(ctx, doc.FilePath, doc.MimeType)
	if err != nil {
		c.fail(ctx, documentID)
		return fmt.Errorf("extract text: %w", err)
	}

	cls := c.classify(ctx, doc.OriginalName, text)

	upd := document.CompletionUpdate{
		Kind:     cls.Kind,
		Body:     text,
		Entities: cls.Entities,
	}
	if total, ok := cls.Entities.Number("total_amount"); ok {
		cents := int64(math.Round(total * 100))
		upd.TotalCents = &cents
	}

	if err := c.docs.Complete(ctx, documentID, upd); err != nil {
		c.fail(ctx, documentID)
		return fmt.Errorf("persist processing result: %w", err)
	}
	if c.metrics != nil {
		c.metrics.DocumentsProcessed.WithLabelValues(models.DocStatusCompleted).Inc()
	}

	slog.Info("document processed", "document_id", documentID, "kind", cls.Kind)

	// Indexing is best-effort: a store error never rolls the document
	// back from completed.
	if err := c.indexer.Index(ctx, doc.OwnerID, doc.ID, doc.OriginalName, cls.Kind, text); err != nil {
		slog.Error("indexing failed", "document_id", documentID, "error", err)
		if c.metrics != nil {
			c.metrics.IndexFailures.Inc()
		}
	}

	return nil
}

// Reindex rebuilds a document's index entries from its stored body. It is
// the explicit path for documents indexed before a chunking or embedding
// change, and for recovering from a failed best-effort index.
func (c *Coordinator) Reindex(ctx context.Context, documentID uuid.UUID) error {
	doc, err := c.docs.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	return c.indexer.Index(ctx, doc.OwnerID, doc.ID, doc.OriginalName, doc.Kind, doc.Body)
}

// RemoveFromIndex drops a document's chunk entries; the deletion handler
// calls this after removing the record itself.
func (c *Coordinator) RemoveFromIndex(ctx context.Context, tenantID, documentID uuid.UUID) error {
	return c.indexer.Remove(ctx, tenantID, documentID)
}

func (c *Coordinator) classify(ctx context.Context, filename, text string) *analysis.Classification {
	if c.classifier != nil {
		cls, err := c.classifier.Classify(ctx, text)
		switch {
		case err != nil:
			slog.Warn("classification failed, using heuristic", "error", err)
		case cls.Kind == "" || cls.Confidence < minClassifierConfidence:
			slog.Warn("classification not confident, using heuristic", "kind", cls.Kind, "confidence", cls.Confidence)
		default:
			if cls.Entities == nil {
				cls.Entities = models.EntityMap{}
			}
			return cls
		}
	}
	return analysis.ClassifyHeuristic(filename, text)
}

func (c *Coordinator) fail(ctx context.Context, documentID uuid.UUID) {
	if err := c.docs.Fail(ctx, documentID); err != nil {
		slog.Error("cannot mark document failed", "document_id", documentID, "error", err)
		return
	}
	if c.metrics != nil {
		c.metrics.DocumentsProcessed.WithLabelValues(models.DocStatusFailed).Inc()
	}
}
