package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/docsage/docsage/internal/ingest"
	"github.com/docsage/docsage/internal/queue"
)

// DocumentWorker executes ingestion units pulled off the task queue. Each
// task is one independent processing cycle; the coordinator owns all
// status writes.
type DocumentWorker struct {
	coordinator *ingest.Coordinator
}

func NewDocumentWorker(coordinator *ingest.Coordinator) *DocumentWorker {
	return &DocumentWorker{coordinator: coordinator}
}

func (w *DocumentWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.DocumentProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	docID, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		return fmt.Errorf("parse document ID: %w", err)
	}

	if err := w.coordinator.Process(ctx, docID); err != nil {
		slog.Error("document processing failed", "document_id", docID, "error", err)
		return err
	}
	return nil
}

func (w *DocumentWorker) ReindexTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.DocumentReindexPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	docID, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		return fmt.Errorf("parse document ID: %w", err)
	}

	if err := w.coordinator.Reindex(ctx, docID); err != nil {
		slog.Error("document reindex failed", "document_id", docID, "error", err)
		return err
	}
	return nil
}
