// Package document persists DocumentRecord rows and enforces the
// one-directional status transitions on them.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docsage/docsage/internal/models"
)

// ErrNotFound is returned when no document matches the given id.
var ErrNotFound = errors.New("document not found")

// ErrInvalidTransition is returned when a status update would violate the
// pending -> processing -> completed|failed order.
var ErrInvalidTransition = errors.New("invalid status transition")

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

const docColumns = `id, owner_id, original_name, mime_type, size_bytes, file_path,
	status, document_type, body, extracted_data, total_cents, uploaded_at, processed_at`

func (s *Service) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	doc.Status = models.DocStatusPending
	doc.UploadedAt = time.Now().UTC()

	entities, err := marshalEntities(doc.Entities)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO documents (id, owner_id, original_name, mime_type, size_bytes, file_path, status, extracted_data, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.OwnerID, doc.OriginalName, doc.MimeType, doc.SizeBytes, doc.FilePath, doc.Status, entities, doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+docColumns+" FROM documents WHERE id = $1", id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

type ListFilter struct {
	Status string
	Kind   string
	Limit  int
	Offset int
}

func (s *Service) List(ctx context.Context, ownerID uuid.UUID, f ListFilter) ([]models.Document, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}

	query := "SELECT " + docColumns + " FROM documents WHERE owner_id = $1"
	args := []any{ownerID}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Kind != "" {
		args = append(args, f.Kind)
		query += fmt.Sprintf(" AND document_type = $%d", len(args))
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY uploaded_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// ListWithBody returns the owner's documents that carry extracted text,
// optionally restricted to documentIDs. It feeds the query answerer's
// raw-document fallback.
func (s *Service) ListWithBody(ctx context.Context, ownerID uuid.UUID, documentIDs []uuid.UUID) ([]models.Document, error) {
	query := "SELECT " + docColumns + " FROM documents WHERE owner_id = $1 AND body <> ''"
	args := []any{ownerID}
	if len(documentIDs) > 0 {
		args = append(args, documentIDs)
		query += fmt.Sprintf(" AND id = ANY($%d)", len(args))
	}
	query += " ORDER BY uploaded_at"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents with body: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// MarkProcessing moves a document into processing. It refuses to touch a
// document that is already processing; a fresh cycle may start from
// pending or from a terminal state (explicit reprocessing).
func (s *Service) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE documents SET status = $1, processed_at = NULL WHERE id = $2 AND status <> $1",
		models.DocStatusProcessing, id,
	)
	if err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, ErrInvalidTransition)
	}
	return nil
}

// CompletionUpdate carries the terminal fields written on completed.
type CompletionUpdate struct {
	Kind       string
	Body       string
	Entities   models.EntityMap
	TotalCents *int64
}

// Complete moves a processing document to completed and records the
// derived fields and the processed timestamp.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, upd CompletionUpdate) error {
	entities, err := marshalEntities(upd.Entities)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE documents
		 SET status = $1, document_type = $2, body = $3, extracted_data = $4, total_cents = $5, processed_at = $6
		 WHERE id = $7 AND status = $8`,
		models.DocStatusCompleted, upd.Kind, upd.Body, entities, upd.TotalCents, time.Now().UTC(), id, models.DocStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("complete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, ErrInvalidTransition)
	}
	return nil
}

// Fail moves a processing document to failed and records the processed
// timestamp.
func (s *Service) Fail(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE documents SET status = $1, processed_at = $2 WHERE id = $3 AND status = $4",
		models.DocStatusFailed, time.Now().UTC(), id, models.DocStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("fail document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, ErrInvalidTransition)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalEntities(m models.EntityMap) ([]byte, error) {
	if m == nil {
		m = models.EntityMap{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal entities: %w", err)
	}
	return data, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var entities []byte
	err := row.Scan(
		&doc.ID, &doc.OwnerID, &doc.OriginalName, &doc.MimeType, &doc.SizeBytes, &doc.FilePath,
		&doc.Status, &doc.Kind, &doc.Body, &entities, &doc.TotalCents, &doc.UploadedAt, &doc.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(entities) > 0 {
		if err := json.Unmarshal(entities, &doc.Entities); err != nil {
			return nil, fmt.Errorf("unmarshal entities: %w", err)
		}
	}
	return &doc, nil
}
