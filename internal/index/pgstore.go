package index

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgStore backs the chunk index with the document_chunks table. The
// transactional delete+insert in ReplaceDocument gives the same all-old or
// all-new visibility as the file store's rename.
type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) Load(ctx context.Context, tenantID uuid.UUID) ([]ChunkEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT document_id, chunk_index, content, embedding::real[], filename, document_type
		 FROM document_chunks
		 WHERE tenant_id = $1
		 ORDER BY seq`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	defer rows.Close()

	var entries []ChunkEntry
	for rows.Next() {
		var e ChunkEntry
		var emb *[]float32
		if err := rows.Scan(&e.DocumentID, &e.ChunkIndex, &e.Text, &emb, &e.Metadata.Filename, &e.Metadata.Kind); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if emb != nil {
			e.Embedding = *emb
		}
		e.ID = EntryID(e.DocumentID, e.ChunkIndex)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PgStore) ReplaceDocument(ctx context.Context, tenantID, documentID uuid.UUID, entries []ChunkEntry) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		"DELETE FROM document_chunks WHERE tenant_id = $1 AND document_id = $2",
		tenantID, documentID,
	)
	if err != nil {
		return fmt.Errorf("delete old chunks: %w", err)
	}

	for _, e := range entries {
		var emb any
		if len(e.Embedding) > 0 {
			emb = pgvector.NewVector(e.Embedding)
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO document_chunks (tenant_id, document_id, chunk_index, content, embedding, filename, document_type)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			tenantID, e.DocumentID, e.ChunkIndex, e.Text, emb, e.Metadata.Filename, e.Metadata.Kind,
		)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", e.ChunkIndex, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PgStore) RemoveDocument(ctx context.Context, tenantID, documentID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		"DELETE FROM document_chunks WHERE tenant_id = $1 AND document_id = $2",
		tenantID, documentID,
	)
	return err
}
