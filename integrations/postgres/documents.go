package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Document struct {
	ImportRun   uuid.UUID
	Source      string
	Dialect     string
	ContentHash string
	EntryCount  int
}

// DocumentExists checks whether a PDF with the same content was already imported
func (db *DB) DocumentExists(ctx context.Context, contentHash string) (bool, string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
		SELECT id FROM documents WHERE content_hash = $1
	`, contentHash).Scan(&id)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("failed to check document: %w", err)
	}

	return true, id, nil
}

func (db *DB) CreateDocument(ctx context.Context, doc Document) (string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO documents (import_run, source, dialect, content_hash, entry_count)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, doc.ImportRun, doc.Source, doc.Dialect, doc.ContentHash, doc.EntryCount).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}
	return id, nil
}

// DeleteDocument removes a document and its ledger entries (cascade)
func (db *DB) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
