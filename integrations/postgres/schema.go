package postgres

import (
	"context"
	"fmt"
)

const ddl = `
CREATE TABLE IF NOT EXISTS cards (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    card_name VARCHAR(255) NOT NULL,
    card_type VARCHAR(20) NOT NULL,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW(),

    UNIQUE(card_name)
);

-- One row per imported PDF; the content hash makes re-imports detectable
CREATE TABLE IF NOT EXISTS documents (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    import_run UUID NOT NULL,
    source VARCHAR(255) NOT NULL,
    dialect VARCHAR(32) NOT NULL,
    content_hash CHAR(64) NOT NULL,
    entry_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ DEFAULT NOW(),

    UNIQUE(content_hash)
);

CREATE TABLE IF NOT EXISTS ledger_entries (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    card_id UUID NOT NULL REFERENCES cards(id),
    sequence INTEGER NOT NULL,
    date DATE NOT NULL,
    narration TEXT NOT NULL,
    amount NUMERIC(18,2),
    direction VARCHAR(10) NOT NULL DEFAULT '',
    sub_category TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ DEFAULT NOW(),

    UNIQUE(document_id, sequence)
);

CREATE INDEX IF NOT EXISTS idx_documents_import_run ON documents(import_run);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_document_id ON ledger_entries(document_id);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_card_id ON ledger_entries(card_id);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_date ON ledger_entries(date);
`

// EnsureSchema creates tables if they don't exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
