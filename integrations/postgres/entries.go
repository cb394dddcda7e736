package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/kwgn/pdfledger/extractor/common"
)

const insertEntry = `
	INSERT INTO ledger_entries (
		document_id, card_id, sequence, date, narration, amount, direction, sub_category, category
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

// entryArgs lays out one record for insertEntry. Narration is stored untruncated
// with whitespace collapsed; an absent amount is stored as NULL.
func entryArgs(documentID, cardID string, sequence int, t common.Transaction) []any {
	var amount any
	if t.Amount.Valid {
		amount = t.Amount.Decimal
	}
	return []any{
		documentID, cardID, sequence, t.Date,
		strings.Join(strings.Fields(t.Transaction), " "),
		amount, t.Direction.String(), t.SubCategory, t.Category,
	}
}

// CreateEntries bulk inserts the records of one document. cardIDs maps each card
// label to its row id.
func (db *DB) CreateEntries(ctx context.Context, documentID string, cardIDs map[string]string, transactions []common.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, t := range transactions {
		cardID, ok := cardIDs[t.Card]
		if !ok {
			return fmt.Errorf("no card id for %q", t.Card)
		}
		batch.Queue(insertEntry, entryArgs(documentID, cardID, i+1, t)...)
	}

	br := db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	for range transactions {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert ledger entry: %w", err)
		}
	}

	return nil
}
