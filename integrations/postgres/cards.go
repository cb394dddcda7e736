package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kwgn/pdfledger/extractor/common"
)

// GetOrCreateCard finds a card by its label or creates it. The stored card type is
// refreshed on every call.
func (db *DB) GetOrCreateCard(ctx context.Context, name string, cardType common.CardType) (string, error) {
	var id string

	err := db.Pool.QueryRow(ctx, `
		SELECT id FROM cards WHERE card_name = $1
	`, name).Scan(&id)

	if err == nil {
		_, err = db.Pool.Exec(ctx, `
			UPDATE cards SET card_type = $1, updated_at = NOW() WHERE id = $2
		`, string(cardType), id)
		if err != nil {
			return "", fmt.Errorf("failed to update card: %w", err)
		}
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("failed to look up card: %w", err)
	}

	err = db.Pool.QueryRow(ctx, `
		INSERT INTO cards (card_name, card_type)
		VALUES ($1, $2)
		RETURNING id
	`, name, string(cardType)).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create card: %w", err)
	}

	return id, nil
}
