package postgres

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kwgn/pdfledger/extractor"
	"github.com/kwgn/pdfledger/logging"
)

// ImportResult tracks the outcome of an import operation
type ImportResult struct {
	RunID     uuid.UUID
	Processed int
	Skipped   int
	Failed    int
	Entries   int
	Errors    []string
}

type ImportOptions struct {
	Force bool   // re-import documents whose content was already imported
	Card  string // overrides the route's card label
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ImportFile extracts one PDF and stores its records. Files that match no route
// count as skipped.
func (db *DB) ImportFile(ctx context.Context, engine *extractor.Engine, runID uuid.UUID, filePath string, opts ImportOptions, result *ImportResult) {
	logger := logging.FromContext(ctx)
	fileName := filepath.Base(filePath)

	fail := func(format string, args ...any) {
		result.Failed++
		result.Errors = append(result.Errors, fileName+": "+fmt.Sprintf(format, args...))
	}

	route, ok := extractor.Classify(fileName, engine.Routes)
	if !ok {
		logger.Info().Str("file", fileName).Msg("SKIP no dialect matches")
		result.Skipped++
		return
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		fail("failed to read file: %v", err)
		return
	}
	hash := contentHash(data)

	exists, existingID, err := db.DocumentExists(ctx, hash)
	if err != nil {
		fail("check error: %v", err)
		return
	}
	if exists && !opts.Force {
		logger.Info().Str("file", fileName).Msg("SKIP already imported")
		result.Skipped++
		return
	}

	doc, err := engine.Decode(bytes.NewReader(data), fileName, opts.Card)
	if err != nil {
		fail("%v", err)
		return
	}
	transactions, err := engine.ExtractDocument(doc)
	if err != nil {
		fail("%v", err)
		return
	}

	if exists {
		if err := db.DeleteDocument(ctx, existingID); err != nil {
			fail("delete error: %v", err)
			return
		}
	}

	cardIDs := map[string]string{}
	for _, t := range transactions {
		if _, seen := cardIDs[t.Card]; seen {
			continue
		}
		id, err := db.GetOrCreateCard(ctx, t.Card, t.CardType)
		if err != nil {
			fail("card error: %v", err)
			return
		}
		cardIDs[t.Card] = id
	}

	documentID, err := db.CreateDocument(ctx, Document{
		ImportRun:   runID,
		Source:      fileName,
		Dialect:     string(route.Dialect),
		ContentHash: hash,
		EntryCount:  len(transactions),
	})
	if err != nil {
		fail("document error: %v", err)
		return
	}

	if err := db.CreateEntries(ctx, documentID, cardIDs, transactions); err != nil {
		// Rollback by deleting the document
		_ = db.DeleteDocument(ctx, documentID)
		fail("entries error: %v", err)
		return
	}

	logger.Info().Str("file", fileName).Int("entries", len(transactions)).Msg("OK")
	result.Processed++
	result.Entries += len(transactions)
}

// Import handles both file and directory imports. Every document stored by one
// call shares the returned RunID.
func (db *DB) Import(ctx context.Context, engine *extractor.Engine, path string, opts ImportOptions) (*ImportResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	files := []string{path}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory: %w", err)
		}
		files = files[:0]
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
				continue
			}
			files = append(files, filepath.Join(path, e.Name()))
		}
		logging.FromContext(ctx).Info().Str("path", path).Int("files", len(files)).Msg("scanning")
	}

	result := &ImportResult{RunID: uuid.New()}
	for _, file := range files {
		db.ImportFile(ctx, engine, result.RunID, file, opts, result)
	}
	for _, msg := range result.Errors {
		logging.FromContext(ctx).Warn().Msg("FAIL " + msg)
	}
	return result, nil
}
