package extractor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kwgn/pdfledger/extractor/common"
	"github.com/kwgn/pdfledger/ledger"
	"github.com/rs/zerolog"
)

var (
	// ErrNoPages is returned for a document whose layout produced no pages at all.
	ErrNoPages = common.ErrNoPages
	// ErrNoTables is returned when a table dialect gets a document whose table
	// detection failed.
	ErrNoTables = common.ErrNoTables
	// ErrUnknownDialect is returned when a route names a dialect that does not exist.
	ErrUnknownDialect = errors.New("unknown dialect")
)

// PageDecoder turns raw document bytes into pages.
type PageDecoder interface {
	Decode(data []byte) ([]common.Page, error)
}

// Engine routes documents to their dialect and collects the records.
type Engine struct {
	Routes  []Route
	Decoder PageDecoder
	Logger  zerolog.Logger
}

// ExtractDocument runs the matching strategy over an already decoded document.
// A document that matches no route yields no records and no error.
func (e *Engine) ExtractDocument(doc common.Document) ([]common.Transaction, error) {
	route, ok := Classify(doc.Name, e.Routes)
	if !ok {
		e.Logger.Info().Str("document", doc.Name).Msg("no dialect matches, skipping")
		return nil, nil
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%s: %w", doc.Name, ErrNoPages)
	}

	strategy, err := StrategyFor(route.Dialect)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Name, err)
	}
	if strategy.Tabular() {
		if err := doc.TableFailure(); err != nil {
			return nil, fmt.Errorf("%s: %w", doc.Name, err)
		}
	}

	card := route.Card
	if doc.Card != "" {
		card = doc.Card
	}

	transactions := strategy.Extract(doc, card)
	e.Logger.Info().
		Str("document", doc.Name).
		Str("dialect", string(route.Dialect)).
		Int("transactions", len(transactions)).
		Int("pages", len(doc.Pages)).
		Msg("extracted")
	return transactions, nil
}

// Run extracts every document in order. On error nothing is returned, so callers
// never see a partial ledger.
func (e *Engine) Run(docs []common.Document) ([]common.Transaction, error) {
	all := []common.Transaction{}
	for _, doc := range docs {
		transactions, err := e.ExtractDocument(doc)
		if err != nil {
			return nil, err
		}
		all = append(all, transactions...)
	}
	return all, nil
}

// ProcessReader decodes one document and extracts it. Documents whose name matches
// no route are not decoded.
func (e *Engine) ProcessReader(r io.Reader, name, card string) ([]common.Transaction, error) {
	if _, ok := Classify(name, e.Routes); !ok {
		e.Logger.Info().Str("document", name).Msg("no dialect matches, skipping")
		return nil, nil
	}

	doc, err := e.Decode(r, name, card)
	if err != nil {
		return nil, err
	}
	return e.ExtractDocument(doc)
}

// Decode reads r fully and decodes it into a document.
func (e *Engine) Decode(r io.Reader, name, card string) (common.Document, error) {
	if e.Decoder == nil {
		return common.Document{}, errors.New("no page decoder configured")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return common.Document{}, fmt.Errorf("%s: read: %w", name, err)
	}
	pages, err := e.Decoder.Decode(data)
	if err != nil {
		return common.Document{}, fmt.Errorf("%s: decode: %w", name, err)
	}
	return common.Document{Name: name, Card: card, Pages: pages}, nil
}

// ExtractPath processes a single PDF or every PDF directly inside a directory, in
// file name order.
func (e *Engine) ExtractPath(path string) ([]common.Transaction, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	files := []string{path}
	if info.IsDir() {
		e.Logger.Info().Str("path", path).Msg("scanning directory")
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory: %w", err)
		}
		files = files[:0]
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
				continue
			}
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}

	all := []common.Transaction{}
	for _, file := range files {
		transactions, err := e.processFile(file)
		if err != nil {
			return nil, err
		}
		all = append(all, transactions...)
	}
	return all, nil
}

// ExecuteAgainstPath extracts path, consolidates the records and writes the ledger
// to w in the given format.
func (e *Engine) ExecuteAgainstPath(path string, w io.Writer, format ledger.Format, opts ledger.Options) error {
	transactions, err := e.ExtractPath(path)
	if err != nil {
		return err
	}
	entries := ledger.Consolidate(transactions, opts)
	e.Logger.Info().Int("entries", len(entries)).Str("format", string(format)).Msg("writing ledger")
	return ledger.Write(w, entries, format)
}

func (e *Engine) processFile(path string) ([]common.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return e.ProcessReader(f, filepath.Base(path), "")
}
