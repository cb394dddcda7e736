package gcs

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/kwgn/pdfledger/extractor"
	"github.com/kwgn/pdfledger/extractor/common"
	"github.com/kwgn/pdfledger/ledger"
	"github.com/kwgn/pdfledger/logging"
)

type ProcessOptions struct {
	Prefix string
	// Output is the object the ledger is written to. Defaults to
	// <prefix>/ledger.<ext>.
	Output string
	Format ledger.Format
	Ledger ledger.Options
}

type ProcessResult struct {
	Documents   int    `json:"documents"`
	Entries     int    `json:"entries"`
	Output      string `json:"output"`
	ContentType string `json:"content_type"`
}

// OutputObject resolves where the ledger for opts is written.
func (o ProcessOptions) OutputObject() string {
	if o.Output != "" {
		return o.Output
	}
	return path.Join(o.Prefix, "ledger"+o.Format.Extension())
}

// Process downloads every PDF under the prefix, extracts and consolidates them and
// uploads the ledger. Nothing is uploaded if any document fails.
func (s *Store) Process(ctx context.Context, engine *extractor.Engine, opts ProcessOptions) (*ProcessResult, error) {
	logger := logging.FromContext(ctx)

	objects, err := s.List(ctx, opts.Prefix)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("bucket", s.name).Str("prefix", opts.Prefix).Int("objects", len(objects)).Msg("listed statements")

	docs := make([]common.Document, 0, len(objects))
	for _, object := range objects {
		name := path.Base(object)
		if _, ok := extractor.Classify(name, engine.Routes); !ok {
			logger.Info().Str("object", object).Msg("no dialect matches, skipping")
			continue
		}
		data, err := s.Fetch(ctx, object)
		if err != nil {
			return nil, err
		}
		doc, err := engine.Decode(bytes.NewReader(data), name, "")
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	transactions, err := engine.Run(docs)
	if err != nil {
		return nil, err
	}
	entries := ledger.Consolidate(transactions, opts.Ledger)

	var buf bytes.Buffer
	if err := ledger.Write(&buf, entries, opts.Format); err != nil {
		return nil, err
	}

	output := opts.OutputObject()
	if err := s.Upload(ctx, output, opts.Format.ContentType(), &buf); err != nil {
		return nil, err
	}
	logger.Info().Str("output", s.URI(output)).Int("entries", len(entries)).Msg("uploaded ledger")

	return &ProcessResult{
		Documents:   len(docs),
		Entries:     len(entries),
		Output:      s.URI(output),
		ContentType: opts.Format.ContentType(),
	}, nil
}

// String is used in log lines.
func (r ProcessResult) String() string {
	return fmt.Sprintf("%d documents, %d entries -> %s", r.Documents, r.Entries, r.Output)
}
