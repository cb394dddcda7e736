// Package api serves the extraction pipeline over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kwgn/pdfledger/extractor"
	"github.com/kwgn/pdfledger/extractor/common"
	"github.com/kwgn/pdfledger/extractor/pdflayout"
	"github.com/kwgn/pdfledger/integrations/gcs"
	"github.com/kwgn/pdfledger/ledger"
	"github.com/kwgn/pdfledger/logging"
	"github.com/rs/zerolog"
)

// maxUploadMemory is the multipart budget held in memory; larger uploads spill to
// temp files.
var maxUploadMemory int64 = 32 << 20

// Processor runs the object-store flow. *gcs.Store implements it.
type Processor interface {
	Process(ctx context.Context, engine *extractor.Engine, opts gcs.ProcessOptions) (*gcs.ProcessResult, error)
}

// Config holds the API server configuration
type Config struct {
	Port          string
	Engine        *extractor.Engine
	Ledger        ledger.Options
	DefaultFormat ledger.Format
	// Store is optional; without it /process answers 503.
	Store  Processor
	Logger zerolog.Logger
}

// DefaultConfig returns the default API configuration
func DefaultConfig() Config {
	return Config{
		Port: ":8080",
		Engine: &extractor.Engine{
			Routes:  extractor.DefaultRoutes(),
			Decoder: &pdflayout.Reader{Logger: zerolog.Nop()},
			Logger:  zerolog.Nop(),
		},
		Ledger:        ledger.DefaultOptions(),
		DefaultFormat: ledger.FormatJSON,
		Logger:        zerolog.Nop(),
	}
}

type Server struct {
	config Config
	mux    *http.ServeMux
}

func New(cfg Config) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/extract", s.handleExtract)
	s.mux.HandleFunc("/process", s.handleProcess)
	s.mux.HandleFunc("/health", s.handleHealth)
}

// Handler returns the http.Handler for the server
// This allows the server to be used with custom http.Server configurations
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server (blocking)
func (s *Server) Start() error {
	s.config.Logger.Info().Str("port", s.config.Port).Msg("starting server")
	return http.ListenAndServe(s.config.Port, s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ExtractOptions holds the options for extraction
type ExtractOptions struct {
	Card     string
	Format   string
	TextOnly bool
}

func (s *Server) parseExtractOptions(r *http.Request) ExtractOptions {
	return ExtractOptions{
		Card:     coalesce(r.FormValue("card"), r.URL.Query().Get("card")),
		Format:   coalesce(r.FormValue("format"), r.URL.Query().Get("format"), string(s.config.DefaultFormat)),
		TextOnly: r.FormValue("text_only") == "true" || r.URL.Query().Get("text_only") == "true",
	}
}

// handleExtract consolidates every uploaded "file" part into one ledger.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	logger := s.config.Logger.With().Str("remote", r.RemoteAddr).Logger()
	logger.Info().Msg("received extract request")

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logger.Warn().Err(err).Msg("error parsing multipart form")
		http.Error(w, "Could not parse multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		http.Error(w, "Could not get uploaded file: no file parts", http.StatusBadRequest)
		return
	}

	opts := s.parseExtractOptions(r)
	format, err := ledger.ParseFormat(opts.Format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if opts.TextOnly {
		s.handleTextOnlyExtract(w, r, opts.Card)
		return
	}

	transactions := []common.Transaction{}
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			http.Error(w, "Could not read file: "+err.Error(), http.StatusInternalServerError)
			return
		}
		records, err := s.config.Engine.ProcessReader(file, header.Filename, opts.Card)
		file.Close()
		if err != nil {
			logger.Warn().Err(err).Str("file", header.Filename).Msg("extraction failed")
			http.Error(w, "Could not extract "+header.Filename+": "+err.Error(), http.StatusBadRequest)
			return
		}
		transactions = append(transactions, records...)
	}

	entries := ledger.Consolidate(transactions, s.config.Ledger)

	var buf bytes.Buffer
	if err := ledger.Write(&buf, entries, format); err != nil {
		http.Error(w, "Could not write ledger: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if format != ledger.FormatJSON {
		w.Header().Set("Content-Disposition", `attachment; filename="ledger`+format.Extension()+`"`)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleTextOnlyExtract returns the decoded text lines of each upload, which is
// what the savings parser sees.
func (s *Server) handleTextOnlyExtract(w http.ResponseWriter, r *http.Request, card string) {
	type pageText struct {
		Filename string     `json:"filename"`
		Pages    [][]string `json:"pages"`
	}

	out := []pageText{}
	for _, header := range r.MultipartForm.File["file"] {
		file, err := header.Open()
		if err != nil {
			http.Error(w, "Could not read file: "+err.Error(), http.StatusInternalServerError)
			return
		}
		doc, err := s.config.Engine.Decode(file, header.Filename, card)
		file.Close()
		if err != nil {
			http.Error(w, "Could not extract text from file: "+err.Error(), http.StatusBadRequest)
			return
		}
		text := pageText{Filename: header.Filename, Pages: [][]string{}}
		for _, page := range doc.Pages {
			text.Pages = append(text.Pages, page.Lines())
		}
		out = append(out, text)
	}

	writeJSON(w, http.StatusOK, out)
}

type processRequest struct {
	Prefix string `json:"prefix"`
	Output string `json:"output"`
	Format string `json:"format"`
}

// handleProcess runs the object-store flow for a prefix.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.config.Store == nil {
		http.Error(w, "object storage is not configured", http.StatusServiceUnavailable)
		return
	}

	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Could not decode request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Prefix) == "" {
		http.Error(w, "prefix is required", http.StatusBadRequest)
		return
	}
	format, err := ledger.ParseFormat(coalesce(req.Format, string(s.config.DefaultFormat)))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := logging.WithContext(r.Context(), s.config.Logger)
	result, err := s.config.Store.Process(ctx, s.config.Engine, gcs.ProcessOptions{
		Prefix: req.Prefix,
		Output: req.Output,
		Format: format,
		Ledger: s.config.Ledger,
	})
	if err != nil {
		s.config.Logger.Error().Err(err).Str("prefix", req.Prefix).Msg("process failed")
		http.Error(w, "Processing failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// coalesce returns the first non-empty string
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
