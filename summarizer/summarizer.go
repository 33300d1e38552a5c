// Package summarizer is the pipeline facade: stage an uploaded document on
// disk, extract its text, generate study material, and answer with a
// {success, data|error} envelope. No failure crosses this boundary as a
// panic or a raw internal error.
package summarizer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/studypipe/docpipe"
	"github.com/hazyhaar/studypipe/studygen"
)

// Result is the envelope returned for every summarization request.
type Result struct {
	Success bool                   `json:"success"`
	Data    *studygen.StudyMaterial `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Config configures the facade.
type Config struct {
	// TempDir is where uploads are staged (default: os.TempDir()).
	TempDir string `json:"temp_dir" yaml:"temp_dir"`

	// Logger for request-level messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// Service orchestrates extraction and generation for one upload at a time.
// Each call stages its own temporary file; no state is shared across calls.
type Service struct {
	pipe   *docpipe.Pipeline
	gen    *studygen.Service
	logger *slog.Logger
	tmpDir string
}

// New creates the facade around an extraction pipeline and a generation
// service.
func New(pipe *docpipe.Pipeline, gen *studygen.Service, cfg Config) *Service {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		pipe:   pipe,
		gen:    gen,
		logger: cfg.Logger,
		tmpDir: cfg.TempDir,
	}
}

// Summarize stages the upload, extracts its text and builds study material.
// The staged file is removed on every exit path, and any internal panic is
// converted into a generic failure envelope.
func (s *Service) Summarize(ctx context.Context, filename string, r io.Reader) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("summarization panicked", "panic", rec, "filename", filename)
			res = failure("Summarization failed on the server. Check backend logs for details.")
		}
	}()

	dir, err := os.MkdirTemp(s.tmpDir, "upload-")
	if err != nil {
		s.logger.Error("staging dir creation failed", "error", err)
		return failure("Summarization failed on the server. Check backend logs for details.")
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, stagedName(filename))
	if err := writeUpload(path, r); err != nil {
		s.logger.Error("staging upload failed", "error", err, "filename", filename)
		return failure("Summarization failed on the server. Check backend logs for details.")
	}

	s.logger.Info("summarization request", "filename", filename, "staged", path)

	doc, err := s.pipe.Extract(ctx, path)
	if err != nil {
		return failure(extractionMessage(err))
	}

	text := strings.TrimSpace(doc.RawText)
	if text == "" {
		return failure("The document appears to be empty or unreadable.")
	}
	if doc.Quality != nil && doc.Quality.NeedsOCR() {
		s.logger.Warn("low extraction quality, document may need OCR",
			"filename", filename,
			"chars_per_page", doc.Quality.CharsPerPage,
			"printable_ratio", doc.Quality.PrintableRatio)
	}

	s.logger.Debug("extracted text", "filename", filename, "format", doc.Format, "chars", len(text))

	material, err := s.gen.BuildMaterial(ctx, text)
	if err != nil {
		switch {
		case errors.Is(err, studygen.ErrEmptySummary):
			return failure("Summary generation returned empty text.")
		case errors.Is(err, studygen.ErrGeneration):
			s.logger.Error("generation backend failed", "error", err, "filename", filename)
			return failure("Summary generation failed. Please try again later.")
		default:
			s.logger.Error("generation failed", "error", err, "filename", filename)
			return failure("Summarization failed on the server. Check backend logs for details.")
		}
	}

	return Result{Success: true, Data: material}
}

func failure(msg string) Result {
	return Result{Success: false, Error: msg}
}

// extractionMessage maps extraction errors to user-facing text. Typed
// format errors carry actionable guidance and pass through verbatim;
// decoder faults collapse into one generic message.
func extractionMessage(err error) string {
	switch {
	case errors.Is(err, docpipe.ErrLegacyFormat),
		errors.Is(err, docpipe.ErrUnsupportedFormat),
		errors.Is(err, docpipe.ErrCapabilityUnavailable):
		return err.Error()
	case errors.Is(err, docpipe.ErrExtraction):
		return "The document could not be read. It may be corrupt or in an unexpected format."
	default:
		return "The document could not be processed."
	}
}

// stagedName reduces an untrusted upload filename to a safe base name,
// preserving the extension the dispatcher keys on.
func stagedName(filename string) string {
	base := filepath.Base(filepath.Clean(filename))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == ".." {
		return "upload"
	}
	return base
}

func writeUpload(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return err
	}
	return f.Sync()
}
