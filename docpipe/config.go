package docpipe

import "log/slog"

// Config configures the document pipeline.
type Config struct {
	// MaxFileSize is the maximum file size to process (default: 100 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// Capabilities holds the optional-format decoders. Nil selects
	// DefaultCapabilities(). A nil slot inside the set means the
	// capability is absent and extraction of that format fails with
	// ErrCapabilityUnavailable instead of crashing.
	Capabilities *CapabilitySet `json:"-" yaml:"-"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// RichTextDecoder converts RTF bytes to plain-text sections.
type RichTextDecoder interface {
	DecodeRTF(data []byte) ([]Section, error)
}

// HTMLDecoder converts an HTML document to a title and text sections.
type HTMLDecoder interface {
	DecodeHTML(data []byte) (title string, sections []Section, err error)
}

// SpreadsheetDecoder converts an .xlsx workbook file to row sections.
type SpreadsheetDecoder interface {
	DecodeWorkbook(path string) ([]Section, error)
}

// EBookDecoder converts an .epub file to per-section text.
type EBookDecoder interface {
	DecodeEPUB(path string) ([]Section, error)
}

// CapabilitySet groups the optional-format decoders the dispatcher depends
// on. Formats with a nil decoder are reported as unavailable at extraction
// time rather than at construction, mirroring runtime capability detection.
type CapabilitySet struct {
	RichText    RichTextDecoder
	HTML        HTMLDecoder
	Spreadsheet SpreadsheetDecoder
	EBook       EBookDecoder
}

// DefaultCapabilities returns the built-in decoder set: all four optional
// capabilities present.
func DefaultCapabilities() *CapabilitySet {
	htmlDec := newHTMLDecoder()
	return &CapabilitySet{
		RichText:    &rtfDecoder{},
		HTML:        htmlDec,
		Spreadsheet: &xlsxDecoder{},
		EBook:       newEPUBDecoder(htmlDec),
	}
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.Capabilities == nil {
		c.Capabilities = DefaultCapabilities()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
