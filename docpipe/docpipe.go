// Package docpipe extracts plain text from uploaded document files.
//
// Supported formats:
//   - .pdf            — page-ordered text extraction (pdfcpu)
//   - .docx           — Microsoft Word (archive/zip → word/document.xml)
//   - .pptx           — PowerPoint (per-slide, per-shape text)
//   - .txt .md        — plain text / Markdown (raw decode, tolerant)
//   - .rtf            — rich text (optional capability)
//   - .html .htm      — tag-stripped text (optional capability)
//   - .csv            — row-wise, cells joined by " | "
//   - .xlsx           — per-sheet rows with sheet headers (optional capability)
//   - .epub           — per-section text, blank-line joined (optional capability)
//
// Legacy binary Office formats (.doc/.ppt) are rejected with guidance
// instead of attempted. Unknown extensions fail with ErrUnsupportedFormat.
//
// Usage:
//
//	pipe := docpipe.New(docpipe.Config{})
//	doc, err := pipe.Extract(ctx, "/path/to/file.docx")
//	fmt.Println(doc.Title, len(doc.Sections), "sections")
package docpipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Pipeline is the document extraction engine.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// Detect returns the document format based on file extension.
// Legacy Office formats yield ErrLegacyFormat; anything else outside the
// dispatch table yields ErrUnsupportedFormat with the supported set listed.
func (p *Pipeline) Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDocx, nil
	case ".pptx":
		return FormatPptx, nil
	case ".txt":
		return FormatTXT, nil
	case ".md", ".markdown":
		return FormatMD, nil
	case ".rtf":
		return FormatRTF, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".epub":
		return FormatEPUB, nil
	case ".doc", ".ppt":
		return "", ErrLegacyFormat
	default:
		return "", fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedFormat, ext, strings.Join(SupportedFormats(), ", "))
	}
}

// Extract parses a document and returns its text as ordered sections.
func (p *Pipeline) Extract(ctx context.Context, path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > p.cfg.MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), p.cfg.MaxFileSize)
	}

	format, err := p.Detect(path)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("extracting document", "path", path, "format", format)

	var sections []Section
	var title string
	var pdfQuality *ExtractionQuality
	caps := p.cfg.Capabilities

	switch format {
	case FormatPDF:
		title, sections, pdfQuality, err = extractPDF(path)
	case FormatDocx:
		title, sections, err = extractDocx(path)
	case FormatPptx:
		title, sections, err = extractPptx(path)
	case FormatTXT, FormatMD:
		title, sections, err = extractPlain(path)
	case FormatRTF:
		if caps.RichText == nil {
			return nil, fmt.Errorf("rtf: %w", ErrCapabilityUnavailable)
		}
		sections, err = decodeFile(path, caps.RichText.DecodeRTF)
	case FormatHTML:
		if caps.HTML == nil {
			return nil, fmt.Errorf("html: %w", ErrCapabilityUnavailable)
		}
		title, sections, err = decodeHTMLFile(path, caps.HTML)
	case FormatCSV:
		sections, err = extractCSV(path)
	case FormatXLSX:
		if caps.Spreadsheet == nil {
			return nil, fmt.Errorf("xlsx: %w", ErrCapabilityUnavailable)
		}
		sections, err = caps.Spreadsheet.DecodeWorkbook(path)
	case FormatEPUB:
		if caps.EBook == nil {
			return nil, fmt.Errorf("epub: %w", ErrCapabilityUnavailable)
		}
		sections, err = caps.EBook.DecodeEPUB(path)
	default:
		return nil, fmt.Errorf("no extractor for format: %s", format)
	}

	if err != nil {
		if errors.Is(err, ErrCapabilityUnavailable) {
			return nil, err
		}
		// One uniform taxonomy entry regardless of which decoder faulted.
		return nil, fmt.Errorf("%w: %s (%s): %v", ErrExtraction, filepath.Base(path), format, err)
	}

	if title == "" {
		title = firstSectionLine(sections)
	}

	return &Document{
		Path:     path,
		Format:   format,
		Title:    title,
		Sections: sections,
		RawText:  joinSections(sections, sectionSeparator(format)),
		Quality:  pdfQuality,
	}, nil
}

// sectionSeparator returns the joiner between sections for a format.
// E-book sections read as independent documents, so they get a blank line;
// everything else is one logical line per visual unit.
func sectionSeparator(format Format) string {
	if format == FormatEPUB {
		return "\n\n"
	}
	return "\n"
}

func joinSections(sections []Section, sep string) string {
	var sb strings.Builder
	for i, s := range sections {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(s.Text)
	}
	return sb.String()
}

func firstSectionLine(sections []Section) string {
	for _, s := range sections {
		if line := firstLine(s.Text); line != "" {
			return line
		}
	}
	return ""
}

// decodeFile reads path and applies a byte-level decoder to it.
func decodeFile(path string, decode func([]byte) ([]Section, error)) ([]Section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func decodeHTMLFile(path string, dec HTMLDecoder) (string, []Section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return dec.DecodeHTML(data)
}

// SupportedFormats returns all supported format names.
func SupportedFormats() []string {
	return []string{"pdf", "docx", "pptx", "txt", "md", "rtf", "html", "csv", "xlsx", "epub"}
}
