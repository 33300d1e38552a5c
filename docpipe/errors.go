package docpipe

import "errors"

// Failure taxonomy. Callers branch with errors.Is; the messages are safe to
// surface to an end user as-is.
var (
	// ErrUnsupportedFormat is returned when no extractor exists for the
	// file extension. Detect wraps it with the supported set enumerated.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrLegacyFormat is returned for pre-XML Office formats (.doc/.ppt).
	// They are rejected outright: silent mis-decoding would be worse.
	ErrLegacyFormat = errors.New("legacy Office format (.doc/.ppt) is not supported: please convert to DOCX/PPTX and upload again")

	// ErrCapabilityUnavailable is returned when the decoder for an
	// optional-capability format (rtf, html, xlsx, epub) is not installed
	// in the pipeline's CapabilitySet.
	ErrCapabilityUnavailable = errors.New("decoding capability unavailable")

	// ErrExtraction wraps internal decoder faults (corrupt archives,
	// malformed XML, broken cross-reference tables) so callers see one
	// uniform failure regardless of which decoder was used.
	ErrExtraction = errors.New("document extraction failed")
)
