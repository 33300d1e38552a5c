package studygen

import "errors"

var (
	// ErrGeneration wraps failures of the generation backend (transport,
	// HTTP status, response decoding).
	ErrGeneration = errors.New("generation failed")

	// ErrEmptySummary is returned when the model payload yields no usable
	// summary text. A summary is mandatory; everything else is best-effort.
	ErrEmptySummary = errors.New("empty summary")
)
