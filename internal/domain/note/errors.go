package note

import "errors"

var (
	ErrNoteNotFound         = errors.New("note not found")
	ErrNoteFinalized        = errors.New("note is finalized; use addenda for corrections")
	ErrEmptyTranscript      = errors.New("transcript is empty")
	ErrEmptySOAP            = errors.New("note has no SOAP content")
	ErrInvalidSource        = errors.New("invalid transcript source")
	ErrAddendumContentEmpty = errors.New("addendum content is required")
)
