package ingest

import (
	"errors"
	"fmt"
)

// These messages are surfaced to the user verbatim, so the access/not-found
// sentinels read as human-facing reasons rather than Go-style errors.
var (
	ErrInvalidSpreadsheetID = errors.New("could not extract a spreadsheet ID from the input")
	ErrMissingAPIKey        = errors.New("missing API key")
	ErrAccessDenied         = errors.New("Access denied — check sharing settings and credential validity")
	ErrNotFound             = errors.New("Spreadsheet not found")
	ErrEmptySheet           = errors.New("the sheet returned no rows")
	ErrHeadersOnly          = errors.New("the sheet contains only a header row")
)

// TransportError covers any non-success transport outcome that is not
// mapped to a dedicated sentinel above.
type TransportError struct {
	StatusCode int
	Status     string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Connection failed: %s", e.Status)
}
