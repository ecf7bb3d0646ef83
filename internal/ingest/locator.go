package ingest

import (
	"regexp"
	"strings"
)

// URL shapes we accept, tried in order. The first match wins.
var spreadsheetIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`spreadsheets/d/([a-zA-Z0-9\-_]+)`),
	regexp.MustCompile(`/d/([a-zA-Z0-9\-_]+)`),
	regexp.MustCompile(`[?&]id=([a-zA-Z0-9\-_]+)`),
}

// ExtractSpreadsheetID resolves user-supplied input, either a bare
// spreadsheet ID or a full URL in one of the known shapes, into the
// canonical spreadsheet ID. Pure function, no I/O.
func ExtractSpreadsheetID(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}

	// No path or query separators means the input already is the ID.
	if !strings.ContainsAny(input, "/?&=") {
		return input, true
	}

	for _, re := range spreadsheetIDPatterns {
		if m := re.FindStringSubmatch(input); m != nil {
			return m[1], true
		}
	}

	return "", false
}
