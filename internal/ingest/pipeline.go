package ingest

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Pipeline runs the full ingestion flow: locate, validate, fetch, normalize,
// filter. It holds no state between runs; every run produces a fresh Result
// that replaces the previous one wholesale.
type Pipeline struct {
	Sheets *SheetsClient
}

func NewPipeline(client *SheetsClient) *Pipeline {
	if client == nil {
		client = NewSheetsClient()
	}
	return &Pipeline{Sheets: client}
}

// LoadDeals ingests one spreadsheet. input may be a bare spreadsheet ID or a
// full URL; rangeSel defaults to Sheet1. Errors are returned unwrapped so
// the caller can surface the reason text directly.
func (p *Pipeline) LoadDeals(ctx context.Context, input, apiKey, rangeSel string) (*Result, error) {
	spreadsheetID, ok := ExtractSpreadsheetID(input)
	if !ok {
		return nil, ErrInvalidSpreadsheetID
	}
	if rangeSel == "" {
		rangeSel = DefaultRange
	}

	start := time.Now()
	log.Printf("[Pipeline] Starting ingestion for spreadsheet %s (range %q)", spreadsheetID, rangeSel)

	if err := p.Sheets.ValidateConnection(ctx, spreadsheetID, apiKey); err != nil {
		return nil, err
	}

	table, err := p.Sheets.FetchTable(ctx, spreadsheetID, apiKey, rangeSel)
	if err != nil {
		return nil, err
	}

	result := buildResult(*table, start)
	result.SpreadsheetID = spreadsheetID
	result.Range = rangeSel
	log.Printf("[Pipeline] Ingestion complete: %d/%d rows kept from %s",
		result.Stats.DealsKept, result.Stats.RowsFetched, spreadsheetID)
	return result, nil
}

// LoadDealsFromSource runs normalize and filter over a table from an
// alternate source (local workbook, published HTML page).
func (p *Pipeline) LoadDealsFromSource(ctx context.Context, src TableSource) (*Result, error) {
	start := time.Now()

	table, err := src.FetchTable(ctx)
	if err != nil {
		return nil, err
	}

	result := buildResult(*table, start)
	log.Printf("[Pipeline] Ingestion complete: %d/%d rows kept", result.Stats.DealsKept, result.Stats.RowsFetched)
	return result, nil
}

func buildResult(table RawTable, start time.Time) *Result {
	candidates := NormalizeTable(table)
	deals := FilterDeals(candidates)

	return &Result{
		Headers:   table.Headers,
		Deals:     deals,
		FetchedAt: time.Now(),
		Stats: IngestStats{
			RunID:       uuid.NewString(),
			RowsFetched: len(table.Rows),
			DealsKept:   len(deals),
			RowsDropped: len(table.Rows) - len(deals),
			DurationMs:  time.Since(start).Milliseconds(),
		},
	}
}
