package ingest

import (
	"context"
	"encoding/json"
	"time"
)

// Known column names in a deal sheet. Any other column is carried through
// on Deal.Extra untouched.
const (
	colDealID      = "deal_id"
	colDealName    = "deal_name"
	colBrokerName  = "broker_name"
	colStatus      = "status"
	colDealValue   = "deal_value"
	colCreatedTime = "created_time"
	colProcessDays = "process_days"
	colLatestDate  = "latest_date"
	colIsNewLead   = "is_new_lead"
)

// Defaults filled in when a required column is empty.
const (
	DefaultDealName   = "Unnamed Deal"
	DefaultBrokerName = "Unknown"
	DefaultStatus     = "Unknown"
)

var knownColumns = map[string]bool{
	colDealID:      true,
	colDealName:    true,
	colBrokerName:  true,
	colStatus:      true,
	colDealValue:   true,
	colCreatedTime: true,
	colProcessDays: true,
	colLatestDate:  true,
	colIsNewLead:   true,
}

// RawTable is the untyped result of a fetch: one header row plus zero or
// more data rows. Data rows may be shorter than the header row.
type RawTable struct {
	Headers []string
	Rows    [][]any
}

// Deal represents one normalized deal record. It is immutable after
// normalization; the next ingestion run replaces the whole record set.
type Deal struct {
	DealID      string
	DealName    string
	BrokerName  string
	Status      string
	DealValue   float64
	CreatedTime *string
	ProcessDays *int
	LatestDate  *string
	IsNewLead   *string

	// Extra carries the open, source-defined columns (pipeline stages,
	// settlement-year markers, loss tracking, channel flags). Every header
	// not in the known set appears here on every record; absent cells are
	// nil rather than omitted, so the record set keeps a uniform shape.
	Extra map[string]any
}

// MarshalJSON flattens known fields and open columns into a single record.
func (d Deal) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+9)
	for k, v := range d.Extra {
		out[k] = v
	}
	out[colDealID] = d.DealID
	out[colDealName] = d.DealName
	out[colBrokerName] = d.BrokerName
	out[colStatus] = d.Status
	out[colDealValue] = d.DealValue
	out[colCreatedTime] = d.CreatedTime
	out[colProcessDays] = d.ProcessDays
	out[colLatestDate] = d.LatestDate
	out[colIsNewLead] = d.IsNewLead
	return json.Marshal(out)
}

// IngestStats summarizes one ingestion run.
type IngestStats struct {
	RunID       string `json:"run_id"`
	RowsFetched int    `json:"rows_fetched"`
	DealsKept   int    `json:"deals_kept"`
	RowsDropped int    `json:"rows_dropped"`
	DurationMs  int64  `json:"duration_ms"`
}

// Result is the outcome of one full pipeline run.
type Result struct {
	SpreadsheetID string      `json:"spreadsheet_id,omitempty"`
	Range         string      `json:"range,omitempty"`
	Headers       []string    `json:"headers"`
	Deals         []Deal      `json:"deals"`
	Stats         IngestStats `json:"stats"`
	FetchedAt     time.Time   `json:"fetched_at"`
}

// TableSource retrieves a raw table from somewhere other than the values
// API, such as a local workbook or a published HTML page.
type TableSource interface {
	FetchTable(ctx context.Context) (*RawTable, error)
}
