package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newStubSheetsServer serves both the metadata endpoint (validation) and the
// values endpoint for a single spreadsheet.
func newStubSheetsServer(t *testing.T, values [][]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if strings.Contains(r.URL.Path, "/values/") {
			json.NewEncoder(w).Encode(valuesResponse{Values: values})
			return
		}
		w.Write([]byte(`{"spreadsheetId":"abc123"}`))
	}))
}

func TestLoadDealsEndToEnd(t *testing.T) {
	ts := newStubSheetsServer(t, [][]any{
		{"deal_id", "deal_name", "broker_name", "deal_value", "status"},
		{"D1", "Acme", "Jo", "$2,000", "Open"},
		{"", "", "", "", ""},
	})
	defer ts.Close()

	p := NewPipeline(newTestClient(ts))
	result, err := p.LoadDeals(context.Background(), "https://docs.google.com/spreadsheets/d/abc123/edit", "key", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.SpreadsheetID != "abc123" {
		t.Errorf("expected spreadsheet id abc123, got %q", result.SpreadsheetID)
	}
	if result.Range != DefaultRange {
		t.Errorf("expected default range, got %q", result.Range)
	}
	if len(result.Deals) != 1 {
		t.Fatalf("expected exactly 1 deal after filtering, got %d", len(result.Deals))
	}

	d := result.Deals[0]
	if d.DealID != "D1" || d.DealName != "Acme" || d.BrokerName != "Jo" || d.DealValue != 2000 || d.Status != "Open" {
		t.Errorf("unexpected deal: %+v", d)
	}

	if result.Stats.RowsFetched != 2 || result.Stats.DealsKept != 1 || result.Stats.RowsDropped != 1 {
		t.Errorf("unexpected stats: %+v", result.Stats)
	}
	if result.Stats.RunID == "" {
		t.Error("expected a run id")
	}
}

func TestLoadDealsUnresolvableInput(t *testing.T) {
	p := NewPipeline(nil)
	_, err := p.LoadDeals(context.Background(), "https://example.com/nothing/here", "key", "")
	if !errors.Is(err, ErrInvalidSpreadsheetID) {
		t.Errorf("expected ErrInvalidSpreadsheetID, got %v", err)
	}
}

func TestLoadDealsFailsFastOnValidation(t *testing.T) {
	fetched := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/values/") {
			fetched = true
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	p := NewPipeline(newTestClient(ts))
	_, err := p.LoadDeals(context.Background(), "abc123", "key", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if fetched {
		t.Error("fetch should not run when validation fails")
	}
}

func TestLoadDealsHonorsCancellation(t *testing.T) {
	ts := newStubSheetsServer(t, [][]any{
		{"deal_id"},
		{"D1"},
	})
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(newTestClient(ts))
	if _, err := p.LoadDeals(ctx, "abc123", "key", ""); err == nil {
		t.Error("expected an error from a canceled context")
	}
}

type stubTableSource struct {
	table *RawTable
	err   error
}

func (s *stubTableSource) FetchTable(ctx context.Context) (*RawTable, error) {
	return s.table, s.err
}

func TestLoadDealsFromSource(t *testing.T) {
	src := &stubTableSource{table: &RawTable{
		Headers: []string{"deal_id", "deal_name", "deal_value"},
		Rows: [][]any{
			{"D1", "Acme", "100"},
			{"", "", ""},
		},
	}}

	p := NewPipeline(nil)
	result, err := p.LoadDealsFromSource(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Deals) != 1 || result.Deals[0].DealID != "D1" {
		t.Errorf("unexpected result: %+v", result.Deals)
	}

	src.err = ErrHeadersOnly
	src.table = nil
	if _, err := p.LoadDealsFromSource(context.Background(), src); !errors.Is(err, ErrHeadersOnly) {
		t.Errorf("expected source error to propagate, got %v", err)
	}
}
