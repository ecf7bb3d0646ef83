package ingest

import (
	"encoding/json"
	"testing"
)

func TestDealMarshalJSONFlattens(t *testing.T) {
	days := 14
	lead := "yes"
	d := Deal{
		DealID:      "D1",
		DealName:    "Acme",
		BrokerName:  "Jo",
		Status:      "Open",
		DealValue:   2000,
		ProcessDays: &days,
		IsNewLead:   &lead,
		Extra: map[string]any{
			"stage_contract_sent": "2026-01-15",
			"loss_reason":         nil,
		},
	}

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}

	if out["deal_id"] != "D1" || out["deal_value"] != float64(2000) {
		t.Errorf("known fields not flattened: %v", out)
	}
	if out["stage_contract_sent"] != "2026-01-15" {
		t.Errorf("open column missing: %v", out)
	}

	// Absent open cells serialize as explicit nulls, not omissions.
	if v, present := out["loss_reason"]; !present || v != nil {
		t.Errorf("expected explicit null for loss_reason, got present=%v value=%v", present, v)
	}
	if out["process_days"] != float64(14) {
		t.Errorf("expected process_days 14, got %v", out["process_days"])
	}
}

func TestLoadRegistryExpandsEnv(t *testing.T) {
	t.Setenv("DEALS_SPREADSHEET_ID", "abc123")
	t.Setenv("SETTLEMENTS_SPREADSHEET_ID", "def456")
	t.Setenv("SHEETS_API_KEY", "test-key")

	reg, err := LoadRegistry("config/sources.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reg.Sources) == 0 {
		t.Fatal("expected at least one source")
	}

	src := reg.Find("sales_pipeline")
	if src == nil {
		t.Fatal("sales_pipeline source missing")
	}
	if src.Spreadsheet != "abc123" {
		t.Errorf("expected env-expanded spreadsheet id, got %q", src.Spreadsheet)
	}
	if src.APIKey != "test-key" {
		t.Errorf("expected env-expanded api key, got %q", src.APIKey)
	}

	if reg.Find("does_not_exist") != nil {
		t.Error("expected nil for unknown source id")
	}
}
