package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Macca12138/dealdesk/internal/ingest"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
)

func main() {
	source := flag.String("source", "", "Spreadsheet ID or URL to ingest")
	rangeSel := flag.String("range", "", "Sheet name or A1 range (default Sheet1)")
	apiKey := flag.String("key", "", "API key (default: SHEETS_API_KEY env)")
	file := flag.String("file", "", "Local .xlsx or .csv file to ingest instead")
	htmlURL := flag.String("html", "", "Published-to-web HTML table URL to ingest instead")
	asJSON := flag.Bool("json", false, "Print the result as JSON instead of a table")
	flag.Parse()

	_ = godotenv.Load()

	key := *apiKey
	if key == "" {
		key = os.Getenv("SHEETS_API_KEY")
	}

	ctx := context.Background()
	pipeline := ingest.NewPipeline(nil)

	var result *ingest.Result
	var err error
	switch {
	case *file != "":
		result, err = pipeline.LoadDealsFromSource(ctx, ingest.NewFileSource(*file, *rangeSel))
	case *htmlURL != "":
		result, err = pipeline.LoadDealsFromSource(ctx, ingest.NewHTMLTableSource(*htmlURL))
	case *source != "":
		result, err = pipeline.LoadDeals(ctx, *source, key, *rangeSel)
	default:
		log.Fatal("Please provide -source, -file, or -html")
	}
	if err != nil {
		log.Fatalf("Ingestion failed: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatal(err)
		}
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Deal ID", "Name", "Broker", "Value", "Status", "Days"})
	for _, d := range result.Deals {
		days := ""
		if d.ProcessDays != nil {
			days = fmt.Sprintf("%d", *d.ProcessDays)
		}
		t.AppendRow(table.Row{d.DealID, d.DealName, d.BrokerName, fmt.Sprintf("%.2f", d.DealValue), d.Status, days})
	}
	t.Render()

	fmt.Printf("Rows fetched: %d, deals kept: %d, dropped: %d (%dms, run %s)\n",
		result.Stats.RowsFetched, result.Stats.DealsKept, result.Stats.RowsDropped,
		result.Stats.DurationMs, result.Stats.RunID)
}
