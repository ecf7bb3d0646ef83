package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the Sheets-v4-shaped values API root.
	DefaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

	// DefaultRange is used when the caller does not name a sheet or range.
	DefaultRange = "Sheet1"
)

// SheetsClient talks to the external spreadsheet values API. The API key is
// passed through opaquely on each call and never stored.
type SheetsClient struct {
	Client  *http.Client
	BaseURL string
}

func NewSheetsClient() *SheetsClient {
	return &SheetsClient{
		Client:  &http.Client{Timeout: 30 * time.Second},
		BaseURL: DefaultBaseURL,
	}
}

// ValidateConnection issues a minimal metadata-only request to confirm the
// spreadsheet exists and is readable before a full fetch. One round trip,
// no retries; the caller decides whether to try again.
func (c *SheetsClient) ValidateConnection(ctx context.Context, spreadsheetID, apiKey string) error {
	if strings.TrimSpace(spreadsheetID) == "" {
		return ErrInvalidSpreadsheetID
	}
	if strings.TrimSpace(apiKey) == "" {
		return ErrMissingAPIKey
	}

	u := fmt.Sprintf("%s/%s?fields=spreadsheetId&key=%s",
		c.BaseURL, url.PathEscape(spreadsheetID), url.QueryEscape(apiKey))
	resp, err := c.get(ctx, u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return mapStatus(resp)
}

type valuesResponse struct {
	Range  string  `json:"range"`
	Values [][]any `json:"values"`
}

// FetchTable retrieves the raw values for one range of one spreadsheet.
// rangeSel may be a bare sheet name or an A1-style range ("Sheet1!A1:Z999");
// it is passed through uninterpreted.
func (c *SheetsClient) FetchTable(ctx context.Context, spreadsheetID, apiKey, rangeSel string) (*RawTable, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, ErrInvalidSpreadsheetID
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if rangeSel == "" {
		rangeSel = DefaultRange
	}

	u := fmt.Sprintf("%s/%s/values/%s?key=%s",
		c.BaseURL, url.PathEscape(spreadsheetID), url.PathEscape(rangeSel), url.QueryEscape(apiKey))
	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		return nil, err
	}

	var body valuesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding values response: %w", err)
	}

	switch len(body.Values) {
	case 0:
		return nil, ErrEmptySheet
	case 1:
		return nil, ErrHeadersOnly
	}

	headers := make([]string, 0, len(body.Values[0]))
	for _, h := range body.Values[0] {
		headers = append(headers, strings.TrimSpace(asString(h)))
	}

	return &RawTable{Headers: headers, Rows: body.Values[1:]}, nil
}

type metadataResponse struct {
	Sheets []struct {
		Properties struct {
			Title string `json:"title"`
		} `json:"properties"`
	} `json:"sheets"`
}

// ListSheetNames returns the sheet titles in the spreadsheet. This is an
// auxiliary convenience, not required for ingestion, so every failure is
// swallowed and converted to the single default sheet name.
func (c *SheetsClient) ListSheetNames(ctx context.Context, spreadsheetID, apiKey string) []string {
	fallback := []string{DefaultRange}

	u := fmt.Sprintf("%s/%s?fields=sheets.properties.title&key=%s",
		c.BaseURL, url.PathEscape(spreadsheetID), url.QueryEscape(apiKey))
	resp, err := c.get(ctx, u)
	if err != nil {
		log.Printf("[Sheets] Listing sheet names failed: %v", err)
		return fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Sheets] Listing sheet names returned %s", resp.Status)
		return fallback
	}

	var body metadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fallback
	}

	names := make([]string, 0, len(body.Sheets))
	for _, sheet := range body.Sheets {
		if sheet.Properties.Title != "" {
			names = append(names, sheet.Properties.Title)
		}
	}
	if len(names) == 0 {
		return fallback
	}
	return names
}

func (c *SheetsClient) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// mapStatus converts transport responses to the error taxonomy.
func mapStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusForbidden:
		return ErrAccessDenied
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return &TransportError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
}
