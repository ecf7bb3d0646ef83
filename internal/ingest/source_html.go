package ingest

import (
	"context"
	"fmt"
	stdhtml "html"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// cellPolicy strips all markup from cell content before it enters the
// pipeline; published sheets occasionally carry links or formatting tags.
var cellPolicy = bluemonday.StrictPolicy()

// HTMLTableSource reads a raw table from a "publish to web" HTML page.
type HTMLTableSource struct {
	Client *http.Client
	URL    string
}

func NewHTMLTableSource(url string) *HTMLTableSource {
	return &HTMLTableSource{
		Client: &http.Client{Timeout: 30 * time.Second},
		URL:    url,
	}
}

func (s *HTMLTableSource) FetchTable(ctx context.Context) (*RawTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		return nil, err
	}

	return ParseHTMLTable(resp.Body)
}

// ParseHTMLTable extracts the first <table> in the document. The first row
// (th cells or the leading tr) becomes the header row.
func ParseHTMLTable(r io.Reader) (*RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrEmptySheet
	}

	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			markup, err := cell.Html()
			if err != nil {
				cells = append(cells, cleanText(cell.Text()))
				return
			}
			cells = append(cells, cleanText(stdhtml.UnescapeString(cellPolicy.Sanitize(markup))))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})

	return tableFromStringRows(rows)
}
