package ingest

import (
	"fmt"
	"strings"
	"time"
)

// NormalizeTable maps each data row, keyed by the header row, into a
// candidate Deal. It never fails: per-row coercion problems degrade to
// field-level defaults, and FilterDeals is the backstop for rows that end
// up carrying nothing but defaults. Output preserves input row order.
func NormalizeTable(table RawTable) []Deal {
	runStamp := time.Now().UnixMilli()
	deals := make([]Deal, 0, len(table.Rows))

	for rowIndex, row := range table.Rows {
		fields := make(map[string]any, len(table.Headers))
		for col, header := range table.Headers {
			if header == "" {
				continue
			}
			if col < len(row) {
				fields[header] = row[col]
			} else {
				fields[header] = nil
			}
		}

		deal := Deal{
			DealID:      strings.TrimSpace(asString(fields[colDealID])),
			DealName:    strings.TrimSpace(asString(fields[colDealName])),
			BrokerName:  strings.TrimSpace(asString(fields[colBrokerName])),
			Status:      strings.TrimSpace(asString(fields[colStatus])),
			DealValue:   parseDealValue(fields[colDealValue]),
			CreatedTime: asStringPtr(fields[colCreatedTime]),
			ProcessDays: parseProcessDays(fields[colProcessDays]),
			LatestDate:  asStringPtr(fields[colLatestDate]),
			IsNewLead:   asStringPtr(fields[colIsNewLead]),
			Extra:       make(map[string]any),
		}
		for header, value := range fields {
			if !knownColumns[header] {
				deal.Extra[header] = value
			}
		}

		// Rows normalized within the same millisecond still get distinct
		// ids because the row index differs.
		if deal.DealID == "" {
			deal.DealID = fmt.Sprintf("deal-%d-%d", runStamp, rowIndex)
		}
		if deal.DealName == "" {
			deal.DealName = DefaultDealName
		}
		if deal.BrokerName == "" {
			deal.BrokerName = DefaultBrokerName
		}
		if deal.Status == "" {
			deal.Status = DefaultStatus
		}

		deals = append(deals, deal)
	}

	return deals
}
