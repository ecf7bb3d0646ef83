package ingest

// FilterDeals discards degenerate records after default-fill. A candidate
// survives with either a real name or a positive value; a row that has
// neither is a sheet artifact (blank row, formatting row), not a deal.
func FilterDeals(candidates []Deal) []Deal {
	kept := make([]Deal, 0, len(candidates))
	for _, d := range candidates {
		if d.DealID == "" {
			continue
		}
		if d.DealName != DefaultDealName || d.DealValue > 0 {
			kept = append(kept, d)
		}
	}
	return kept
}
