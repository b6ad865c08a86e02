package pipeline

import (
	"strings"

	"authwatch/internal"
)

type regroupAccumulator struct {
	first       internal.ExpandedRow
	locationIDs []string
}

// Regroup collapses expanded per-location rows back to one row per
// connection ID, in first-seen order. Shared fields come from the first row
// seen for each ID; later rows are assumed to agree and are not checked.
// Non-empty location identifiers are collected in encounter order and
// joined with ", "; a connection whose rows carried no locations ends up
// with an empty string.
func Regroup(rows []internal.ExpandedRow) []internal.ReportRow {
	grouped := make(map[string]*regroupAccumulator, len(rows))
	order := make([]string, 0, len(rows))

	for _, row := range rows {
		acc, ok := grouped[row.ID]
		if !ok {
			acc = &regroupAccumulator{first: row}
			grouped[row.ID] = acc
			order = append(order, row.ID)
		}
		if row.LocationID != "" {
			acc.locationIDs = append(acc.locationIDs, row.LocationID)
		}
	}

	out := make([]internal.ReportRow, 0, len(order))
	for _, id := range order {
		acc := grouped[id]
		out = append(out, internal.ReportRow{
			ID:                acc.first.ID,
			WebsiteID:         acc.first.WebsiteID,
			Username:          acc.first.Username,
			Status:            acc.first.Status,
			LocationID:        strings.Join(acc.locationIDs, ", "),
			LastUpdated:       acc.first.LastUpdated,
			PracticeGroupID:   acc.first.PracticeGroupID,
			PracticeGroupName: acc.first.PracticeGroupName,
		})
	}
	return out
}
