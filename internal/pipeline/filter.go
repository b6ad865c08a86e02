package pipeline

import (
	"strings"

	"authwatch/internal"
)

// FilterByPracticeGroups keeps rows whose practice group name is in the
// allow-list. Both sides are trimmed and lowercased before comparison so
// that sheet-maintained names survive stray whitespace and casing.
func FilterByPracticeGroups(rows []internal.ExpandedRow, allowedGroups []string) []internal.ExpandedRow {
	allowed := make(map[string]struct{}, len(allowedGroups))
	for _, g := range allowedGroups {
		allowed[strings.ToLower(strings.TrimSpace(g))] = struct{}{}
	}

	out := make([]internal.ExpandedRow, 0, len(rows))
	for _, row := range rows {
		name := strings.ToLower(strings.TrimSpace(row.PracticeGroupName))
		if _, ok := allowed[name]; ok {
			out = append(out, row)
		}
	}
	return out
}

// FilterByStatus keeps rows whose Status exactly equals status. Status is a
// mandatory field: a row without one means the scraped table no longer has
// the expected layout, so the violation surfaces instead of defaulting.
func FilterByStatus(rows []internal.ExpandedRow, status string) ([]internal.ExpandedRow, error) {
	out := make([]internal.ExpandedRow, 0, len(rows))
	for _, row := range rows {
		if row.Status == "" {
			return nil, &internal.MalformedRowError{ConnectionID: row.ID, Field: "Status"}
		}
		if row.Status == status {
			out = append(out, row)
		}
	}
	return out, nil
}

// ExcludeSites drops rows whose WebsiteID exactly matches an excluded site.
func ExcludeSites(rows []internal.ExpandedRow, excludedSites []string) []internal.ExpandedRow {
	excluded := make(map[string]struct{}, len(excludedSites))
	for _, site := range excludedSites {
		excluded[site] = struct{}{}
	}

	out := make([]internal.ExpandedRow, 0, len(rows))
	for _, row := range rows {
		if _, ok := excluded[row.WebsiteID]; ok {
			continue
		}
		out = append(out, row)
	}
	return out
}
