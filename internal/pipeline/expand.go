package pipeline

import (
	"authwatch/internal"
	"authwatch/internal/refdata"
)

// Expand turns one connection record (with parsed Locations) into one row
// per location, joining each location against the reference index. A
// connection with no locations still yields exactly one row, with empty
// location and practice-group fields. An unmatched location is not an
// error: its practice-group fields stay empty and the group filter deals
// with it downstream.
func Expand(rec internal.ConnectionRecord, idx *refdata.Index) []internal.ExpandedRow {
	if len(rec.Locations) == 0 {
		return []internal.ExpandedRow{combine(rec, "", nil)}
	}

	out := make([]internal.ExpandedRow, 0, len(rec.Locations))
	for _, locID := range rec.Locations {
		if group, ok := idx.Lookup(locID); ok {
			out = append(out, combine(rec, locID, &group))
			continue
		}
		out = append(out, combine(rec, locID, nil))
	}
	return out
}

func combine(rec internal.ConnectionRecord, locID string, group *internal.PracticeGroup) internal.ExpandedRow {
	row := internal.ExpandedRow{
		ID:          rec.ID,
		WebsiteID:   rec.WebsiteID,
		Username:    rec.Username,
		Status:      rec.Status,
		LocationID:  locID,
		LastUpdated: rec.LastUpdated,
	}
	if group != nil {
		row.PracticeGroupID = group.ID
		row.PracticeGroupName = group.Name
	}
	return row
}
