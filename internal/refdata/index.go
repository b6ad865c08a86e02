package refdata

import "authwatch/internal"

// Index maps a location identifier to its practice-group metadata. Built
// once per run and read-only afterwards; callers pass it by argument
// instead of sharing process-wide state.
type Index struct {
	byLocationID map[string]internal.PracticeGroup
}

// BuildIndex folds reference rows into an Index. Rows are taken in input
// order and the first row wins for a duplicated locationId; later
// duplicates are silently ignored. No validation is applied to the key.
func BuildIndex(rows []internal.ReferenceRow) *Index {
	idx := &Index{byLocationID: make(map[string]internal.PracticeGroup, len(rows))}
	for _, row := range rows {
		if _, ok := idx.byLocationID[row.LocationID]; ok {
			continue
		}
		idx.byLocationID[row.LocationID] = internal.PracticeGroup{
			ID:   row.PracticeGroupID,
			Name: row.PracticeGroupName,
		}
	}
	return idx
}

func (i *Index) Lookup(locationID string) (internal.PracticeGroup, bool) {
	group, ok := i.byLocationID[locationID]
	return group, ok
}

func (i *Index) Len() int {
	return len(i.byLocationID)
}
