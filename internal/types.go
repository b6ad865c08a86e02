package internal

import "fmt"

// ConnectionRecord is one row scraped from the dashboard connections table.
// Locations holds the parsed form of LocationsRaw and is filled in by the
// pipeline before expansion; all other fields are immutable after the scrape.
type ConnectionRecord struct {
	ID           string
	WebsiteID    string
	Username     string
	Status       string
	LocationsRaw string
	LastUpdated  string
	Locations    []string
}

// ReferenceRow is one row of the reference CSV keyed by location.
type ReferenceRow struct {
	LocationID        string `csv:"locationId"`
	PracticeGroupID   string `csv:"practiceGroupId"`
	PracticeGroupName string `csv:"practiceGroupName"`
}

// PracticeGroup is the reference metadata resolved for one location.
type PracticeGroup struct {
	ID   string
	Name string
}

// ExpandedRow is one row per (connection, location) pair. LocationID is a
// single location identifier, or "" for a connection with no locations.
type ExpandedRow struct {
	ID                string
	WebsiteID         string
	Username          string
	Status            string
	LocationID        string
	LastUpdated       string
	PracticeGroupID   string
	PracticeGroupName string
}

// ReportRow is one row per unique connection, ready for publication.
// LocationID carries all location identifiers joined with ", ".
type ReportRow struct {
	ID                string
	WebsiteID         string
	Username          string
	Status            string
	LocationID        string
	LastUpdated       string
	PracticeGroupID   string
	PracticeGroupName string
}

// ReportExportRow is a stored report row together with the timestamp of
// the run that produced it.
type ReportExportRow struct {
	ReportRow
	FetchedAt string
}

type RunRow struct {
	ID         int
	TraceID    string
	Status     string
	CountsJSON string
	StartedAt  string
	FinishedAt *string
}

const (
	RunStatusStarted   = "started"
	RunStatusPublished = "published"
	RunStatusFailed    = "failed"
)

// MalformedRowError reports a scraped row missing a field that a pipeline
// stage requires. It means the upstream contract was violated; it is
// propagated, never recovered.
type MalformedRowError struct {
	ConnectionID string
	Field        string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row: connection %q is missing mandatory field %q", e.ConnectionID, e.Field)
}
