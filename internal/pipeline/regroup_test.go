package pipeline

import (
	"testing"

	"authwatch/internal"
)

func TestRegroupJoinsLocations(t *testing.T) {
	rows := []internal.ExpandedRow{
		{ID: "1", WebsiteID: "site.com", Status: "auth_failed", LocationID: "A"},
		{ID: "1", WebsiteID: "site.com", Status: "auth_failed", LocationID: "B"},
	}

	got := Regroup(rows)
	if len(got) != 1 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].LocationID != "A, B" {
		t.Fatalf("locationId=%q", got[0].LocationID)
	}
}

func TestRegroupFirstSeenOrder(t *testing.T) {
	rows := []internal.ExpandedRow{
		{ID: "b", LocationID: "1", Status: "auth_failed"},
		{ID: "a", LocationID: "2", Status: "auth_failed"},
		{ID: "b", LocationID: "3", Status: "auth_failed"},
		{ID: "c", Status: "auth_failed"},
	}

	got := Regroup(rows)
	if len(got) != 3 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "a" || got[2].ID != "c" {
		t.Fatalf("order: %v %v %v", got[0].ID, got[1].ID, got[2].ID)
	}
	if got[0].LocationID != "1, 3" {
		t.Fatalf("locationId=%q", got[0].LocationID)
	}
	if got[2].LocationID != "" {
		t.Fatalf("no-location connection must join to empty string, got %q", got[2].LocationID)
	}
}

func TestRegroupKeepsFirstSeenFields(t *testing.T) {
	// Rows sharing an ID are assumed to agree on non-location fields; when
	// they do not, the first row wins silently.
	rows := []internal.ExpandedRow{
		{ID: "1", Username: "first", Status: "auth_failed", LocationID: "A", PracticeGroupName: "G1"},
		{ID: "1", Username: "second", Status: "connected", LocationID: "B", PracticeGroupName: "G2"},
	}

	got := Regroup(rows)
	if len(got) != 1 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].Username != "first" || got[0].Status != "auth_failed" || got[0].PracticeGroupName != "G1" {
		t.Fatalf("first-seen fields not kept: %+v", got[0])
	}
	if got[0].LocationID != "A, B" {
		t.Fatalf("locationId=%q", got[0].LocationID)
	}
}

func TestRegroupDistinctIDsPreserved(t *testing.T) {
	rows := []internal.ExpandedRow{
		{ID: "1", LocationID: "A"},
		{ID: "2", LocationID: "B"},
		{ID: "1", LocationID: "C"},
	}

	got := Regroup(rows)
	ids := map[string]bool{}
	for _, row := range got {
		ids[row.ID] = true
	}
	if len(got) != 2 || !ids["1"] || !ids["2"] {
		t.Fatalf("id set mismatch: %+v", got)
	}
}
