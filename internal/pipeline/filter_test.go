package pipeline

import (
	"errors"
	"testing"

	"authwatch/internal"
)

func TestFilterByPracticeGroupsInsensitive(t *testing.T) {
	rows := []internal.ExpandedRow{
		{ID: "1", PracticeGroupName: " Acme Dental "},
		{ID: "2", PracticeGroupName: "Other"},
		{ID: "3", PracticeGroupName: "acme dental"},
	}

	got := FilterByPracticeGroups(rows, []string{"ACME DENTAL "})
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("order not preserved: %+v", got)
	}
}

func TestFilterByPracticeGroupsEmptyNameNeedsExplicitAllow(t *testing.T) {
	rows := []internal.ExpandedRow{{ID: "1", PracticeGroupName: ""}}
	if got := FilterByPracticeGroups(rows, []string{"GroupX"}); len(got) != 0 {
		t.Fatalf("unmatched row kept: %+v", got)
	}
}

func TestFilterByStatusExact(t *testing.T) {
	rows := []internal.ExpandedRow{
		{ID: "1", Status: "auth_failed"},
		{ID: "2", Status: "connected"},
		{ID: "3", Status: "AUTH_FAILED"},
		{ID: "4", Status: "auth_failed"},
	}

	got, err := FilterByStatus(rows, "auth_failed")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "4" {
		t.Fatalf("status match must be exact and ordered: %+v", got)
	}
}

func TestFilterByStatusMissingField(t *testing.T) {
	rows := []internal.ExpandedRow{
		{ID: "1", Status: "auth_failed"},
		{ID: "2"},
	}

	_, err := FilterByStatus(rows, "auth_failed")
	var malformed *internal.MalformedRowError
	if !errors.As(err, &malformed) {
		t.Fatalf("want MalformedRowError, got %v", err)
	}
	if malformed.ConnectionID != "2" || malformed.Field != "Status" {
		t.Fatalf("bad error detail: %+v", malformed)
	}
}

func TestExcludeSites(t *testing.T) {
	rows := []internal.ExpandedRow{
		{ID: "1", WebsiteID: "site.com"},
		{ID: "2", WebsiteID: "excluded.com"},
		{ID: "3", WebsiteID: "sub.excluded.com"},
	}

	got := ExcludeSites(rows, []string{"excluded.com"})
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("exclusion must be exact-match only: %+v", got)
	}
}

func TestFiltersDoNotMutateInput(t *testing.T) {
	rows := []internal.ExpandedRow{
		{ID: "1", WebsiteID: "a", Status: "auth_failed", PracticeGroupName: "G"},
		{ID: "2", WebsiteID: "b", Status: "auth_failed", PracticeGroupName: "G"},
	}

	_ = FilterByPracticeGroups(rows, []string{"g"})
	_, _ = FilterByStatus(rows, "auth_failed")
	_ = ExcludeSites(rows, []string{"a"})

	if rows[0].ID != "1" || rows[1].ID != "2" || rows[0].WebsiteID != "a" {
		t.Fatalf("input mutated: %+v", rows)
	}
}
