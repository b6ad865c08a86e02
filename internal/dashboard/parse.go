package dashboard

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"authwatch/internal"
)

// parseConnectionsTable walks the connections table of one dashboard page.
// Cell order is fixed by the dashboard: ID, WebsiteId, Username, Status,
// Locations, LastUpdated. Rows with fewer than six cells are layout noise
// and skipped; a six-cell row without an ID means the table shifted under
// us and surfaces as a malformed row.
func parseConnectionsTable(doc *goquery.Document) ([]internal.ConnectionRecord, error) {
	var records []internal.ConnectionRecord
	var rowErr error

	doc.Find("table tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 6 {
			return true
		}

		cell := func(i int) string {
			return strings.TrimSpace(cells.Eq(i).Text())
		}

		record := internal.ConnectionRecord{
			ID:           cell(0),
			WebsiteID:    cell(1),
			Username:     cell(2),
			Status:       cell(3),
			LocationsRaw: cell(4),
			LastUpdated:  cell(5),
		}
		if record.ID == "" {
			rowErr = &internal.MalformedRowError{ConnectionID: "", Field: "ID"}
			return false
		}

		records = append(records, record)
		return true
	})

	if rowErr != nil {
		return nil, rowErr
	}
	return records, nil
}

// nextPageHref finds the pagination link labelled "Next", if any.
func nextPageHref(doc *goquery.Document) (string, bool) {
	href := ""
	found := false

	doc.Find("a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		if !strings.Contains(strings.TrimSpace(link.Text()), "Next") {
			return true
		}
		value, ok := link.Attr("href")
		if !ok || strings.TrimSpace(value) == "" || value == "#" {
			return true
		}
		href = value
		found = true
		return false
	})

	return href, found
}
