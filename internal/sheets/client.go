package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"authwatch/internal"
	"authwatch/internal/config"
)

var reportHeader = []any{
	"ID", "WebsiteId", "Username", "Status", "locationId", "LastUpdated",
	"practiceGroupId", "practiceGroupName", "FetchedAt",
}

// Client reads the practice-group allow-list from one tab of the monitoring
// spreadsheet and publishes the consolidated report to another.
type Client struct {
	cfg config.Config
	svc *sheets.Service
}

func NewClient(ctx context.Context, cfg config.Config) (*Client, error) {
	if err := cfg.Require("SHEET_ID", cfg.SheetID); err != nil {
		return nil, err
	}

	credentials, err := os.ReadFile(cfg.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}

	jwtCfg, err := google.JWTConfigFromJSON(credentials, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithTokenSource(jwtCfg.TokenSource(ctx)))
	if err != nil {
		return nil, err
	}

	return &Client{cfg: cfg, svc: svc}, nil
}

// LoadPracticeGroups reads the groups tab: column A holds a per-group
// status, column B the group name. Groups whose status is "run" are
// monitored. Names come back raw; normalization happens in the filter.
func (c *Client) LoadPracticeGroups(ctx context.Context) ([]string, error) {
	readRange := fmt.Sprintf("%s!A2:B", c.cfg.SheetGroupsTab)
	resp, err := c.svc.Spreadsheets.Values.Get(c.cfg.SheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read groups tab: %w", err)
	}

	var groups []string
	for _, row := range resp.Values {
		if len(row) < 2 {
			continue
		}
		status, _ := row[0].(string)
		name, _ := row[1].(string)
		if !strings.EqualFold(strings.TrimSpace(status), "run") {
			continue
		}
		if strings.TrimSpace(name) == "" {
			continue
		}
		groups = append(groups, name)
	}
	return groups, nil
}

// Publish overwrites the result tab with the report. The ID column becomes
// a link back to the dashboard connection page and every row carries the
// run timestamp. An empty report still clears the tab and leaves a
// placeholder line so stale rows never linger.
func (c *Client) Publish(ctx context.Context, rows []internal.ReportRow, fetchedAt time.Time) error {
	if _, err := c.svc.Spreadsheets.Values.Clear(c.cfg.SheetID, c.cfg.SheetResultTab, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear result tab: %w", err)
	}

	timestamp := fetchedAt.Format("2006-01-02 15:04:05")
	values := [][]any{reportHeader}

	if len(rows) == 0 {
		values = append(values, []any{fmt.Sprintf("no %s connections found for the monitored practice groups", c.cfg.TargetStatus), "", "", "", "", "", "", "", timestamp})
	}
	for _, row := range rows {
		values = append(values, []any{
			c.connectionLink(row.ID),
			row.WebsiteID,
			row.Username,
			row.Status,
			row.LocationID,
			row.LastUpdated,
			row.PracticeGroupID,
			row.PracticeGroupName,
			timestamp,
		})
	}

	update := &sheets.ValueRange{Values: values}
	_, err := c.svc.Spreadsheets.Values.
		Update(c.cfg.SheetID, fmt.Sprintf("%s!A1", c.cfg.SheetResultTab), update).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write result tab: %w", err)
	}

	fmt.Printf("sheet publish done tab=%s rows=%d\n", c.cfg.SheetResultTab, len(rows))
	return nil
}

func (c *Client) connectionLink(id string) string {
	base := strings.TrimRight(c.cfg.DashboardBaseURL, "/")
	escaped := strings.ReplaceAll(id, `"`, `""`)
	return fmt.Sprintf(`=HYPERLINK("%s/connection/%s", "%s")`, base, escaped, escaped)
}
