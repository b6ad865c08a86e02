package history

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jszwec/csvutil"

	"authwatch/internal"
)

type historyRow struct {
	ID                string `csv:"ID"`
	WebsiteID         string `csv:"WebsiteId"`
	Username          string `csv:"Username"`
	Status            string `csv:"Status"`
	LocationID        string `csv:"locationId"`
	LastUpdated       string `csv:"LastUpdated"`
	PracticeGroupID   string `csv:"practiceGroupId"`
	PracticeGroupName string `csv:"practiceGroupName"`
	FetchedAt         string `csv:"FetchedAt"`
}

// Writer appends published report rows to a local CSV file, one batch per
// run. The file only ever grows; the header is written once when the file
// is first created.
type Writer struct {
	path string
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Append records the rows with a single FetchedAt timestamp for the whole
// run. An empty batch is a valid result and leaves the file untouched.
func (w *Writer) Append(rows []internal.ReportRow, fetchedAt time.Time) error {
	if len(rows) == 0 {
		fmt.Println("history: no rows to record")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return err
	}

	_, statErr := os.Stat(w.path)
	newFile := os.IsNotExist(statErr)

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	enc := csvutil.NewEncoder(cw)
	enc.AutoHeader = false

	if newFile {
		if err := enc.EncodeHeader(historyRow{}); err != nil {
			return err
		}
	}

	timestamp := fetchedAt.Format("2006-01-02 15:04:05")
	for _, row := range rows {
		record := historyRow{
			ID:                row.ID,
			WebsiteID:         row.WebsiteID,
			Username:          row.Username,
			Status:            row.Status,
			LocationID:        row.LocationID,
			LastUpdated:       row.LastUpdated,
			PracticeGroupID:   row.PracticeGroupID,
			PracticeGroupName: row.PracticeGroupName,
			FetchedAt:         timestamp,
		}
		if err := enc.Encode(record); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	fmt.Printf("history: appended %d rows to %s\n", len(rows), w.path)
	return nil
}
