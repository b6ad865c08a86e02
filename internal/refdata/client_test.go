package refdata

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"authwatch/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestFetchRowsWithRetry(t *testing.T) {
	attempt := 0

	cfg, _ := config.Load()
	cfg.RedashURL = "https://analytics.test/api/queries/42/results.csv"
	cfg.RedashAPIKey = "secret"

	client := NewClient(cfg)
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if got := r.Header.Get("Authorization"); got != "Key secret" {
				t.Fatalf("authorization header %q", got)
			}
			attempt++
			if attempt == 1 {
				return &http.Response{
					StatusCode: http.StatusServiceUnavailable,
					Body:       io.NopCloser(strings.NewReader("busy")),
					Header:     make(http.Header),
				}, nil
			}

			csv := "locationId,practiceGroupId,practiceGroupName\n10,pg-1,GroupX\n20,pg-1,GroupX\n"
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(csv)),
				Header:     make(http.Header),
			}, nil
		}),
	}

	rows, err := client.FetchRows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("len=%d", len(rows))
	}
	if rows[0].LocationID != "10" || rows[0].PracticeGroupName != "GroupX" {
		t.Fatalf("row: %+v", rows[0])
	}
	if attempt != 2 {
		t.Fatalf("attempts=%d", attempt)
	}
}

func TestFetchRowsNonRetryableStatus(t *testing.T) {
	cfg, _ := config.Load()
	cfg.RedashURL = "https://analytics.test/results.csv"

	client := NewClient(cfg)
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusForbidden,
				Body:       io.NopCloser(strings.NewReader("denied")),
				Header:     make(http.Header),
			}, nil
		}),
	}

	if _, err := client.FetchRows(context.Background()); err == nil {
		t.Fatal("want error")
	}
}

func TestFetchRowsExtraColumnsIgnored(t *testing.T) {
	cfg, _ := config.Load()
	cfg.RedashURL = "https://analytics.test/results.csv"

	client := NewClient(cfg)
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			csv := "locationId,practiceGroupId,practiceGroupName,region\n10,pg-1,GroupX,west\n"
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(csv)),
				Header:     make(http.Header),
			}, nil
		}),
	}

	rows, err := client.FetchRows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].PracticeGroupID != "pg-1" {
		t.Fatalf("rows: %+v", rows)
	}
}
