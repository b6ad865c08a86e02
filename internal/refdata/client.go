package refdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/jszwec/csvutil"

	"authwatch/internal"
	"authwatch/internal/config"
)

// Client fetches the reference CSV from the analytics endpoint.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.RedashTimeoutMs) * time.Millisecond},
	}
}

// FetchRows downloads and decodes the reference CSV. The payload must carry
// at least the locationId, practiceGroupId and practiceGroupName columns;
// anything less is an upstream contract violation and fails the decode.
func (c *Client) FetchRows(ctx context.Context) ([]internal.ReferenceRow, error) {
	if strings.TrimSpace(c.cfg.RedashURL) == "" {
		return nil, errors.New("missing REDASH_URL")
	}

	body, err := c.fetchCSV(ctx)
	if err != nil {
		return nil, err
	}

	var rows []internal.ReferenceRow
	if err := csvutil.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode reference csv: %w", err)
	}
	return rows, nil
}

func (c *Client) fetchCSV(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.RedashURL, nil)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(c.cfg.RedashAPIKey) != "" {
			req.Header.Set("Authorization", "Key "+c.cfg.RedashAPIKey)
		}
		req.Header.Set("Accept", "text/csv")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("reference endpoint status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("reference endpoint error: status=%d body=%s", resp.StatusCode, string(body))
		}

		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("reference csv request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
