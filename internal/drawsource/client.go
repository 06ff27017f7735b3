// Package drawsource loads validated draw records from a CSV file or an HTTP
// endpoint. Malformed rows are dropped before they reach the analyzers.
package drawsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rewired-gh/aetherscore/internal/logger"
	"github.com/rewired-gh/aetherscore/internal/models"
)

// Client fetches draw history over HTTP.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new draw source client.
func NewClient(timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		httpClient:     &http.Client{Timeout: timeout},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// Fetch downloads and parses a CSV draw history.
func (c *Client) Fetch(ctx context.Context, url string) ([]models.Draw, error) {
	resp, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch draws: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status fetching draws: %d", resp.StatusCode)
	}
	return Parse(resp.Body)
}

// doRequest performs HTTP request with retry logic
func (c *Client) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/csv")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
		} else {
			return resp, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// LoadFile parses a CSV draw history from disk.
func LoadFile(path string) ([]models.Draw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open draw file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

var dateLayouts = []string{models.DateLayout, "02/01/2006", "2006/01/02"}

// Parse reads rows of date,n1,n2,n3,n4,n5,s1,s2. A header row and rows that
// fail to parse or validate are skipped. The result is sorted by date.
func Parse(r io.Reader) ([]models.Draw, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var draws []models.Draw
	line := 0
	skipped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line++
		d, err := parseRecord(record)
		if err != nil {
			if line > 1 {
				logger.Warn("Skipping draw row %d: %v", line, err)
			}
			skipped++
			continue
		}
		draws = append(draws, d)
	}

	sort.SliceStable(draws, func(i, j int) bool { return draws[i].Date.Before(draws[j].Date) })
	logger.Debug("Parsed %d draws (%d rows skipped)", len(draws), skipped)
	return draws, nil
}

func parseRecord(record []string) (models.Draw, error) {
	if len(record) < 1+models.MainCount+models.StarCount {
		return models.Draw{}, fmt.Errorf("expected %d columns, got %d", 1+models.MainCount+models.StarCount, len(record))
	}
	date, err := parseDate(strings.TrimSpace(record[0]))
	if err != nil {
		return models.Draw{}, err
	}
	nums := make([]int, 0, models.MainCount+models.StarCount)
	for _, field := range record[1 : 1+models.MainCount+models.StarCount] {
		v, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return models.Draw{}, fmt.Errorf("invalid number %q: %w", field, err)
		}
		nums = append(nums, v)
	}
	d := models.Draw{
		Date:  date,
		Main:  nums[:models.MainCount],
		Stars: nums[models.MainCount:],
	}
	if err := d.Validate(); err != nil {
		return models.Draw{}, err
	}
	return d, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
