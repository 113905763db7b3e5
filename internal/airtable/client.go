// Package airtable wraps the Airtable SDK behind the small Fetcher
// interface the rest of the service depends on.
package airtable

import (
	"context"
	"fmt"
	"net/http"
	"time"

	airtablelib "github.com/mehanizm/airtable"
	"github.com/rs/zerolog"
)

// Client is the concrete implementation of Fetcher backed by the official
// Airtable REST API.
type Client struct {
	client *airtablelib.Client
	baseID string
	log    zerolog.Logger
}

// NewClient creates a Client for one Airtable base. The timeout bounds each
// underlying HTTP request.
func NewClient(apiKey, baseID string, timeout time.Duration, log zerolog.Logger) *Client {
	c := airtablelib.NewClient(apiKey)
	c.SetCustomClient(&http.Client{Timeout: timeout})
	return &Client{
		client: c,
		baseID: baseID,
		log:    log,
	}
}

// FetchTable retrieves every record of the named table, following the
// API's offset pagination until the table is exhausted.
func (c *Client) FetchTable(ctx context.Context, table string) ([]Record, error) {
	tbl := c.client.GetTable(c.baseID, table)

	records := make([]Record, 0)
	offset := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("FetchTable %q: %w", table, err)
		}

		query := tbl.GetRecords()
		if offset != "" {
			query = query.WithOffset(offset)
		}
		page, err := query.Do()
		if err != nil {
			return nil, fmt.Errorf("FetchTable %q: %w", table, err)
		}

		for _, r := range page.Records {
			records = append(records, Record{ID: r.ID, Fields: r.Fields})
		}

		if page.Offset == "" {
			break
		}
		offset = page.Offset
	}

	c.log.Debug().Str("table", table).Int("records", len(records)).Msg("Fetched table")
	return records, nil
}

// Ensure Client implements Fetcher.
var _ Fetcher = (*Client)(nil)
