package airtable

import "context"

// Record is one row fetched from an Airtable table: a stable identity plus
// the raw field mapping. Field values are scalars, lists of scalars, or
// absent; callers must not assume any particular spelling or shape.
type Record struct {
	// ID is the Airtable record ID. It is stable across repeated fetches
	// of the same underlying row and is used as the selection key and as
	// a render key downstream.
	ID string `json:"id"`

	// Fields maps field name to raw value as returned by the API.
	Fields map[string]interface{} `json:"fields"`
}

// Fetcher retrieves all records of one table. An empty table returns an
// empty slice and a nil error; the two outcomes are never conflated.
type Fetcher interface {
	FetchTable(ctx context.Context, table string) ([]Record, error)
}
