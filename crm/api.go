package crm

import (
	"context"
)

// API defines the record operations exposed by the client
type API interface {
	// FetchByID retrieves one record; an empty record means none matched
	FetchByID(ctx context.Context, collection, id string) (Record, error)

	// FetchRelated retrieves the records of related that belong to parent/id
	FetchRelated(ctx context.Context, parent, id, related string) ([]Record, error)

	// Search retrieves records matching an opaque criteria expression
	Search(ctx context.Context, collection, criteria string) ([]Record, error)

	// Insert writes a batch of records
	Insert(ctx context.Context, collection string, records []Record) (bool, error)
}

var _ API = (*Client)(nil)
