package crm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

// Client represents a CRM API client
type Client struct {
	token     string
	endpoint  Endpoint
	route     route
	transport Transport
	logger    zerolog.Logger
	debug     bool
}

// New creates a new CRM client for the given auth token
func New(token string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrMissingCredential
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	transport := o.transport
	if transport == nil {
		httpClient := o.httpClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: o.timeout}
		}
		transport = NewHTTPTransport(httpClient, logger)
	}

	return &Client{
		token:    token,
		endpoint: o.endpoint,
		route: route{
			namespace: o.namespace,
			format:    o.format,
			scope:     o.scope,
		},
		transport: transport,
		logger:    logger,
		debug:     o.debug,
	}, nil
}

// URL builds the request URL for req.
func (c *Client) URL(req ActionRequest) string {
	u := buildURL(c.endpoint, c.route, c.token, req)
	if c.debug {
		c.logger.Info().
			Str("collection", req.Collection).
			Str("action", string(req.Action)).
			Str("url", RedactToken(u)).
			Msg("Built CRM API URL")
	}
	return u
}

// do issues req and classifies the response for its collection
func (c *Client) do(ctx context.Context, req ActionRequest) (*Result, error) {
	payload, err := c.transport.Get(ctx, c.URL(req))
	if err != nil {
		return nil, err
	}

	result, err := Normalize(req.Collection, payload)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("collection", req.Collection).
		Str("action", string(req.Action)).
		Stringer("kind", result.Kind).
		Int("count", len(result.Records)).
		Msg("Normalized CRM response")

	return result, nil
}

// FetchByID retrieves a record by its identifier
func (c *Client) FetchByID(ctx context.Context, collection, id string) (Record, error) {
	if err := requireArgs("collection", collection, "id", id); err != nil {
		return nil, err
	}

	result, err := c.do(ctx, ActionRequest{
		Collection: collection,
		Action:     ActionGetRecordByID,
		Query:      "id=" + id,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s %s: %w", collection, id, err)
	}

	return result.First(), nil
}

// FetchRelated retrieves every record of the related collection attached to parent/id
func (c *Client) FetchRelated(ctx context.Context, parent, id, related string) ([]Record, error) {
	if err := requireArgs("parent collection", parent, "id", id, "related collection", related); err != nil {
		return nil, err
	}

	result, err := c.do(ctx, ActionRequest{
		Collection: related,
		Action:     ActionGetRelatedRecords,
		Query:      "id=" + id + "&parentModule=" + parent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s related to %s %s: %w", related, parent, id, err)
	}

	return result.All(), nil
}

// Search retrieves the records matching criteria, which is passed through unparsed
func (c *Client) Search(ctx context.Context, collection, criteria string) ([]Record, error) {
	if err := requireArgs("collection", collection, "criteria", criteria); err != nil {
		return nil, err
	}

	result, err := c.do(ctx, ActionRequest{
		Collection: collection,
		Action:     ActionSearchRecords,
		Query:      "criteria=" + criteria,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", collection, err)
	}

	return result.All(), nil
}

// Insert writes records to collection and reports whether the API accepted them
func (c *Client) Insert(ctx context.Context, collection string, records []Record) (bool, error) {
	if _, err := c.InsertRecords(ctx, collection, records); err != nil {
		return false, err
	}
	return true, nil
}

// InsertRecords writes records to collection and returns the API's acknowledgement
func (c *Client) InsertRecords(ctx context.Context, collection string, records []Record) (*InsertResult, error) {
	req, err := InsertRequest(collection, records)
	if err != nil {
		return nil, err
	}

	payload, err := c.transport.Get(ctx, c.URL(req))
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", collection, err)
	}

	result, err := normalizeInsert(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", collection, err)
	}

	c.logger.Debug().
		Str("collection", collection).
		Int("rows", len(records)).
		Str("message", result.Message).
		Msg("Inserted CRM records")

	return result, nil
}

// InsertRequest builds the insert action for records without sending it.
func InsertRequest(collection string, records []Record) (ActionRequest, error) {
	if err := requireArgs("collection", collection); err != nil {
		return ActionRequest{}, err
	}
	if len(records) == 0 {
		return ActionRequest{}, invalidArgument("records", "must not be empty")
	}

	payload, err := EncodeRows(collection, records)
	if err != nil {
		return ActionRequest{}, err
	}

	return ActionRequest{
		Collection: collection,
		Action:     ActionInsertRecords,
		Query:      "xmlData=" + payload,
	}, nil
}

// requireArgs takes name/value pairs and rejects empty values
func requireArgs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return invalidArgument(pairs[i], "must be a non-empty string")
		}
	}
	return nil
}
