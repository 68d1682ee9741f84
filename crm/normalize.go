package crm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// responseBody is the content of the "response" envelope.
type responseBody struct {
	URI    string                     `json:"uri"`
	Error  marker                     `json:"error"`
	NoData marker                     `json:"nodata"`
	Result map[string]json.RawMessage `json:"result"`
}

type wireError struct {
	Code    flexString `json:"code"`
	Message flexString `json:"message"`
}

// marker is an error or nodata value. The API usually sends an object with a
// code and message but may send any truthy scalar instead.
type marker json.RawMessage

func (m *marker) UnmarshalJSON(data []byte) error {
	*m = append((*m)[:0], data...)
	return nil
}

// present reports whether the marker was sent with a truthy value
func (m marker) present() bool {
	switch v := string(bytes.TrimSpace(m)); v {
	case "", "null", "false", "0", `""`:
		return false
	default:
		return true
	}
}

// details reads code and message from an object marker; any other value
// becomes the message.
func (m marker) details() wireError {
	data := bytes.TrimSpace(m)
	if len(data) > 0 && data[0] == '{' {
		var we wireError
		if err := json.Unmarshal(data, &we); err == nil {
			return we
		}
	}

	var msg flexString
	if err := json.Unmarshal(data, &msg); err != nil {
		msg = flexString(data)
	}
	return wireError{Message: msg}
}

type collectionBody struct {
	Row *oneOrMany[wireRow] `json:"row"`
}

type wireRow struct {
	No     flexString           `json:"no"`
	Fields oneOrMany[wireField] `json:"FL"`
}

type wireField struct {
	Name    string     `json:"val"`
	Content flexString `json:"content"`
}

// oneOrMany decodes a JSON value that is either a bare object or an array of them.
type oneOrMany[T any] struct {
	items    []T
	multiple bool
}

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		o.items, o.multiple = nil, false
		return nil
	}
	if data[0] == '[' {
		o.multiple = true
		return json.Unmarshal(data, &o.items)
	}

	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	o.items, o.multiple = []T{item}, false
	return nil
}

// flexString accepts strings, numbers and booleans.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*s = ""
	case data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
	case data[0] == '{' || data[0] == '[':
		return fmt.Errorf("expected scalar, got %s", data[:1])
	default:
		*s = flexString(data)
	}
	return nil
}

// Normalize classifies a decoded payload for the given collection.
func Normalize(collection string, p *Payload) (*Result, error) {
	body, err := decodeBody(p)
	if err != nil {
		return nil, err
	}
	if body.NoData.present() {
		return &Result{Kind: ResultEmpty, Records: []Record{}}, nil
	}

	raw, ok := body.Result[collection]
	if !ok {
		return nil, fmt.Errorf("%w: no result for collection %q", ErrMalformedResponse, collection)
	}

	var coll collectionBody
	if err := json.Unmarshal(raw, &coll); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if coll.Row == nil {
		return nil, fmt.Errorf("%w: collection %q has no rows", ErrMalformedResponse, collection)
	}

	records := make([]Record, 0, len(coll.Row.items))
	for _, row := range coll.Row.items {
		records = append(records, flatten(row.Fields.items))
	}

	kind := ResultSingle
	if coll.Row.multiple {
		kind = ResultMultiple
	}
	return &Result{Kind: kind, Records: records}, nil
}

// normalizeInsert classifies the acknowledgement of an insert.
func normalizeInsert(p *Payload) (*InsertResult, error) {
	body, err := decodeBody(p)
	if err != nil {
		return nil, err
	}

	out := &InsertResult{Details: []Record{}}
	if raw, ok := body.Result["message"]; ok {
		var msg flexString
		if err := json.Unmarshal(raw, &msg); err == nil {
			out.Message = string(msg)
		}
	}
	if raw, ok := body.Result["recorddetail"]; ok {
		var details oneOrMany[wireRow]
		if err := json.Unmarshal(raw, &details); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		for _, row := range details.items {
			out.Details = append(out.Details, flatten(row.Fields.items))
		}
	}
	return out, nil
}

// decodeBody handles the branches shared by every action: diagnostics
// on 414 and the API's own error envelope.
func decodeBody(p *Payload) (*responseBody, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedResponse)
	}
	if p.StatusCode == http.StatusRequestURITooLong || p.Text != "" {
		return nil, &TransportError{
			Op:         "GET",
			StatusCode: p.StatusCode,
			Body:       truncate(p.Text, 512),
			Err:        ErrURITooLong,
		}
	}

	var body responseBody
	if err := json.Unmarshal(p.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if body.Error.present() {
		details := body.Error.details()
		return nil, &RemoteError{
			Code:    string(details.Code),
			Message: string(details.Message),
		}
	}
	return &body, nil
}

// flatten builds a record from a field list; later duplicates win.
func flatten(fields []wireField) Record {
	rec := make(Record, len(fields))
	for _, f := range fields {
		rec[f.Name] = string(f.Content)
	}
	return rec
}
