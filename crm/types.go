package crm

// Record is a flattened CRM record keyed by field name.
type Record map[string]string

// Clone returns a copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Action names an API action.
type Action string

const (
	ActionGetRecordByID     Action = "getRecordById"
	ActionGetRelatedRecords Action = "getRelatedRecords"
	ActionSearchRecords     Action = "searchRecords"
	ActionInsertRecords     Action = "insertRecords"
)

// ActionRequest describes a single API call.
type ActionRequest struct {
	Collection string
	Action     Action
	// Query is appended verbatim; callers own its encoding.
	Query      string
	ObjectID   string
	Attachment string
}

// ResultKind classifies a successful response.
type ResultKind int

const (
	// ResultEmpty means the API reported no matching records
	ResultEmpty ResultKind = iota
	// ResultSingle means the API returned a bare row object
	ResultSingle
	// ResultMultiple means the API returned an array of rows
	ResultMultiple
)

// String returns the string representation of a ResultKind
func (k ResultKind) String() string {
	switch k {
	case ResultEmpty:
		return "empty"
	case ResultSingle:
		return "single"
	case ResultMultiple:
		return "multiple"
	default:
		return "unknown"
	}
}

// Result is a normalized, successful API response.
type Result struct {
	Kind    ResultKind
	Records []Record
}

// First returns the first record, or an empty record when there is none.
func (r *Result) First() Record {
	if r == nil || len(r.Records) == 0 {
		return Record{}
	}
	return r.Records[0]
}

// All returns every record. The slice is never nil.
func (r *Result) All() []Record {
	if r == nil || r.Records == nil {
		return []Record{}
	}
	return r.Records
}

// InsertResult is the API's acknowledgement of an insert.
type InsertResult struct {
	Message string `json:"message"`
	// Details holds the identifiers the API assigned, one entry per inserted row.
	Details []Record `json:"details"`
}
