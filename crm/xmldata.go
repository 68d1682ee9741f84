package crm

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
)

// reservedEscaper replaces the characters the API's query parser would
// otherwise split a value on.
var reservedEscaper = strings.NewReplacer("&", "%26", ",", "%2C")

type xmlPayload struct {
	XMLName xml.Name
	Rows    []xmlRow `xml:"row"`
}

type xmlRow struct {
	No     int        `xml:"no,attr"`
	Fields []xmlField `xml:"FL"`
}

// xmlField carries its value either verbatim or, once escaped, as CDATA.
// Verbatim values are written without entity escaping: an entity would put a
// raw '&' into the query string.
type xmlField struct {
	Name  string `xml:"val,attr"`
	Text  string `xml:",innerxml"`
	CDATA string `xml:",cdata"`
}

// EncodeRows serializes records into the row/FL markup the insert action expects.
// Rows are numbered from 1; fields are written in name order.
func EncodeRows(collection string, records []Record) (string, error) {
	if collection == "" {
		return "", invalidArgument("collection", "must not be empty")
	}

	payload := xmlPayload{
		XMLName: xml.Name{Local: collection},
		Rows:    make([]xmlRow, 0, len(records)),
	}
	for i, rec := range records {
		payload.Rows = append(payload.Rows, xmlRow{
			No:     i + 1,
			Fields: encodeFields(rec),
		})
	}

	out, err := xml.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s rows: %w", collection, err)
	}
	return string(out), nil
}

func encodeFields(rec Record) []xmlField {
	names := make([]string, 0, len(rec))
	for name := range rec {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]xmlField, 0, len(names))
	for _, name := range names {
		fields = append(fields, encodeField(name, rec[name]))
	}
	return fields
}

func encodeField(name, value string) xmlField {
	// '<' and "]]>" cannot appear in element text as-is
	if strings.ContainsAny(value, "&,<") || strings.Contains(value, "]]>") {
		return xmlField{Name: name, CDATA: reservedEscaper.Replace(value)}
	}
	return xmlField{Name: name, Text: value}
}
