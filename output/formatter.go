// Package output renders CRM records for the terminal.
package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/s0up4200/zcrm/crm"
)

// FormatOptions contains options for formatting output
type FormatOptions struct {
	// Fields limits and orders the fields shown; empty shows all, sorted
	Fields []string
	// ShowEmpty includes fields whose value is empty
	ShowEmpty bool
}

// RecordFormatter renders records for display
type RecordFormatter interface {
	FormatRecords(collection string, records []crm.Record, options FormatOptions) string
	FormatInsertPreview(collection, url, payload string, rows int) string
}

// ConsoleFormatter provides tree-style console output for records
type ConsoleFormatter struct{}

var _ RecordFormatter = (*ConsoleFormatter)(nil)

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{}
}

// FormatRecords formats a list of records for console display
func (f *ConsoleFormatter) FormatRecords(collection string, records []crm.Record, options FormatOptions) string {
	if len(records) == 0 {
		return fmt.Sprintf("No %s found", collection)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s (%d):\n\n", collection, len(records))

	for i, record := range records {
		isLast := i == len(records)-1
		prefix := "├"
		if isLast {
			prefix = "╰"
		}

		fmt.Fprintf(&sb, "%s── %s\n", prefix, recordTitle(record, i))

		indent := "│   "
		if isLast {
			indent = "    "
		}

		names := fieldOrder(record, options.Fields)
		width := 0
		for _, name := range names {
			width = max(width, len(name))
		}
		for _, name := range names {
			value, ok := record[name]
			if !ok || (value == "" && !options.ShowEmpty) {
				continue
			}
			fmt.Fprintf(&sb, "%s%-*s  %s\n", indent, width+1, name+":", value)
		}

		if !isLast {
			sb.WriteString("│\n")
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// FormatInsertPreview describes an insert that was not sent
func (f *ConsoleFormatter) FormatInsertPreview(collection, url, payload string, rows int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n[DRY RUN] Would insert %d row", rows)
	if rows != 1 {
		sb.WriteString("s")
	}
	fmt.Fprintf(&sb, " into %s\n\n", collection)
	fmt.Fprintf(&sb, "├── URL: %s\n", url)
	fmt.Fprintf(&sb, "╰── Payload: %s\n\n", payload)
	return sb.String()
}

// recordTitle picks a heading for a record: its id and a name when present
func recordTitle(record crm.Record, index int) string {
	var parts []string
	if id := recordID(record); id != "" {
		parts = append(parts, id)
	}
	if name := recordName(record); name != "" {
		parts = append(parts, name)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Record %d", index+1)
	}
	return strings.Join(parts, " • ")
}

// recordID finds the identifier field, e.g. CONTACTID or Id
func recordID(record crm.Record) string {
	if id := record["Id"]; id != "" {
		return id
	}
	for _, name := range sortedKeys(record) {
		if strings.HasSuffix(name, "ID") && strings.ToUpper(name) == name && record[name] != "" {
			return record[name]
		}
	}
	return ""
}

func recordName(record crm.Record) string {
	for _, key := range []string{"Full Name", "Account Name", "Deal Name", "Subject"} {
		if v := record[key]; v != "" {
			return v
		}
	}
	return strings.TrimSpace(record["First Name"] + " " + record["Last Name"])
}

func fieldOrder(record crm.Record, fields []string) []string {
	if len(fields) > 0 {
		return fields
	}
	return sortedKeys(record)
}

func sortedKeys(record crm.Record) []string {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
