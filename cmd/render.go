package cmd

import (
	"fmt"
	"io"

	"github.com/s0up4200/zcrm/crm"
	"github.com/s0up4200/zcrm/output"
)

// renderRecords writes records in the configured output format
func renderRecords(w io.Writer, collection string, records []crm.Record) error {
	if cfg.Output.Format == "json" {
		return output.WriteJSON(w, projectFields(records, cfg.Output.Fields), jqQuery)
	}

	_, err := fmt.Fprint(w, formatter.FormatRecords(collection, records, output.FormatOptions{
		Fields: cfg.Output.Fields,
	}))
	return err
}

// projectFields keeps only the selected fields of each record
func projectFields(records []crm.Record, fields []string) []crm.Record {
	if len(fields) == 0 {
		return records
	}

	out := make([]crm.Record, len(records))
	for i, record := range records {
		projected := make(crm.Record, len(fields))
		for _, name := range fields {
			if value, ok := record[name]; ok {
				projected[name] = value
			}
		}
		out[i] = projected
	}
	return out
}
