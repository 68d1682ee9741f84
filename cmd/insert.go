package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/s0up4200/zcrm/crm"
	"github.com/s0up4200/zcrm/output"
)

// recordInserter is implemented by clients that report the API's acknowledgement
type recordInserter interface {
	InsertRecords(ctx context.Context, collection string, records []crm.Record) (*crm.InsertResult, error)
}

var (
	insertFile string
	dryRun     bool
)

// insertCmd represents the insert command
var insertCmd = &cobra.Command{
	Use:   "insert <collection> --file records.yaml",
	Short: "Insert records into a collection",
	Long: `Insert records read from a YAML or JSON file (or stdin with --file -).

The file holds either a single mapping or a list of mappings of field name to value:

  - First Name: Jared
    Last Name: Larson
    Email: hey@whoa.com
  - Last Name: Smith`,
	Example: `  zcrm insert Contacts --file contacts.yaml
  echo '[{"Last Name":"Smith"}]' | zcrm insert Contacts --file - --dry-run`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if dryRun {
			return nil
		}
		return initializeClient(cmd, args)
	},
	RunE: runInsert,
}

func init() {
	insertCmd.Flags().StringVarP(&insertFile, "file", "F", "", "YAML or JSON file with records, - for stdin")
	insertCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "print the request instead of sending it")
	_ = insertCmd.MarkFlagRequired("file")
}

func runInsert(cmd *cobra.Command, args []string) error {
	collection := args[0]
	checkCollection(collection)

	records, err := readRecordsFile(insertFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	if dryRun {
		req, err := crm.InsertRequest(collection, records)
		if err != nil {
			return err
		}
		u, err := previewURL(req, false)
		if err != nil {
			return err
		}
		payload := req.Query[len("xmlData="):]
		fmt.Fprint(cmd.OutOrStdout(), formatter.FormatInsertPreview(collection, u, payload, len(records)))
		return nil
	}

	logger.Info().Str("collection", collection).Int("rows", len(records)).Msg("Inserting records")

	if ins, ok := client.(recordInserter); ok {
		result, err := ins.InsertRecords(cmd.Context(), collection, records)
		if err != nil {
			return err
		}
		return renderInsertResult(cmd.OutOrStdout(), collection, len(records), result)
	}

	if _, err := client.Insert(cmd.Context(), collection, records); err != nil {
		return err
	}
	return renderInsertResult(cmd.OutOrStdout(), collection, len(records), &crm.InsertResult{})
}

func renderInsertResult(w io.Writer, collection string, rows int, result *crm.InsertResult) error {
	if cfg.Output.Format == "json" {
		return output.WriteJSON(w, result, jqQuery)
	}

	fmt.Fprintf(w, "✓ Inserted %d row(s) into %s", rows, collection)
	if result.Message != "" {
		fmt.Fprintf(w, ": %s", result.Message)
	}
	fmt.Fprintln(w)
	if len(result.Details) > 0 {
		fmt.Fprint(w, formatter.FormatRecords("Created", result.Details, output.FormatOptions{}))
	}
	return nil
}

// readRecordsFile decodes a YAML or JSON document holding one record or a list of them
func readRecordsFile(path string, stdin io.Reader) ([]crm.Record, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	return parseRecords(data)
}

func parseRecords(data []byte) ([]crm.Record, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, fmt.Errorf("no records found")
	}

	var raw []map[string]any
	switch doc := node.Content[0]; doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse records: %w", err)
		}
	case yaml.MappingNode:
		var single map[string]any
		if err := doc.Decode(&single); err != nil {
			return nil, fmt.Errorf("failed to parse records: %w", err)
		}
		raw = append(raw, single)
	default:
		return nil, fmt.Errorf("records must be a mapping or a list of mappings")
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("no records found")
	}

	records := make([]crm.Record, len(raw))
	for i, fields := range raw {
		record := make(crm.Record, len(fields))
		for _, name := range sortedNames(fields) {
			value := fields[name]
			switch v := value.(type) {
			case nil:
				record[name] = ""
			case string:
				record[name] = v
			case map[string]any, []any:
				return nil, fmt.Errorf("record %d: field %q must be a scalar", i+1, name)
			default:
				record[name] = fmt.Sprint(v)
			}
		}
		records[i] = record
	}

	return records, nil
}

func sortedNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
