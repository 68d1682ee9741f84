package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/zcrm/crm"
)

var getConcurrency int

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <collection> <id>...",
	Short: "Fetch records by id",
	Long: `Fetch one or more records of a collection by their ids.

Several ids are fetched concurrently; records are printed in the order the ids were given.
Ids without a record are reported and skipped.`,
	Example: `  zcrm get Contacts 1234567000000123001
  zcrm get Leads 1001 1002 1003 --concurrency 2 -o json`,
	Args:    cobra.MinimumNArgs(2),
	PreRunE: initializeClient,
	RunE:    runGet,
}

func init() {
	getCmd.Flags().IntVarP(&getConcurrency, "concurrency", "c", 4, "maximum number of concurrent requests")
}

func runGet(cmd *cobra.Command, args []string) error {
	collection, ids := args[0], args[1:]
	checkCollection(collection)

	records, err := fetchRecords(cmd.Context(), client, collection, ids, getConcurrency)
	if err != nil {
		return err
	}

	found := make([]crm.Record, 0, len(records))
	for i, record := range records {
		if len(record) == 0 {
			logger.Warn().Str("collection", collection).Str("id", ids[i]).Msg("Record not found")
			continue
		}
		found = append(found, record)
	}

	return renderRecords(cmd.OutOrStdout(), collection, found)
}

// fetchRecords fetches every id with at most concurrency requests in flight.
// The result is index-aligned with ids; missing records are empty.
func fetchRecords(ctx context.Context, api crm.API, collection string, ids []string, concurrency int) ([]crm.Record, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if concurrency < 1 {
		concurrency = 1
	}

	records := make([]crm.Record, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, id := range ids {
		g.Go(func() error {
			record, err := api.FetchByID(ctx, collection, id)
			if err != nil {
				return err
			}
			records[i] = record
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	return records, nil
}
