package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/zcrm/crm"
	"github.com/s0up4200/zcrm/filter"
)

var (
	filterExpr string
	preset     string
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <collection> <criteria>",
	Short: "Search records with a criteria expression",
	Long: `Search a collection with the API's criteria syntax, e.g. "(Email:hey@whoa.com)".

The results can be narrowed further on the client with an expr filter:

  Fields["Last Name"] == "Smith"
  has("Phone") && number("Annual Revenue") > 100000
  date("Created Time") > daysAgo(30)`,
	Example: `  zcrm search Contacts "(Email:hey@whoa.com)"
  zcrm search Leads "(Lead Source:Web)" --filter 'contains(lower(field("Company")), "inc")'
  zcrm search Deals "(Stage:Closed Won)" --preset recent`,
	Args:    cobra.ExactArgs(2),
	PreRunE: initializeClient,
	RunE:    runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "client-side filter expression")
	searchCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
}

func runSearch(cmd *cobra.Command, args []string) error {
	collection, criteria := args[0], args[1]
	checkCollection(collection)

	compiled, err := resolveFilter()
	if err != nil {
		return err
	}

	logger.Info().Str("collection", collection).Str("criteria", criteria).Msg("Searching records")

	records, err := client.Search(cmd.Context(), collection, criteria)
	if err != nil {
		return err
	}

	records, err = applyFilter(cmd.Context(), compiled, records)
	if err != nil {
		return err
	}

	return renderRecords(cmd.OutOrStdout(), collection, records)
}

// resolveFilter determines the filter to apply; nil means no filtering
func resolveFilter() (filter.CompiledFilter, error) {
	// Priority: command line filter > preset
	if filterExpr != "" {
		compiled, err := filter.CompileFilter(filterExpr)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression: %w", err)
		}
		return compiled, nil
	}

	if preset == "" {
		return nil, nil
	}

	presets := filter.NewManager()
	if err := presets.RegisterFilters(cfg.Filter.Presets); err != nil {
		return nil, err
	}
	compiled, ok := presets.GetFilter(preset)
	if !ok {
		available := presets.ListFilters()
		if len(available) == 0 {
			return nil, fmt.Errorf("preset '%s' not found in config", preset)
		}
		return nil, fmt.Errorf("preset '%s' not found in config (available: %s)", preset, strings.Join(available, ", "))
	}
	return compiled, nil
}

// applyFilter keeps the records matching compiled; a nil filter keeps all
func applyFilter(ctx context.Context, compiled filter.CompiledFilter, records []crm.Record) ([]crm.Record, error) {
	if compiled == nil {
		return records, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	matched, err := filter.NewConcurrentEvaluator().Evaluate(ctx, compiled, records)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("filter", compiled.Expression()).
		Int("total", len(records)).
		Int("matched", len(matched)).
		Msg("Applied record filter")

	return matched, nil
}
