package cmd

import (

	"github.com/spf13/cobra"
)

// relatedCmd represents the related command
var relatedCmd = &cobra.Command{
	Use:     "related <parent-collection> <id> <related-collection>",
	Short:   "List records related to a parent record",
	Example: `  zcrm related Accounts 1234567000000123001 Contacts`,
	Args:    cobra.ExactArgs(3),
	PreRunE: initializeClient,
	RunE:    runRelated,
}

func runRelated(cmd *cobra.Command, args []string) error {
	parent, id, related := args[0], args[1], args[2]
	checkCollection(parent)
	checkCollection(related)

	records, err := client.FetchRelated(cmd.Context(), parent, id, related)
	if err != nil {
		return err
	}

	return renderRecords(cmd.OutOrStdout(), related, records)
}
