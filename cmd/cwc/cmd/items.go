package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apiclient "github.com/catalogwatch/collector/internal/api/client"
)

func itemsCmd() *cobra.Command {
	itemsRoot := &cobra.Command{
		Use:   "items",
		Short: "Query tracked items",
		Long: "Query and inspect catalog items whose price history is being\n" +
			"collected.",
	}

	itemsRoot.AddCommand(
		itemsListCmd(),
		itemsGetCmd(),
	)

	return itemsRoot
}

func itemsListCmd() *cobra.Command {
	var (
		collection string
		prefix     string
		limit      int
		offset     int
		orderBy    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked items with optional filters",
		Long: "List tracked catalog items with optional filters for collection,\n" +
			"name prefix, and sorting.",
		Example: `  # List all tracked items
  cwc items list

  # Filter by collection and name prefix
  cwc items list --collection 730 --prefix "AK-47"

  # Sort by item name with pagination
  cwc items list --order-by item_name --limit 20 --offset 40`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			resp, err := c.ListItems(context.Background(), &apiclient.ListItemsParams{
				Collection: collection,
				Prefix:     prefix,
				Limit:      limit,
				Offset:     offset,
				OrderBy:    orderBy,
			})
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if len(resp.Items) == 0 {
				fmt.Println("No items found.")
				return nil
			}

			fmt.Printf("Showing %d of %d items\n\n", len(resp.Items), resp.Total)
			return printItemsTable(resp.Items)
		},
	}
	cmd.Flags().StringVar(&collection, "collection", "", "collection filter")
	cmd.Flags().StringVar(&prefix, "prefix", "", "item name prefix filter")
	cmd.Flags().IntVar(&limit, "limit", 50, "number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "result offset")
	cmd.Flags().
		StringVar(&orderBy, "order-by", "", "sort order (last_updated, item_name)")

	return cmd
}

func itemsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <collection> <name>",
		Short:   "Show item details",
		Example: `  cwc items get 730 "AK-47 | Redline (Field-Tested)"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			item, err := c.GetItem(context.Background(), args[0], args[1])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(item)
			}

			return printItemDetail(item)
		},
	}
}
