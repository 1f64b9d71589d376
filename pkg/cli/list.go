package cli

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/spf13/cobra"

	"github.com/getmockd/idmclient/pkg/cli/internal/flags"
	"github.com/getmockd/idmclient/pkg/cli/internal/output"
	"github.com/getmockd/idmclient/pkg/identity"
	"github.com/getmockd/idmclient/pkg/resource"
)

const defaultListLimit = 25

var (
	listKind    string
	listOffset  int
	listLimit   int
	listAll     bool
	listFilter  string
	listColumns flags.StringSlice
	listOutput  string
)

var listCmd = &cobra.Command{
	Use:   "list <collection-href>",
	Short: "List the items of a collection",
	Long: `List the items of a collection resource such as directories/<id>/accounts.

Without --all only one page is printed: the one the service returns for the
href, or the window selected with --offset and --limit. With --all every
following page is fetched too.

--filter keeps the items for which a boolean expression over their fields
is true. Fields an item lacks evaluate to nil.`,
	Example: `  # First page of a directory's accounts
  idmctl list directories/2SKhstu8PlaekcaEXampLE/accounts

  # Every enabled account, three columns
  idmctl list directories/2SKhstu8PlaekcaEXampLE/accounts --all \
    --filter 'status == "ENABLED"' --column email --column status

  # Second page of ten, as JSON
  idmctl list applications --offset 10 --limit 10 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(listOutput)
		if err != nil {
			return err
		}
		if listOffset < 0 {
			return fmt.Errorf("--offset %d cannot be negative", listOffset)
		}
		if listLimit < 1 {
			return fmt.Errorf("--limit %d must be positive", listLimit)
		}

		href := args[0]
		if cmd.Flags().Changed("offset") || cmd.Flags().Changed("limit") {
			if href, err = resource.PageHref(href, listOffset, listLimit); err != nil {
				return err
			}
		}

		kinds, err := kindsFor([]string{args[0]}, listKind)
		if err != nil {
			return err
		}
		itemKind, err := identity.ItemKind(kinds[0])
		if err != nil {
			return err
		}

		var program *vm.Program
		if listFilter != "" {
			program, err = expr.Compile(listFilter, expr.AsBool(), expr.AllowUndefinedVariables())
			if err != nil {
				return fmt.Errorf("invalid --filter: %w", err)
			}
		}

		return withSession(cmd, func(s *session) error {
			coll := resource.NewCollection[resource.Resource](s.client, kinds[0], itemKind,
				map[string]any{resource.HrefProperty: href})
			items, err := collect(cmd, coll, program)
			if err != nil {
				return err
			}

			if format == output.FormatTable {
				for _, c := range missingColumns(items, listColumns) {
					output.Warn(cmd.ErrOrStderr(), "no listed item has a %q field", c)
				}
				return printItems(cmd.OutOrStdout(), items, listColumns)
			}
			return write(cmd.OutOrStdout(), format, items)
		})
	},
}

// collect reads the current page, or every page with --all, keeping the
// items program accepts.
func collect(cmd *cobra.Command, coll *resource.Collection[resource.Resource], program *vm.Program) ([]map[string]any, error) {
	ctx := cmd.Context()
	items := []map[string]any{}
	keep := func(r resource.Resource) error {
		props := output.Normalize(r.Properties()).(map[string]any)
		if program != nil {
			out, err := expr.Run(program, props)
			if err != nil {
				return fmt.Errorf("filter failed on %s: %w", r.Href(), err)
			}
			match, ok := out.(bool)
			if !ok {
				return fmt.Errorf("filter returned %T on %s, want bool", out, r.Href())
			}
			if !match {
				return nil
			}
		}
		items = append(items, props)
		return nil
	}

	if !listAll {
		if err := coll.Each(ctx, keep); err != nil {
			return nil, err
		}
		return items, nil
	}
	for r, err := range coll.All(ctx) {
		if err != nil {
			return nil, err
		}
		if err := keep(r); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// missingColumns returns the requested columns no item carries.
func missingColumns(items []map[string]any, columns []string) []string {
	var missing []string
	for _, c := range columns {
		found := false
		for _, item := range items {
			if _, ok := item[c]; ok {
				found = true
				break
			}
		}
		if !found && len(items) > 0 {
			missing = append(missing, c)
		}
	}
	return missing
}

func init() {
	listCmd.Flags().StringVarP(&listKind, "kind", "k", "", "List kind, e.g. accountList (default: inferred from the href)")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Index of the first item to fetch")
	listCmd.Flags().IntVar(&listLimit, "limit", defaultListLimit, "Page size to request")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Fetch every page")
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", `Keep items matching an expression, e.g. 'status == "ENABLED"'`)
	listCmd.Flags().Var(&listColumns, "column", "Table columns to print, repeatable or comma-separated (default: every scalar field)")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format: table, json or yaml")
	rootCmd.AddCommand(listCmd)
}
