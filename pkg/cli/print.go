package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/getmockd/idmclient/pkg/cli/internal/output"
	"github.com/getmockd/idmclient/pkg/resource"
)

// outputFormat resolves -o against the global --json flag.
func outputFormat(flagValue string) (output.Format, error) {
	if jsonOutput {
		return output.FormatJSON, nil
	}
	return output.ParseFormat(flagValue)
}

// write prints v in format. Table output is handled by the callers.
func write(w io.Writer, format output.Format, v any) error {
	if format == output.FormatYAML {
		return output.YAML(w, v)
	}
	return output.JSON(w, v)
}

// cell renders a property value for a table cell. Links print as their href.
func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case map[string]any:
		if ref, ok := resource.AsReference(t); ok {
			return ref.Href
		}
		return fmt.Sprintf("{%d fields}", len(t))
	case []any:
		return fmt.Sprintf("[%d items]", len(t))
	default:
		return fmt.Sprint(t)
	}
}

// printProperties writes one resource as a two-column table.
func printProperties(w io.Writer, props map[string]any) error {
	tw := output.Table(w)
	fmt.Fprintln(tw, "PROPERTY\tVALUE")
	if href, ok := props[resource.HrefProperty]; ok {
		fmt.Fprintf(tw, "%s\t%s\n", resource.HrefProperty, cell(href))
	}
	for _, k := range slices.Sorted(maps.Keys(props)) {
		if k == resource.HrefProperty {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", k, cell(props[k]))
	}
	return tw.Flush()
}

// tableColumns picks href first, then the sorted scalar fields that any
// item carries.
func tableColumns(items []map[string]any) []string {
	seen := map[string]bool{}
	for _, item := range items {
		for k, v := range item {
			if k == resource.HrefProperty {
				continue
			}
			switch v.(type) {
			case map[string]any, []any:
				continue
			}
			seen[k] = true
		}
	}
	return append([]string{resource.HrefProperty}, slices.Sorted(maps.Keys(seen))...)
}

// printItems writes one row per item.
func printItems(w io.Writer, items []map[string]any, columns []string) error {
	if len(columns) == 0 {
		columns = tableColumns(items)
	}
	tw := output.Table(w)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = strings.ToUpper(c)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, item := range items {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = cell(item[c])
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
