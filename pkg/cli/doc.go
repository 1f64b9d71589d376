// Package cli provides the command-line interface for idmctl.
//
// Commands:
//   - get: Fetch one or more resources by href, optionally selecting a JSONPath
//   - list: Print a page of a collection, or every page with --all, with an
//     optional boolean filter over item fields
//   - config show: Display the effective configuration and where each value came from
//   - version: Show idmctl version
//   - completion: Generate shell completion scripts (provided by cobra)
//
// Every command that talks to the service resolves configuration the same
// way: defaults, the global and local config files, --config or IDM_CONFIG,
// IDM_* environment variables, then flags.
//
// Usage:
//
//	idmctl get tenants/current
//	idmctl get accounts/a1 accounts/a2 --path '$.email' -o json
//	idmctl list directories/d1/accounts --all --filter 'status == "ENABLED"'
//	idmctl config show -o yaml
package cli
