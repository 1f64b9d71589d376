// Package identity provides the typed resources of the identity API:
// tenants, applications, directories, accounts, groups and the links
// between them.
//
// Every type embeds *resource.Base, so getters load the resource lazily and
// setters only change local state until Save (or a parent's Create method)
// sends it to the service. References to other resources resolve on demand:
//
//	acct := identity.NewAccount(ds, map[string]any{"href": "accounts/123"})
//	dir, err := acct.Directory(ctx) // fetches accounts/123, returns an href-only directory
//	name, err := dir.Name(ctx)      // fetches the directory
//
// New is the factory a DataStore uses to turn a kind and a property map into
// the matching Go type.
package identity
