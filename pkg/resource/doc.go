// Package resource provides the lazy-loading core shared by every identity resource.
//
// A resource starts in one of three states:
//
//   - new: no href yet, built locally for creation. Reads never fetch.
//   - reference-only: only {href} is known. The first read of any other
//     property fetches the full representation through the DataStore.
//   - materialized: the full property set is present.
//
// Reading the href never fetches. Writes are always local; they mark the
// property set dirty until the next full replace (materialization, or a
// persist operation performed by the DataStore).
//
// # Thread Safety
//
// Every resource owns a PropertyStore guarded by a sync.RWMutex. Reads
// share the lock, writes and replaces are exclusive. Materialization fetches
// outside the lock, so concurrent first reads may each fetch; the last
// replace wins.
//
// # Collections
//
// Collection interprets offset, limit and items as one page of
// sub-resources:
//
//	accounts := identity.NewAccountList(ds, map[string]any{"href": "directories/d1/accounts"})
//	page, err := accounts.CurrentPage(ctx)
//	for _, a := range page.Items() {
//	    email, _ := a.Email(ctx)
//	    fmt.Println(email)
//	}
//
// Each covers the stored page only. All walks every page:
//
//	for a, err := range accounts.All(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	}
package resource
