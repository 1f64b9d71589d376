// Package datastore is the HTTP DataStore of the identity client.
//
// A Client fetches resources by href, builds them through identity.New and
// hands every resource a reference back to itself, so reading a property of
// a reference-only resource loads it on demand:
//
//	client := datastore.New("https://idm.example.com/v1",
//	    datastore.WithAPIKey(id, secret),
//	    datastore.WithCache(512, time.Minute),
//	)
//	tenant, err := client.CurrentTenant(ctx)
//	dirs, err := tenant.Directories(ctx)
//	for dir, err := range dirs.All(ctx) {
//	    ...
//	}
//
// Error responses are returned as *ResourceError; a 404 also matches
// ErrNotFound with errors.Is.
package datastore
