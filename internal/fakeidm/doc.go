// Package fakeidm is an in-memory identity service for tests and local use.
//
// It serves the same document shapes as the real service: every item carries
// its href and {"href": ...} links to related items and collections, and
// collections are pages of {href, offset, limit, items}. Supported writes:
//
//   - POST to tenants/<id>/applications, tenants/<id>/directories (or the bare
//     applications and directories paths) creates an item in the tenant
//   - POST to directories/<id>/accounts and directories/<id>/groups creates an
//     account or group; ?registrationWorkflowEnabled=true leaves a new account
//     UNVERIFIED with an emailVerificationToken link
//   - POST to groupMemberships with account and group links adds a membership
//   - POST to applications/<id>/passwordResetTokens with an email issues a token
//   - POST to accounts/emailVerificationTokens/<token> verifies an account
//   - POST to an item's href merges the body into it; DELETE removes it
//
// Usage:
//
//	srv := httptest.NewServer(fakeidm.New())
//	defer srv.Close()
package fakeidm
