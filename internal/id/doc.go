// Package id provides identifier generation for the fake identity service.
//
//   - New: 22-character base62 IDs, the last path segment of every item href
//   - Valid: shape check for IDs from New
//   - Alphanumeric: configurable-length random strings, used for tokens
//
// All randomness comes from crypto/rand, directly or through google/uuid.
package id
