// Package batch provides helpers for tools that act on several mailbox
// items in one call.
//
// This package includes helpers for:
//   - Parsing parameters that accept a single id, a comma separated list or an array
//   - Splitting large batches so each session holds a bounded number of handles
//   - Reporting partial failures with one result and error code per item
package batch
