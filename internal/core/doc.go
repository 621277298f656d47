// Package core provides the business logic for bulk listing ingestion.
//
// It has no UI or transport dependencies and is shared by the web server,
// the listingctl CLI and tests.
//
// # Pipeline
//
//  1. [ParseListings] reads a tab-delimited file, maps header labels to the
//     [Schema], validates every row on its raw text with [RowValidator] and
//     partitions rows into accepted [ListingRow] values and [RowFailure]s.
//  2. [Submitter.Submit] sends each accepted row to the business API via
//     [ToBusinessRecord] on a bounded worker pool and returns an
//     [UploadOutcome]. One failed row never stops the rest.
//  3. [Service] wraps both in a batch lifecycle: a [BatchLimiter] slot,
//     progress broadcast to subscribers, cancellation, an optional source
//     [Archiver] and a [HistoryStore] record once finished.
//
// # Errors
//
// Row problems are collected, never returned. A file that cannot be parsed
// yields a [*ParseError]; per-row API failures are [*SubmissionError]s.
// [MapError] turns any of them into a coded [UserMessage], and [Summarize]
// caps long message lists for display.
package core
