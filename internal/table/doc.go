// Package table implements the editable device/fiber-allocation table that
// every IDF record may carry.
//
// A [Table] is an ordered list of typed [Column] definitions plus an ordered
// list of [Row] values. Rows are addressed by position only; callers must
// re-resolve indices after any mutation.
//
// # Mutation
//
// The functions [Create], [AddRow], [RemoveRow], [UpdateCell] and [Replace]
// form the single writer-facing surface. They never modify their input: each
// returns a new Table value, or an error and the zero Table. Nothing is
// partially applied.
//
// # Lenient writes
//
// Cell writes are intentionally untyped. Any string may be stored in any
// column, including number and date columns, because stored data already
// contains such values. Consumers (rendering, health aggregation, export)
// treat malformed values as non-matching instead of failing.
//
// # Health
//
// [Counts] scans every status-typed column and tallies the five canonical
// status kinds; [LevelOf] collapses the tally into a traffic light:
//
//	red     falla > 0
//	yellow  revision > 0
//	green   ok > 0
//	gray    otherwise
//
// The package has no I/O and no concurrency; a Table value is owned by a
// single editing session.
package table
