// Package core provides the business logic of the IDF portal.
//
// It holds no transport concerns and can be driven by the HTTP handlers,
// the idfctl CLI, or tests without modification.
//
// # Architecture
//
//   - Service: the entry point for every operation (IDF records, table
//     editing, assets, devices, QR codes, users).
//   - Store: the persistence boundary. internal/store/postgres implements it.
//   - Catalog: the immutable cluster/project set from internal/config. Every
//     request resolves its project path segment through it.
//   - Asset kinds: registered at init time in the asset registry; each kind
//     knows which IDF field it fills and whether it accepts many files.
//
// # Table Editing
//
// Table edits are applied with the pure functions of internal/table inside
// [Store.MutateIDF], which holds a row lock for the duration of the edit.
// Concurrent editors of the same IDF are serialized by the database; the
// last committed edit wins.
//
// # Error Handling
//
// Operations return sentinel errors ([ErrIDFNotFound], [ErrTooManyUploads],
// table.ErrIndexOutOfRange, ...) wrapped with context. [MapError] turns any
// of them into a [UserMessage] with a support code and [HTTPStatus] picks
// the response status:
//
//   - TBL001-TBL005: table editing
//   - CSV001-CSV002: device CSV import
//   - IDF001-IDF005: IDF lookup and input validation
//   - AST001-AST002: asset uploads
//   - AUTH001-AUTH004: authentication and users
//   - UPL002-UPL006: upload capacity, size and request lifetime
//   - DB004-DB007: database connectivity
package core
