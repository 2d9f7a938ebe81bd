// Package storage provides durable result stores for accepted links.
//
// Every store is append-only: links are written once, in discovery order,
// and read back per run for exporting. Three backends are available:
//   - sqlite: a local file (default), via modernc.org/sqlite and sqlx
//   - postgres: a shared database, via pgx
//   - memory: process-local, for tests and one-off runs
package storage
