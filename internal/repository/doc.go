// Package repository defines the data access interfaces for vlanislands.
//
// Analysis runs are the only persisted entity: the summary counters of one
// detection pass plus its full report, keyed by a generated id. Topology
// documents themselves are never stored; a run keeps only the digest of
// the input it analysed.
//
// # SQLite Implementation
//
// The sqlite subpackage implements RunRepository on the pure-Go
// modernc.org/sqlite driver with WAL journaling and a single writer
// connection. The report is kept as a JSON column and decoded on read.
// The schema is created on startup and columns are added in place as it
// evolves.
package repository
