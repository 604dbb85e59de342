// Package database provides the SQLite connection and migration runner
// for Keydeck Core.
//
// The database holds per-device configuration only: saved brightness,
// serialised root layouts, and named image blobs. Nothing in the render
// path touches the database; device configuration is read once at connect
// time and written back only on an explicit commit.
//
// Migrations are embedded .sql files registered by the migrations package
// and applied in version order, each in its own transaction.
package database
