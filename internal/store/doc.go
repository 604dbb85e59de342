// Package store persists device configuration (brightness, root panel
// layout, named image blobs) in SQLite.
//
// The repository implements device.ConfigSource: configuration is read
// once at connect time and written back only on explicit commit.
// Layouts and image frames are stored as JSON columns; nothing in the
// schema knows component shapes.
package store
