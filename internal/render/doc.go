// Package render holds the visual half of the core: the renderer
// component shape, animated image data, the structural render hash, the
// TTL render cache, per-image animation counters, and the compositing
// pipeline that turns all of it into device-ready pixel buffers.
//
// Everything here is pure with respect to devices: the device package
// decides what to render and when; this package only computes images
// and cache keys from values it is handed.
package render
