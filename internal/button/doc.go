// Package button implements the component store at the heart of the
// Keydeck data model.
//
// A button is an unordered set of named components. Each component is an
// opaque, independently serialisable payload owned by exactly one module;
// the core stores bytes and never a closed union of known kinds, so
// third-party modules can attach state the core has never heard of.
//
// Buttons exist in two forms: the self-contained Raw form (persisted,
// exported) and the live *Button handle (shared between the stack, copy
// buffers and virtual-folder caches, with interior locking). Conversion is
// deep-copy one way and deep-wrap the other.
//
// Typed access goes through Get/Set, which round-trip payloads against a
// requested shape. A mismatch is a quiet miss, not a failure.
package button
