// Package logging provides the structured logger used across Keydeck Core.
//
// It wraps log/slog with configuration-driven level, format and output
// selection, plus default service/version attributes. Packages that need
// logging accept a narrow Logger interface locally and default to a no-op
// implementation, so they never depend on this package directly.
package logging
