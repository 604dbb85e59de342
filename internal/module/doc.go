// Package module defines the plugin capability surface and the registry
// that routes lifecycle events and paint requests to modules.
//
// A module declares the component names it owns at registration; the
// registry builds a component-to-owner index once, so event fan-out and
// painter selection are map lookups rather than module scans. Modules
// interact with devices only through the capability handles the device
// package hands them, never through direct access to panels or drivers.
package module
