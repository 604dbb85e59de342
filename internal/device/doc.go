// Package device owns the per-device runtime: the capability handle
// callers mutate state through, the single-goroutine render/input loop
// scheduling each device, and the connection manager that tracks and
// reconnects hardware.
//
// Each connected device gets exactly one Core and one running loop; no
// render state is shared across devices. Callers never touch the loop
// directly; mutations go through the Core, which emits lifecycle events
// to the module registry and nudges the loop over its command inbox.
package device
