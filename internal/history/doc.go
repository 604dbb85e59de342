// Package history records device telemetry into a time-series store.
//
// The Recorder satisfies device.Observer and turns button presses and
// render-loop timings into InfluxDB points. It is entirely optional:
// when history is disabled the device manager keeps its default no-op
// observer and this package stays out of the hot path.
package history
