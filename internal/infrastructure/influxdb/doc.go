// Package influxdb provides InfluxDB connectivity for Keydeck Core.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes, and health monitoring.
//
// # Purpose
//
// This package handles time-series history for:
//   - Button press events per device and key
//   - Render-loop tick timings and hardware write counts
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WritePress("AB12CD34", 3)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes; batch
// errors surface via the SetOnError callback.
//
// The server is optional: when influxdb.enabled is false the daemon
// records no history and this package is never touched.
package influxdb
