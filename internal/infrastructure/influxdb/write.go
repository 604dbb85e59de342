package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePress records one physical button press.
//
// The write is non-blocking; points are batched and sent asynchronously.
//
// Parameters:
//   - serial: Device serial number
//   - key: Physical key index that was pressed
func (c *Client) WritePress(serial string, key int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"button_press",
		map[string]string{
			"serial": serial,
		},
		map[string]interface{}{
			"key":   key,
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteTick records one render-loop tick: its duration and how many
// hardware writes it performed. Useful for spotting devices whose
// frame budget is being blown.
//
// Parameters:
//   - serial: Device serial number
//   - took: Wall-clock duration of the tick
//   - writes: Number of key images pushed to hardware this tick
func (c *Client) WriteTick(serial string, took time.Duration, writes int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"render_tick",
		map[string]string{
			"serial": serial,
		},
		map[string]interface{}{
			"duration_us": took.Microseconds(),
			"writes":      writes,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., replayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
