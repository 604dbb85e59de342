package mqtt

import "fmt"

// Topic prefixes for the Keydeck MQTT surface.
//
// Device topics follow: keydeck/device/{serial}/{category}[/{detail}]
const (
	// TopicPrefix is the base for all Keydeck topics.
	TopicPrefix = "keydeck"

	// TopicPrefixDevice is the base for per-device topics.
	TopicPrefixDevice = "keydeck/device"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "keydeck/system"
)

// Topics provides builders for Keydeck MQTT topics. Using these
// helpers keeps topic naming consistent across publisher and
// subscriber code.
//
//	topics := mqtt.Topics{}
//	eventTopic := topics.DeviceEvent("AB12CD34", "button_up")
//	// Returns: "keydeck/device/AB12CD34/event/button_up"
type Topics struct{}

// SystemStatus returns the daemon online/offline status topic. Also
// used as the LWT topic.
//
// Example: keydeck/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// DeviceEvent returns the topic for one device's lifecycle and input
// events.
//
// Example: keydeck/device/AB12CD34/event/button_up
func (Topics) DeviceEvent(serial, event string) string {
	return fmt.Sprintf("%s/%s/event/%s", TopicPrefixDevice, serial, event)
}

// DeviceState returns the retained per-device state topic (brightness,
// visible panel, stack depth).
//
// Example: keydeck/device/AB12CD34/state
func (Topics) DeviceState(serial string) string {
	return fmt.Sprintf("%s/%s/state", TopicPrefixDevice, serial)
}

// DeviceCommand returns the topic commands for one device arrive on.
//
// Example: keydeck/device/AB12CD34/command/set_brightness
func (Topics) DeviceCommand(serial, operation string) string {
	return fmt.Sprintf("%s/%s/command/%s", TopicPrefixDevice, serial, operation)
}

// AllDeviceCommands returns the wildcard pattern matching every device
// command topic.
//
// Example: keydeck/device/+/command/#
func (Topics) AllDeviceCommands() string {
	return TopicPrefixDevice + "/+/command/#"
}
