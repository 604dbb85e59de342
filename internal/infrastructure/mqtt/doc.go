// Package mqtt wraps paho.mqtt.golang for the Keydeck daemon.
//
// The wrapper adds what the raw client leaves to callers: tracked
// subscriptions restored on reconnect, Last Will and Testament on the
// system status topic, panic-recovering message handlers, and topic
// builders for the keydeck/... hierarchy.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{}
//	client.Subscribe(topics.AllDeviceCommands(), 1, handleCommand)
//	client.Publish(topics.DeviceEvent(serial, "button_up"), payload, 1, false)
//
// The broker is optional: when mqtt.enabled is false in configuration
// the daemon runs fully offline and this package is never touched.
package mqtt
