// Package mqttbridge mirrors device activity onto MQTT and applies
// remote commands arriving there.
//
// Outbound, it publishes button and panel lifecycle plus raw input as
// events under keydeck/device/{serial}/event/..., and keeps a retained
// state document per device. Inbound, it subscribes to the command
// hierarchy and translates each message into a call on the matching
// device core.
//
// The bridge registers as an ordinary module for lifecycle fan-out.
// Input events route only to component owners, which the bridge is
// not, so it additionally wraps the device input path: wire it as the
// manager's InputSink and it publishes each transition before handing
// the event to the registry.
package mqttbridge

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/keydeck-core/internal/device"
	"github.com/nerrad567/keydeck-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/keydeck-core/internal/module"
)

// ModuleName identifies the bridge in registry dispatch and as the
// origin of every mutation it applies.
const ModuleName = "mqtt_bridge"

const (
	eventQoS   byte = 0
	commandQoS byte = 1

	commitTimeout = 5 * time.Second
)

// Publisher is the slice of the MQTT client the bridge uses.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Devices resolves serials to live capability handles. *device.Manager
// satisfies this.
type Devices interface {
	Get(serial string) (*device.Core, error)
	Serials() []string
}

// Logger defines the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Bridge connects the device layer to an MQTT broker.
type Bridge struct {
	pub      Publisher
	devices  Devices
	registry *module.Registry
	logger   Logger
	topics   mqtt.Topics
}

var _ module.Module = (*Bridge)(nil)
var _ device.InputSink = (*Bridge)(nil)

// New creates a bridge. Call Start to begin receiving commands.
func New(pub Publisher, devices Devices, registry *module.Registry, logger Logger) *Bridge {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Bridge{pub: pub, devices: devices, registry: registry, logger: logger}
}

// Start subscribes to the device command hierarchy.
func (b *Bridge) Start() error {
	topic := b.topics.AllDeviceCommands()
	if err := b.pub.Subscribe(topic, commandQoS, b.handleCommand); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	b.logger.Info("mqtt bridge listening", "topic", topic)
	return nil
}

func (b *Bridge) Name() string { return ModuleName }

// Components is empty: the bridge owns no button components.
func (b *Bridge) Components() []string { return nil }

// HandleEvent publishes lifecycle events. Input events never arrive
// here (they route to component owners); those flow through HandleInput.
func (b *Bridge) HandleEvent(ev module.Event) {
	b.publishEvent(ev)
}

// HandleInput publishes the transition, then forwards it into the
// registry so owning modules see it as usual.
func (b *Bridge) HandleInput(ev module.Event) error {
	b.publishEvent(ev)
	b.registry.Dispatch(ev)
	return nil
}

// eventPayload is the wire shape of one published event.
type eventPayload struct {
	ID         string   `json:"id"`
	Timestamp  string   `json:"timestamp"`
	Serial     string   `json:"serial"`
	Event      string   `json:"event"`
	Key        *int     `json:"key,omitempty"`
	Panel      string   `json:"panel,omitempty"`
	Components []string `json:"components,omitempty"`
	Origin     string   `json:"origin,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func (b *Bridge) publishEvent(ev module.Event) {
	p := eventPayload{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Serial:    ev.Serial,
		Event:     string(ev.Type),
		Origin:    ev.Origin,
	}
	if ev.Button != nil {
		key := ev.Key
		p.Key = &key
		p.Components = ev.Button.Names()
	}
	if ev.Panel != nil {
		p.Panel = ev.Panel.Name()
	}

	payload, err := json.Marshal(p)
	if err != nil {
		b.logger.Error("marshalling event", "error", err)
		return
	}
	topic := b.topics.DeviceEvent(ev.Serial, string(ev.Type))
	if err := b.pub.Publish(topic, payload, eventQoS, false); err != nil {
		b.logger.Warn("publishing event failed", "topic", topic, "error", err)
	}
}

// statePayload is the retained per-device state document.
type statePayload struct {
	Serial     string `json:"serial"`
	Brightness int    `json:"brightness"`
	Panel      string `json:"panel,omitempty"`
	Buttons    int    `json:"buttons"`
}

// PublishState publishes the retained state document for one device.
func (b *Bridge) PublishState(core *device.Core) {
	state := statePayload{
		Serial:     core.Serial(),
		Brightness: core.Brightness(),
	}
	if top, ok := core.Top(); ok {
		state.Panel = top.Name()
		state.Buttons = top.Len()
	}

	payload, err := json.Marshal(state)
	if err != nil {
		b.logger.Error("marshalling state", "error", err)
		return
	}
	topic := b.topics.DeviceState(core.Serial())
	if err := b.pub.Publish(topic, payload, commandQoS, true); err != nil {
		b.logger.Warn("publishing state failed", "topic", topic, "error", err)
	}
}

// handleCommand applies one inbound command message. Failures are
// answered on the device's command_error event topic rather than
// silently dropped.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	serial, op, err := splitCommandTopic(topic)
	if err != nil {
		b.logger.Warn("malformed command topic", "topic", topic)
		return err
	}

	core, err := b.devices.Get(serial)
	if err != nil {
		b.publishCommandError(serial, op, err)
		return err
	}

	if err := b.applyCommand(core, op, payload); err != nil {
		b.publishCommandError(serial, op, err)
		return err
	}

	b.PublishState(core)
	return nil
}

// splitCommandTopic extracts serial and operation from
// keydeck/device/{serial}/command/{operation}.
func splitCommandTopic(topic string) (serial, op string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 5 || parts[0]+"/"+parts[1] != mqtt.TopicPrefixDevice || parts[3] != "command" {
		return "", "", fmt.Errorf("mqttbridge: not a command topic: %s", topic)
	}
	return parts[2], strings.Join(parts[4:], "/"), nil
}

func (b *Bridge) publishCommandError(serial, op string, cause error) {
	b.logger.Warn("command failed", "serial", serial, "operation", op, "error", cause)

	payload, err := json.Marshal(eventPayload{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Serial:    serial,
		Event:     "command_error",
		Origin:    op,
		Error:     cause.Error(),
	})
	if err != nil {
		return
	}
	topic := b.topics.DeviceEvent(serial, "command_error")
	if err := b.pub.Publish(topic, payload, eventQoS, false); err != nil {
		b.logger.Warn("publishing command error failed", "topic", topic, "error", err)
	}
}
