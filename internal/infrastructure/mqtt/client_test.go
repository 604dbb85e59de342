package mqtt

import (
	"errors"
	"strings"
	"testing"

	"github.com/nerrad567/keydeck-core/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "keydeck-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		got  string
		want string
	}{
		{topics.SystemStatus(), "keydeck/system/status"},
		{topics.DeviceEvent("AB12", "button_up"), "keydeck/device/AB12/event/button_up"},
		{topics.DeviceState("AB12"), "keydeck/device/AB12/state"},
		{topics.DeviceCommand("AB12", "set_brightness"), "keydeck/device/AB12/command/set_brightness"},
		{topics.AllDeviceCommands(), "keydeck/device/+/command/#"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("topic = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 {
		t.Fatalf("servers = %d, want 1", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://127.0.0.1:1883" {
		t.Errorf("broker URL = %q", got)
	}
	if opts.ClientID != "keydeck-test" {
		t.Errorf("client id = %q", opts.ClientID)
	}

	cfg.Broker.TLS = true
	opts = buildClientOptions(cfg)
	if got := opts.Servers[0].Scheme; got != "ssl" {
		t.Errorf("TLS scheme = %q, want ssl", got)
	}
}

func TestPublishValidation(t *testing.T) {
	c := &Client{cfg: testConfig()}

	if err := c.Publish("", []byte(`{}`), 1, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic: err = %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("keydeck/x", []byte(`{}`), 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("bad qos: err = %v, want ErrInvalidQoS", err)
	}
	huge := make([]byte, maxPayloadSize+1)
	if err := c.Publish("keydeck/x", huge, 1, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("oversized payload: err = %v, want ErrPublishFailed", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := &Client{cfg: testConfig(), subscriptions: make(map[string]subscription)}

	if err := c.Subscribe("", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic: err = %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("keydeck/x", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler: err = %v, want ErrSubscribeFailed", err)
	}
}

func TestLWTPayloadShape(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, "keydeck-test")

	if opts.WillTopic != "keydeck/system/status" {
		t.Errorf("will topic = %q", opts.WillTopic)
	}
	payload := string(opts.WillPayload)
	for _, want := range []string{`"status":"offline"`, `"client_id":"keydeck-test"`, `"reason":"unexpected_disconnect"`} {
		if !strings.Contains(payload, want) {
			t.Errorf("will payload missing %s: %s", want, payload)
		}
	}
}

func TestSubscriptionTracking(t *testing.T) {
	c := &Client{cfg: testConfig(), subscriptions: make(map[string]subscription)}

	// direct tracking check without a broker
	c.subscriptions["keydeck/device/+/command/#"] = subscription{}
	if c.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount = %d, want 1", c.SubscriptionCount())
	}
	if !c.HasSubscription("keydeck/device/+/command/#") {
		t.Error("HasSubscription should find the tracked topic")
	}
	if c.HasSubscription("other") {
		t.Error("HasSubscription should miss untracked topics")
	}
}
