package virtual

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/nerrad567/keydeck-core/internal/device"
)

func TestAvailableEnumeratesConfiguredCount(t *testing.T) {
	c := NewConnector(3, 15, image.Pt(72, 72))

	infos, err := c.Available()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 3 {
		t.Fatalf("available = %d, want 3", len(infos))
	}
	if infos[0].Serial != "VIRT-001" || infos[2].Serial != "VIRT-003" {
		t.Errorf("serials = %v", infos)
	}
}

func TestConnectAndWrite(t *testing.T) {
	c := NewConnector(1, 6, image.Pt(48, 48))

	drv, err := c.Connect(device.DeviceInfo{Serial: "VIRT-001"})
	if err != nil {
		t.Fatal(err)
	}
	if drv.KeyCount() != 6 || drv.ImageSize() != image.Pt(48, 48) {
		t.Errorf("geometry = %d keys, %v", drv.KeyCount(), drv.ImageSize())
	}

	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	encoded, err := drv.Encode(img)
	if err != nil {
		t.Fatal(err)
	}
	if err := drv.WriteKeyImage(2, encoded); err != nil {
		t.Fatal(err)
	}

	d, _ := c.Device("VIRT-001")
	if _, ok := d.KeyImage(2); !ok {
		t.Error("written image not retained")
	}
	if err := drv.WriteKeyImage(9, encoded); !errors.Is(err, device.ErrInvalidKey) {
		t.Errorf("out-of-range write: err = %v, want ErrInvalidKey", err)
	}
}

func TestReadTimesOutWithNoData(t *testing.T) {
	c := NewConnector(1, 4, image.Pt(72, 72))
	drv, _ := c.Connect(device.DeviceInfo{Serial: "VIRT-001"})

	if _, err := drv.ReadKeyStates(time.Millisecond); !errors.Is(err, device.ErrNoData) {
		t.Errorf("idle read: err = %v, want ErrNoData", err)
	}
}

func TestPressDeliversDownThenUp(t *testing.T) {
	c := NewConnector(1, 4, image.Pt(72, 72))
	drv, _ := c.Connect(device.DeviceInfo{Serial: "VIRT-001"})
	d, _ := c.Device("VIRT-001")

	d.Press(1)

	states, err := drv.ReadKeyStates(100 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if !states[1] {
		t.Fatal("first read should show key 1 down")
	}

	states, err = drv.ReadKeyStates(100 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if states[1] {
		t.Error("second read should show key 1 released")
	}
}

func TestCloseDisconnects(t *testing.T) {
	c := NewConnector(1, 4, image.Pt(72, 72))
	drv, _ := c.Connect(device.DeviceInfo{Serial: "VIRT-001"})

	if err := drv.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := drv.ReadKeyStates(time.Millisecond); !errors.Is(err, device.ErrDisconnected) {
		t.Errorf("read after close: err = %v, want ErrDisconnected", err)
	}
	if err := drv.SetBrightness(10); !errors.Is(err, device.ErrDisconnected) {
		t.Errorf("brightness after close: err = %v, want ErrDisconnected", err)
	}
}

func TestReconnectReplacesHandle(t *testing.T) {
	c := NewConnector(1, 4, image.Pt(72, 72))

	first, _ := c.Connect(device.DeviceInfo{Serial: "VIRT-001"})
	second, _ := c.Connect(device.DeviceInfo{Serial: "VIRT-001"})

	// the stale handle is force-closed by the reconnect
	if _, err := first.ReadKeyStates(time.Millisecond); !errors.Is(err, device.ErrDisconnected) {
		t.Errorf("stale handle read: err = %v, want ErrDisconnected", err)
	}
	if err := second.SetBrightness(40); err != nil {
		t.Errorf("fresh handle should accept writes: %v", err)
	}
}
