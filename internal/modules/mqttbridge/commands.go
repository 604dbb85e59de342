package mqttbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/keydeck-core/internal/device"
	"github.com/nerrad567/keydeck-core/internal/render"
	"github.com/nerrad567/keydeck-core/internal/screen"
)

// Command operations accepted on keydeck/device/{serial}/command/{op}.
const (
	opSetBrightness   = "set_brightness"
	opPushScreen      = "push_screen"
	opPopScreen       = "pop_screen"
	opReplaceScreen   = "replace_screen"
	opResetScreen     = "reset_screen"
	opSetComponent    = "set_component"
	opRemoveComponent = "remove_component"
	opClearButton     = "clear_button"
	opButtonAction    = "button_action"
	opSetImage        = "set_image"
	opRefresh         = "refresh"
	opCommit          = "commit"
)

type brightnessCommand struct {
	Percent int `json:"percent"`
}

type panelCommand struct {
	Panel screen.RawPanel `json:"panel"`
}

type componentCommand struct {
	Key     int             `json:"key"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type keyCommand struct {
	Key int `json:"key"`
}

type imageCommand struct {
	Image render.ImageData `json:"image"`
}

// applyCommand decodes and executes one operation against a core.
// Every mutation carries ModuleName as origin so registry fan-out does
// not echo it back at the bridge.
func (b *Bridge) applyCommand(core *device.Core, op string, payload []byte) error {
	switch op {
	case opSetBrightness:
		var cmd brightnessCommand
		if err := decode(payload, &cmd); err != nil {
			return err
		}
		return core.SetBrightness(cmd.Percent)

	case opPushScreen:
		var cmd panelCommand
		if err := decode(payload, &cmd); err != nil {
			return err
		}
		return core.PushScreen(screen.FromRaw(cmd.Panel), ModuleName)

	case opPopScreen:
		_, err := core.PopScreen(ModuleName)
		return err

	case opReplaceScreen:
		var cmd panelCommand
		if err := decode(payload, &cmd); err != nil {
			return err
		}
		_, err := core.ReplaceScreen(screen.FromRaw(cmd.Panel), ModuleName)
		return err

	case opResetScreen:
		var cmd panelCommand
		if err := decode(payload, &cmd); err != nil {
			return err
		}
		return core.ResetScreen(screen.FromRaw(cmd.Panel), ModuleName)

	case opSetComponent:
		var cmd componentCommand
		if err := decode(payload, &cmd); err != nil {
			return err
		}
		if cmd.Name == "" {
			return fmt.Errorf("mqttbridge: set_component needs a component name")
		}
		return core.SetComponent(cmd.Key, cmd.Name, cmd.Payload, ModuleName)

	case opRemoveComponent:
		var cmd componentCommand
		if err := decode(payload, &cmd); err != nil {
			return err
		}
		return core.RemoveComponent(cmd.Key, cmd.Name, ModuleName)

	case opClearButton:
		var cmd keyCommand
		if err := decode(payload, &cmd); err != nil {
			return err
		}
		return core.ClearButton(cmd.Key)

	case opButtonAction:
		var cmd keyCommand
		if err := decode(payload, &cmd); err != nil {
			return err
		}
		return core.DoButtonAction(cmd.Key, ModuleName)

	case opSetImage:
		var cmd imageCommand
		if err := decode(payload, &cmd); err != nil {
			return err
		}
		return core.SetImage(&cmd.Image)

	case opRefresh:
		core.Refresh()
		return nil

	case opCommit:
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		return core.Commit(ctx)

	default:
		return fmt.Errorf("mqttbridge: unknown operation %q", op)
	}
}

func decode(payload []byte, into any) error {
	if len(payload) == 0 {
		return fmt.Errorf("mqttbridge: empty command payload")
	}
	if err := json.Unmarshal(payload, into); err != nil {
		return fmt.Errorf("mqttbridge: decoding command: %w", err)
	}
	return nil
}
