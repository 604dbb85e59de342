package device

import "image"

// commandType names the operations the loop accepts over its inbox.
type commandType string

const (
	cmdSetBrightness commandType = "set_brightness"
	cmdSetImage      commandType = "set_image"
	cmdClearKey      commandType = "clear_key"
	cmdRefresh       commandType = "refresh"
)

// command is one inbox entry. Producers are the Core's public methods;
// the sole consumer is the device loop, which drains the backlog at
// the top of every tick without ever blocking on it.
type command struct {
	typ        commandType
	key        int
	brightness int
	image      *image.RGBA
}
