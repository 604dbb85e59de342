package render

import (
	"encoding/binary"
	"hash/fnv"
	"strconv"
)

// HashKey computes the structural render hash for one key: a 64-bit
// FNV-1a digest over the renderer component, the active animation frame
// index, and every eligible module's paint stamp, in a fixed field
// order with explicit separators so field boundaries cannot collide.
//
// Identical inputs always produce identical hashes; any single field
// change produces a different hash. The digest keys the render cache
// and the per-key last-written table, so it must never equal the
// reserved clear sentinel used for unmapped keys.
func HashKey(c *Component, frameIndex int, stamps []string) uint64 {
	h := fnv.New64a()

	writeField := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0x1f})
	}

	writeField(string(c.Background.Type))
	writeField(c.Background.Color)
	writeField(c.Background.Start)
	writeField(c.Background.End)
	writeField(c.Background.Image)
	writeField(c.Background.Renderer)
	if c.Background.Data != nil {
		writeField(c.Background.Data.Name)
		writeField(strconv.Itoa(len(c.Background.Data.Frames)))
		for i := range c.Background.Data.Frames {
			f := &c.Background.Data.Frames[i]
			writeField(strconv.Itoa(f.Width))
			writeField(strconv.Itoa(f.Height))
			writeField(strconv.Itoa(f.DelayMS))
			writeField(strconv.Itoa(f.OffsetX))
			writeField(strconv.Itoa(f.OffsetY))
			h.Write(f.Pix)
			h.Write([]byte{0x1f})
		}
	}
	h.Write([]byte{0x1e})

	for _, t := range c.Text {
		writeField(t.Text)
		writeField(t.Font)
		writeField(strconv.FormatFloat(t.Scale, 'g', -1, 64))
		writeField(t.Align)
		writeField(strconv.Itoa(t.Padding))
		writeField(strconv.Itoa(t.OffsetX))
		writeField(strconv.Itoa(t.OffsetY))
		writeField(t.Color)
		if t.Shadow != nil {
			writeField(t.Shadow.Color)
			writeField(strconv.Itoa(t.Shadow.OffsetX))
			writeField(strconv.Itoa(t.Shadow.OffsetY))
		}
		h.Write([]byte{0x1e})
	}

	for _, name := range c.PaintBlock {
		writeField(name)
	}
	h.Write([]byte{0x1e})

	if c.ToCache {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	h.Write(c.Payload)
	h.Write([]byte{0x1e})

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(frameIndex))
	h.Write(buf[:])

	for _, stamp := range stamps {
		writeField(stamp)
	}

	sum := h.Sum64()
	if sum == ClearHash {
		sum++
	}
	return sum
}

// ClearHash is the reserved sentinel recorded as a key's last-written
// hash after it is cleared to black. HashKey never returns it, so an
// unmapped key is cleared exactly once and a later mapping always
// registers as a change.
const ClearHash uint64 = 0
