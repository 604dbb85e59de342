package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// baseFontSize is the point size a text overlay with scale 1.0 draws at.
const baseFontSize = 12.0

// FontStore lazily loads TTF/OTF fonts from a directory and caches
// rasterizer faces per (font, size) pair. A missing or unparsable font
// degrades to a built-in bitmap face instead of failing a render tick.
//
// Faces are cached forever; the working set is tiny (a handful of fonts
// at a handful of scales).
type FontStore struct {
	dir string

	mu    sync.Mutex
	fonts map[string]*opentype.Font
	faces map[faceKey]font.Face
}

type faceKey struct {
	name string
	size float64
}

// NewFontStore creates a store rooted at dir. The directory may be
// empty or absent; every lookup then falls back to the built-in face.
func NewFontStore(dir string) *FontStore {
	return &FontStore{
		dir:   dir,
		fonts: make(map[string]*opentype.Font),
		faces: make(map[faceKey]font.Face),
	}
}

// Face returns a rasterizer face for the named font at the given scale.
// Scale multiplies the base point size; non-positive scales mean 1.0.
// The fallback face is returned, never an error, so callers can draw
// unconditionally.
func (s *FontStore) Face(name string, scale float64) font.Face {
	if scale <= 0 {
		scale = 1.0
	}
	size := baseFontSize * scale

	s.mu.Lock()
	defer s.mu.Unlock()

	key := faceKey{name: name, size: size}
	if face, ok := s.faces[key]; ok {
		return face
	}

	face := s.buildFace(name, size)
	s.faces[key] = face
	return face
}

// buildFace loads and rasterizes under the store lock.
func (s *FontStore) buildFace(name string, size float64) font.Face {
	fnt, err := s.load(name)
	if err != nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

func (s *FontStore) load(name string) (*opentype.Font, error) {
	if name == "" {
		return nil, fmt.Errorf("render: no font name")
	}
	if fnt, ok := s.fonts[name]; ok {
		return fnt, nil
	}

	var data []byte
	var err error
	for _, ext := range []string{".ttf", ".otf"} {
		data, err = os.ReadFile(filepath.Join(s.dir, name+ext))
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("render: reading font %q: %w", name, err)
	}

	fnt, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("render: parsing font %q: %w", name, err)
	}
	s.fonts[name] = fnt
	return fnt, nil
}
