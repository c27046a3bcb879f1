// Package fonts loads TrueType/OpenType faces named by the configuration.
// Rasterization is left to golang.org/x/image/font.
package fonts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"organizer/internal/config"
)

// ErrFontAssetMissing is returned (wrapped) when a configured font file does
// not exist.
var ErrFontAssetMissing = errors.New("font asset missing")

// AssetError carries the path of a missing font file.
type AssetError struct {
	Path string
	Err  error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("font asset missing: %s: %v", e.Path, e.Err)
}

func (e *AssetError) Unwrap() []error { return []error{ErrFontAssetMissing, e.Err} }

// Resolver maps a region and field to a font file and size.
// *config.Config implements it.
type Resolver interface {
	Font(region, field string) (config.FontSpec, error)
}

// Library opens faces on first request and keeps them for later passes.
// It is not safe for concurrent use.
type Library struct {
	resolver Resolver
	parsed   map[string]*opentype.Font
	faces    map[config.FontSpec]font.Face
}

func NewLibrary(r Resolver) *Library {
	return &Library{
		resolver: r,
		parsed:   make(map[string]*opentype.Font),
		faces:    make(map[config.FontSpec]font.Face),
	}
}

// Face returns the face configured for region/field.
func (l *Library) Face(region, field string) (font.Face, error) {
	spec, err := l.resolver.Font(region, field)
	if err != nil {
		return nil, err
	}
	return l.Load(spec)
}

// Load returns the face for spec, reading and parsing the file the first
// time it is seen.
func (l *Library) Load(spec config.FontSpec) (font.Face, error) {
	if f, ok := l.faces[spec]; ok {
		return f, nil
	}

	parsed, ok := l.parsed[spec.Path]
	if !ok {
		data, err := os.ReadFile(spec.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, &AssetError{Path: spec.Path, Err: err}
			}
			return nil, fmt.Errorf("fonts: read %s: %w", spec.Path, err)
		}
		parsed, err = opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("fonts: parse %s: %w", spec.Path, err)
		}
		l.parsed[spec.Path] = parsed
	}

	face, err := newFace(parsed, spec.Size)
	if err != nil {
		return nil, fmt.Errorf("fonts: face %s: %w", spec, err)
	}
	l.faces[spec] = face
	return face, nil
}

// Close releases every cached face.
func (l *Library) Close() error {
	var errs []error
	for spec, f := range l.faces {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(l.faces, spec)
	}
	return errors.Join(errs...)
}

// Parse builds a face from in-memory font data, e.g. an embedded font.
func Parse(data []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fonts: failed to parse font: %w", err)
	}
	return newFace(f, size)
}

// newFace uses 72 DPI so that Size is in pixels.
func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
