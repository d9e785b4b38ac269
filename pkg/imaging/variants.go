// Package imaging stores uploaded photos together with resized JPEG variants.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"
	"path"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/eventflow/eventflow/pkg/slug"
)

var (
	ErrUnsupportedType = errors.New("imaging: unsupported image type")
	ErrTooLarge        = errors.New("imaging: upload exceeds size limit")
	ErrTooManyPixels   = errors.New("imaging: image dimensions exceed pixel limit")
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/webp"}

const (
	jpegQuality = 90
	// DefaultMaxPixels bounds decoded images to roughly 160 MB of RGBA.
	DefaultMaxPixels = 40_000_000
)

type bounds struct {
	width, height int
}

var (
	mediumBounds = bounds{1200, 1200}
	thumbBounds  = bounds{400, 400}
)

// Paths are relative to the storage root.
type Paths struct {
	Original string
	Medium   string
	Thumb    string
}

func (p Paths) All() []string {
	out := make([]string, 0, 3)
	for _, s := range []string{p.Original, p.Medium, p.Thumb} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Store writes the original upload and its medium/thumb variants into fs.
type Store struct {
	fs        afero.Fs
	maxSize   int64
	maxPixels int
}

func NewStore(fs afero.Fs, maxSize int64) *Store {
	return &Store{fs: fs, maxSize: maxSize, maxPixels: DefaultMaxPixels}
}

// WithMaxPixels changes the width*height budget checked before decoding.
func (s *Store) WithMaxPixels(n int) *Store {
	s.maxPixels = n
	return s
}

// Save stores r under dir as "<slug(baseName)>-<uuid>.<ext>" plus
// "-medium.jpg" and "-thumb.jpg" variants.
func (s *Store) Save(ctx context.Context, r io.Reader, dir, baseName string) (Paths, error) {
	limit := s.maxSize
	if limit <= 0 {
		limit = 10 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Paths{}, fmt.Errorf("imaging: read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return Paths{}, ErrTooLarge
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedTypes...) {
		return Paths{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Paths{}, fmt.Errorf("imaging: decode config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(s.maxPixels) {
		return Paths{}, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Paths{}, fmt.Errorf("imaging: decode: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Paths{}, err
	}

	name := slug.Make(baseName)
	if name == "" {
		name = "photo"
	}
	name = name + "-" + uuid.NewString()

	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("imaging: mkdir %s: %w", dir, err)
	}

	paths := Paths{
		Original: path.Join(dir, name+mt.Extension()),
		Medium:   path.Join(dir, name+"-medium.jpg"),
		Thumb:    path.Join(dir, name+"-thumb.jpg"),
	}
	if err := afero.WriteFile(s.fs, paths.Original, data, 0o644); err != nil {
		return Paths{}, fmt.Errorf("imaging: write original: %w", err)
	}
	if err := s.writeVariant(src, paths.Medium, mediumBounds); err != nil {
		s.Delete(paths)
		return Paths{}, err
	}
	if err := s.writeVariant(src, paths.Thumb, thumbBounds); err != nil {
		s.Delete(paths)
		return Paths{}, err
	}
	return paths, nil
}

// Delete removes every stored file in p, ignoring files already gone.
func (s *Store) Delete(p Paths) {
	for _, file := range p.All() {
		_ = s.fs.Remove(file)
	}
}

func (s *Store) writeVariant(src image.Image, dst string, b bounds) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Fit(src, b.width, b.height), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("imaging: encode %s: %w", dst, err)
	}
	if err := afero.WriteFile(s.fs, dst, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("imaging: write %s: %w", dst, err)
	}
	return nil
}

// Fit scales src to fit inside maxW x maxH, never upscaling, and flattens it
// onto a white background.
func Fit(src image.Image, maxW, maxH int) image.Image {
	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h), 1)
	tw := max(1, int(float64(w)*scale+0.5))
	th := max(1, int(float64(h)*scale+0.5))

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	return dst
}
