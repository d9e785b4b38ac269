package imaging

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 20, B: 20, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// withDeclaredSize rewrites the IHDR dimensions of a PNG without touching its
// pixel data.
func withDeclaredSize(data []byte, w, h uint32) []byte {
	out := bytes.Clone(data)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func decodeJPEG(t *testing.T, fs afero.Fs, p string) image.Image {
	t.Helper()
	data, err := afero.ReadFile(fs, p)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestStoreSave(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	store := NewStore(fs, 0)

	paths, err := store.Save(context.Background(), bytes.NewReader(pngBytes(t, 2400, 1200)), "events/12/main", "Summer Gala")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(paths.Original, "events/12/main/summer-gala-"))
	assert.True(t, strings.HasSuffix(paths.Original, ".png"))
	assert.True(t, strings.HasSuffix(paths.Medium, "-medium.jpg"))
	assert.True(t, strings.HasSuffix(paths.Thumb, "-thumb.jpg"))

	medium := decodeJPEG(t, fs, paths.Medium)
	assert.Equal(t, 1200, medium.Bounds().Dx())
	assert.Equal(t, 600, medium.Bounds().Dy())

	thumb := decodeJPEG(t, fs, paths.Thumb)
	assert.Equal(t, 400, thumb.Bounds().Dx())
	assert.Equal(t, 200, thumb.Bounds().Dy())
}

func TestStoreDoesNotUpscale(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	store := NewStore(fs, 0)

	paths, err := store.Save(context.Background(), bytes.NewReader(pngBytes(t, 300, 150)), "tenants/1/logo", "")
	require.NoError(t, err)
	assert.Contains(t, paths.Original, "tenants/1/logo/photo-")

	medium := decodeJPEG(t, fs, paths.Medium)
	assert.Equal(t, 300, medium.Bounds().Dx())
	assert.Equal(t, 150, medium.Bounds().Dy())
}

func TestStoreRejects(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("non image", func(t *testing.T) {
		t.Parallel()
		store := NewStore(afero.NewMemMapFs(), 0)
		_, err := store.Save(ctx, strings.NewReader("%PDF-1.4 not an image"), "x", "doc")
		require.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("too large", func(t *testing.T) {
		t.Parallel()
		store := NewStore(afero.NewMemMapFs(), 16)
		_, err := store.Save(ctx, bytes.NewReader(pngBytes(t, 10, 10)), "x", "big")
		require.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("declared dimensions over budget", func(t *testing.T) {
		t.Parallel()
		fs := afero.NewMemMapFs()
		store := NewStore(fs, 0)
		bomb := withDeclaredSize(pngBytes(t, 4, 4), 100_000, 100_000)
		_, err := store.Save(ctx, bytes.NewReader(bomb), "x", "bomb")
		require.ErrorIs(t, err, ErrTooManyPixels)
		entries, _ := afero.ReadDir(fs, "x")
		assert.Empty(t, entries)
	})

	t.Run("custom pixel budget", func(t *testing.T) {
		t.Parallel()
		store := NewStore(afero.NewMemMapFs(), 0).WithMaxPixels(100)
		_, err := store.Save(ctx, bytes.NewReader(pngBytes(t, 20, 10)), "x", "wide")
		require.ErrorIs(t, err, ErrTooManyPixels)
		_, err = store.Save(ctx, bytes.NewReader(pngBytes(t, 10, 10)), "x", "fits")
		require.NoError(t, err)
	})
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	store := NewStore(fs, 0)

	paths, err := store.Save(context.Background(), bytes.NewReader(pngBytes(t, 20, 20)), "events/1/story", "a")
	require.NoError(t, err)
	store.Delete(paths)

	for _, p := range paths.All() {
		exists, err := afero.Exists(fs, p)
		require.NoError(t, err)
		assert.False(t, exists, p)
	}
}

func TestFitFlattensTransparency(t *testing.T) {
	t.Parallel()
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	out := Fit(src, 10, 10)

	r, g, b, _ := out.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
}
