// Package opaqueid issues public identifiers that hide row order.
package opaqueid

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/sqids/sqids-go"
)

// DefaultAlphabet is a shuffled base62 alphabet.
const DefaultAlphabet = "k3G7QAe51FCsPW92uEOyq4Bg6Sp8YzVTmnU0liwDdHXLajZrfxNhobJIRcMvKt"

const DefaultMinLength = 10

// Assignable is implemented by entities carrying an opaque id.
type Assignable interface {
	HashID() string
	SetHashID(id string)
}

type Options struct {
	Alphabet  string
	MinLength uint8
}

// Generator encodes a millisecond timestamp together with 32 random bits.
// Collisions are left to the unique index on the column.
type Generator struct {
	codec *sqids.Sqids
	now   func() time.Time
	rand  io.Reader
}

func New(opts Options) (*Generator, error) {
	if opts.Alphabet == "" {
		opts.Alphabet = DefaultAlphabet
	}
	if opts.MinLength == 0 {
		opts.MinLength = DefaultMinLength
	}
	codec, err := sqids.New(sqids.Options{
		Alphabet:  opts.Alphabet,
		MinLength: opts.MinLength,
	})
	if err != nil {
		return nil, fmt.Errorf("opaqueid: %w", err)
	}
	return &Generator{codec: codec, now: time.Now, rand: rand.Reader}, nil
}

// MustNew is New for package-level wiring; it panics on a bad alphabet.
func MustNew(opts Options) *Generator {
	g, err := New(opts)
	if err != nil {
		panic(err)
	}
	return g
}

// Generate returns a fresh id.
func (g *Generator) Generate() (string, error) {
	var buf [4]byte
	if _, err := io.ReadFull(g.rand, buf[:]); err != nil {
		return "", fmt.Errorf("opaqueid: read entropy: %w", err)
	}
	millis := uint64(g.now().UnixMilli())
	id, err := g.codec.Encode([]uint64{millis, uint64(binary.BigEndian.Uint32(buf[:]))})
	if err != nil {
		return "", fmt.Errorf("opaqueid: encode: %w", err)
	}
	return id, nil
}

// Assign sets an id on e unless it already has one.
func (g *Generator) Assign(e Assignable) error {
	if e.HashID() != "" {
		return nil
	}
	id, err := g.Generate()
	if err != nil {
		return err
	}
	e.SetHashID(id)
	return nil
}
