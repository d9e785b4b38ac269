// Package slug derives URL-safe identifiers from display names and resolves
// collisions with a numeric suffix.
package slug

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that do not decompose into an ASCII base plus combining marks.
var folds = map[rune]string{
	'ß': "ss", 'æ': "ae", 'Æ': "ae", 'œ': "oe", 'Œ': "oe",
	'ø': "o", 'Ø': "o", 'đ': "d", 'Đ': "d", 'ł': "l", 'Ł': "l",
	'þ': "th", 'Þ': "th", 'ð': "d", 'Ð': "d", 'ı': "i",
}

// Make lowercases name, transliterates it to ASCII, collapses every run of
// other characters into a single hyphen and trims hyphens at both ends.
func Make(name string) string {
	var folded strings.Builder
	folded.Grow(len(name))
	for _, r := range name {
		if s, ok := folds[r]; ok {
			folded.WriteString(s)
			continue
		}
		folded.WriteRune(r)
	}

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(t, folded.String())
	if err != nil {
		ascii = folded.String()
	}

	var b strings.Builder
	b.Grow(len(ascii))
	pendingHyphen := false
	for _, r := range strings.ToLower(ascii) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// ExistsFunc reports whether candidate is already taken in the caller's
// uniqueness scope. Callers exclude the record being renamed themselves.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Unique returns the first free candidate among base, base-1, base-2, ...
// where base is Make(name), or fallback when name has no usable characters.
//
// The check is not atomic with the write that follows it; a unique index must
// back every slug column.
func Unique(ctx context.Context, name, fallback string, exists ExistsFunc) (string, error) {
	base := Make(name)
	if base == "" {
		base = Make(fallback)
	}
	if base == "" {
		base = "item"
	}

	candidate := base
	for i := 1; ; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
}
