// Package encoding provides text helpers shared by the file format encoders:
// filesystem-safe names, fixed-size header strings and float formatting.
package encoding

import (
	"bytes"
	"path"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultToken replaces names that sanitize to nothing.
const DefaultToken = "unnamed"

// stripMarks decomposes, drops combining marks and recomposes, so "Été"
// becomes "Ete".
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// SanitizeName converts a display name into a token safe to use as a file
// name on every common filesystem. Letters, digits, '-' and '.' are kept,
// every other run of characters becomes a single '_'.
func SanitizeName(name string) string {
	name = stripMarks(name)

	var b strings.Builder
	pendingSep := false
	for _, r := range name {
		keep := r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.')
		if !keep {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}

	token := strings.TrimLeft(strings.TrimRight(b.String(), "._"), "._-")
	if token == "" {
		return DefaultToken
	}
	return token
}

// UniqueNames hands out tokens that do not collide with any token returned
// before. Comparison is case-insensitive since archives are often extracted
// on case-insensitive filesystems.
type UniqueNames struct {
	seen  map[string]bool
	files map[any]string
}

// NewUniqueNames creates an empty name set.
func NewUniqueNames() *UniqueNames {
	return &UniqueNames{seen: make(map[string]bool), files: make(map[any]string)}
}

// Reserve marks a token as taken without returning it.
func (u *UniqueNames) Reserve(token string) {
	u.seen[strings.ToLower(token)] = true
}

// Unique sanitizes name and appends _2, _3... until the token is unused.
func (u *UniqueNames) Unique(name string) string {
	base := SanitizeName(name)
	token := base
	for n := 2; u.seen[strings.ToLower(token)]; n++ {
		token = base + "_" + strconv.Itoa(n)
	}
	u.Reserve(token)
	return token
}

// File returns the file name for the object identified by key. A key always
// gets the name it got first; another key asking for a taken name gets
// stem_2.ext, stem_3.ext and so on.
func (u *UniqueNames) File(key any, name string) string {
	if f, ok := u.files[key]; ok {
		return f
	}
	ext := path.Ext(name)
	stem := SanitizeName(strings.TrimSuffix(name, ext))
	if ext != "" {
		ext = "." + SanitizeName(ext[1:])
	}
	token := stem + ext
	for n := 2; u.seen[strings.ToLower(token)]; n++ {
		token = stem + "_" + strconv.Itoa(n) + ext
	}
	u.Reserve(token)
	u.files[key] = token
	return token
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}

// FixedString decodes a null-padded fixed-size field, stopping at the first
// null byte.
func FixedString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data)
}

// ToFixedString writes s into a zero-filled field of size bytes, truncating
// on a rune boundary.
func ToFixedString(s string, size int) []byte {
	result := make([]byte, size)
	for len(s) > size {
		_, n := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-n]
	}
	copy(result, s)
	return result
}

// FormatFloat32 formats f with the fewest digits that parse back to the same
// float32.
func FormatFloat32(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// FormatFloat32E formats f in exponent notation with the fewest digits that
// parse back to the same float32, as used by triangle-soup text formats.
func FormatFloat32E(f float32) string {
	return strconv.FormatFloat(float64(f), 'e', -1, 32)
}
