package slug

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// Length of generated slugs.
const Length = 6

// MaxLen caps user-supplied slugs.
const MaxLen = 50

var maxIdx = big.NewInt(int64(len(charset)))

var invalidChars = regexp.MustCompile(`[^a-z0-9_-]`)

// Generate returns a random slug drawn from the slug charset.
func Generate() (string, error) {
	b := make([]byte, Length)
	for i := range b {
		n, err := rand.Int(rand.Reader, maxIdx)
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}
	return string(b), nil
}

// Sanitize normalizes a user-supplied slug: lowercase, strip anything outside
// [a-z0-9_-], cap the length. Generated and imported slugs are stored verbatim
// and never pass through here.
func Sanitize(s string) string {
	s = invalidChars.ReplaceAllString(strings.ToLower(s), "")
	if len(s) > MaxLen {
		s = s[:MaxLen]
	}
	return s
}
