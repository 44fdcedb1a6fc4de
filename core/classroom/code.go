package classroom

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

const (
	joinCodeLen     = 6
	joinCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// maxJoinCodeAttempts bounds the retry-on-collision loop; the unique index
	// on join_code is the actual guarantee.
	maxJoinCodeAttempts = 10
)

// generateJoinCode returns a random 6-character [A-Z0-9] code.
func generateJoinCode() (string, error) {
	buf := make([]byte, joinCodeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "reading random bytes")
	}
	for i, b := range buf {
		buf[i] = joinCodeCharset[int(b)%len(joinCodeCharset)]
	}
	return string(buf), nil
}
