package room

import (
	"strings"

	"github.com/google/uuid"
)

const tokenLength = 10

// TokenGenerator produces candidate room tokens
type TokenGenerator func() string

// NewToken returns a short upper-case room token taken from a random uuid
func NewToken() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:tokenLength])
}
