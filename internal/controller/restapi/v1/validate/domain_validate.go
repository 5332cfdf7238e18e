package validate

import (
	"strings"

	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/google/uuid"
)

const (
	MaxVerificationTokenLen int = 256

	DefaultActivityLimit int = 20
	MaxActivityLimit     int = 100
)

func ID(s string) (uuid.UUID, bool) {
	if s == "" {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}

// UserID checks presence and length. The use case applies the same rule; this
// only keeps obviously bad requests away from it.
func UserID(s string) bool {
	return entity.ValidOwner(s)
}

func DomainName(s string) bool {
	s = strings.TrimSpace(s)

	return s != "" && len(s) <= entity.MaxNameLength
}

func VerificationToken(s string) bool {
	return s != "" && len(s) <= MaxVerificationTokenLen
}

func ActivityLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultActivityLimit
	case n > MaxActivityLimit:
		return MaxActivityLimit
	default:
		return n
	}
}
