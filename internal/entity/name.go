package entity

import (
	"regexp"
	"strings"
)

const (
	MaxNameLength  = 150
	MaxOwnerLength = 150
)

var hostnameRe = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z0-9][a-z0-9-]{0,61}[a-z0-9]$`)

// NormalizeName trims and lower-cases a domain name. Names are compared and
// stored in this form.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidName reports whether an already normalised name is a hostname with at
// least two labels.
func ValidName(name string) bool {
	return name != "" && len(name) <= MaxNameLength && hostnameRe.MatchString(name)
}

func ValidOwner(ownerID string) bool {
	return strings.TrimSpace(ownerID) != "" && len(ownerID) <= MaxOwnerLength
}
