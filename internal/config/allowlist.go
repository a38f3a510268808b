package config

import "strings"

// AllowList is the operator-configured set of emails permitted to bootstrap
// elevated roles. The zero value is empty.
type AllowList struct {
	emails map[string]struct{}
}

// ParseAllowList parses a comma-separated list of emails.
func ParseAllowList(raw string) AllowList {
	al := AllowList{emails: make(map[string]struct{})}
	for _, e := range splitList(raw) {
		if n := NormalizeEmail(e); n != "" {
			al.emails[n] = struct{}{}
		}
	}
	return al
}

// NormalizeEmail trims and lower-cases an email for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a AllowList) Empty() bool { return len(a.emails) == 0 }

func (a AllowList) Len() int { return len(a.emails) }

// Contains reports whether email, once normalized, is on the list.
func (a AllowList) Contains(email string) bool {
	n := NormalizeEmail(email)
	if n == "" {
		return false
	}
	_, ok := a.emails[n]
	return ok
}
