// Package emailaddr provides the syntactic email check used before any
// delivery attempt. It is intentionally a cheap format check, not a
// deliverability check.
package emailaddr

import "regexp"

var addrPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Valid reports whether addr looks like a deliverable email address.
func Valid(addr string) bool {
	return addrPattern.MatchString(addr)
}
