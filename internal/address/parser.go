// internal/address/parser.go
package address

import (
	"fmt"
	"regexp"
	"strings"
)

const rootPrefix = "//"

// nameRegex matches a declaration name or a single namespace segment.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+$`)

// isValidSegmentName rejects names that are syntactically valid but would
// make paths ambiguous.
func isValidSegmentName(name string) bool {
	return name != "." && name != ".."
}

// Parse converts an absolute address string into an Address.
func Parse(raw string) (Address, error) {
	if strings.HasPrefix(raw, ":") {
		return Address{}, fmt.Errorf("relative address %q requires a namespace", raw)
	}
	return parse(raw, "")
}

// ParseRelative converts an address string into an Address, resolving the
// `:name` form against base.
func ParseRelative(raw, base string) (Address, error) {
	return parse(raw, base)
}

// MustParse is like Parse but panics on error. Intended for tests and
// static tables.
func MustParse(raw string) Address {
	a, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return a
}

func parse(raw, base string) (Address, error) {
	if raw == "" {
		return Address{}, fmt.Errorf("address cannot be empty")
	}

	s := raw
	relative := strings.HasPrefix(s, ":")
	if relative && strings.Contains(s[1:], ":") {
		return Address{}, fmt.Errorf("invalid address %q: relative address has more than one ':'", raw)
	}
	s = strings.TrimPrefix(s, rootPrefix)

	var ns, name string
	if idx := strings.LastIndex(s, ":"); idx >= 0 {
		ns, name = s[:idx], s[idx+1:]
		if relative {
			ns = base
		}
	} else {
		ns = s
		if i := strings.LastIndex(ns, "/"); i >= 0 {
			name = ns[i+1:]
		} else {
			name = ns
		}
	}

	if err := validateNamespace(ns); err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", raw, err)
	}
	if !nameRegex.MatchString(name) || !isValidSegmentName(name) {
		return Address{}, fmt.Errorf("invalid address %q: invalid name %q", raw, name)
	}
	return Address{Namespace: ns, Name: name}, nil
}

// validateNamespace checks every slash-separated segment of a namespace path.
// The empty namespace is the root.
func validateNamespace(ns string) error {
	if ns == "" {
		return nil
	}
	for _, seg := range strings.Split(ns, "/") {
		if seg == "" {
			return fmt.Errorf("empty namespace segment in %q", ns)
		}
		if !nameRegex.MatchString(seg) || !isValidSegmentName(seg) {
			return fmt.Errorf("invalid namespace segment %q", seg)
		}
	}
	return nil
}
