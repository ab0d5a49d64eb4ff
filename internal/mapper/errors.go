package mapper

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/buildgrid/internal/address"
)

// UnresolvedAddressError reports an address with no declaration.
type UnresolvedAddressError struct {
	Address address.Address
	// Known lists the names declared in the address's namespace.
	Known []string
}

func (e *UnresolvedAddressError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("no declaration found for address %s", e.Address)
	}
	return fmt.Sprintf("no declaration found for address %s; namespace %q declares: %s",
		e.Address, e.Address.Namespace, strings.Join(e.Known, ", "))
}

// AmbiguousAddressError reports an address declared more than once.
type AmbiguousAddressError struct {
	Address   address.Address
	Locations []string
}

func (e *AmbiguousAddressError) Error() string {
	return fmt.Sprintf("address %s is declared %d times (%s)", e.Address, len(e.Locations), strings.Join(e.Locations, ", "))
}

// MalformedDeclarationError reports a declaration that does not fit its
// kind's schema.
type MalformedDeclarationError struct {
	Address address.Address
	Kind    string
	Field   string
	Err     error
}

func (e *MalformedDeclarationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed %s declaration %s: %v", e.Kind, e.Address, e.Err)
	}
	return fmt.Sprintf("malformed %s declaration %s: field %q: %v", e.Kind, e.Address, e.Field, e.Err)
}

func (e *MalformedDeclarationError) Unwrap() error { return e.Err }
