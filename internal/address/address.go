// internal/address/address.go
package address

// Address identifies a single declaration. It is a comparable value and can
// be used directly as a map key.
type Address struct {
	Namespace string
	Name      string
}

// New builds an address without validation. Use Parse for untrusted input.
func New(namespace, name string) Address {
	return Address{Namespace: namespace, Name: name}
}

// String serializes the Address into its canonical `ns:name` form.
func (a Address) String() string {
	if a.Namespace == "" {
		return rootPrefix + ":" + a.Name
	}
	return a.Namespace + ":" + a.Name
}

// IsZero reports whether the address is the zero value.
func (a Address) IsZero() bool {
	return a.Namespace == "" && a.Name == ""
}

// Less orders addresses by namespace, then name.
func (a Address) Less(other Address) bool {
	if a.Namespace != other.Namespace {
		return a.Namespace < other.Namespace
	}
	return a.Name < other.Name
}
