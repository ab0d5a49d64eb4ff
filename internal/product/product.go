// Package product defines the keys and values the scheduler memoizes on.
package product

import "github.com/specialistvlad/buildgrid/internal/address"

// Kind names a type of build output, e.g. "classpath".
type Kind string

// Goal asks for one product of one subject. It is comparable and serves as
// the memoization key.
type Goal struct {
	Subject address.Address
	Product Kind
}

// NewGoal is a convenience constructor.
func NewGoal(subject address.Address, kind Kind) Goal {
	return Goal{Subject: subject, Product: kind}
}

func (g Goal) String() string {
	return string(g.Product) + "(" + g.Subject.String() + ")"
}

// Result is the outcome of a goal: a value or an error, never both.
type Result struct {
	Value any
	Err   error
}

// OK reports whether the goal produced a value.
func (r Result) OK() bool { return r.Err == nil }
