/*
Package object defines the typed, address-based object model that build
declarations are decoded into.

A Struct is an immutable record of a declaration: its kind, its address,
plain attributes held as cty values, and reference fields holding Refs. A
Ref is either an unresolved Address or an already-resolved inline Struct;
resolving it goes through a Resolver, normally the mapper, which caches so
that repeated resolution always yields the same Struct.

Schemas describe, per kind, which fields a declaration may carry, their cty
types, defaults, and which of them are references.
*/
package object
