// Package graph builds and holds the validated dependency graph of build
// declarations.
//
// # Construction
//
// Builder.Build walks the declarations reachable from a set of root
// addresses. The walk is an iterative depth-first traversal with an explicit
// stack of the addresses currently being resolved, so deep dependency chains
// cannot overflow the goroutine stack. Meeting an address that is already on
// the stack means the declarations form a cycle; the build fails with a
// CycleError carrying the whole path, e.g. `a:a -> a:b -> a:a`.
//
// Every address is resolved through an object.Resolver (normally the mapper)
// exactly once per build. Resolution errors abort the build and are returned
// unchanged, so callers can match them with errors.As.
//
// # Storage
//
// The Graph stores subjects and edges in a directed graph that refuses edges
// closing a cycle. Edges point from a subject to each of its dependencies.
// Once Build returns, a Graph is never mutated and may be read from any
// number of goroutines.
//
//	a:app ──► a:lib ──► 3rdparty:guava
//	   └─────────────────────┘
package graph
