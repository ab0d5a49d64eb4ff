// internal/address/doc.go

/*
Package address provides the canonical identifier of a build declaration.

An address is a namespace path plus a name within it, written `ns:name`,
e.g. `src/java/app:lib`. Declarations in the root namespace render as
`//:name`. A bare namespace such as `src/java/app` is shorthand for the
declaration named after its last path segment, `src/java/app:app`.

Inside a declaration file, `:name` refers to a sibling in the same
namespace; ParseRelative resolves it against the declaring namespace.
*/
package address
