// Package compiler owns a compilation session: the type universe, the
// class registry, the global scope, the representation cache and the
// specialization cache.
//
// Compiling an entry point specializes it for concrete argument types.
// Every implementation reached from it is specialized on demand from
// inside type inference, memoized by (implementation, argument types).
// A request for a specialization that is still being built reuses the
// in-flight entry; its result type is the declared one, or the type of
// the first return inferred so far. Failed attempts are purged, so a
// later identical request compiles again.
//
// A Session is not safe for concurrent use. The driver runs one session
// per unit.
package compiler
