// Package overload holds overload sets and picks the single most specific
// implementation for a tuple of concrete argument types.
//
// Candidates are first completed to the call's arity: missing trailing
// parameters are filled from declared default constants, and arguments
// past the fixed arity of a variadic candidate are packed into one
// StaticTuple chain. Among the candidates whose parameter patterns then
// match, the unique maximal one under types.CompareList wins; equally
// specific candidates are told apart by how little completion they needed.
// Only when no candidate matches as is are numeric arguments widened to
// concrete parameter types (types.Interner.Promotes).
package overload
