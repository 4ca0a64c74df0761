// Package infer types one function body for one tuple of concrete
// argument types.
//
// The pass walks the ops once in program order. Constants get their
// intrinsic type, attribute reads resolve against the receiver's layout,
// its methods, or its dynamic attribute fallback, and calls and operators
// resolve through overload sets. Choosing a compiled implementation asks
// the Specializer for its result type, which may recursively run this pass
// on the callee. The first failure aborts the whole function.
package infer
