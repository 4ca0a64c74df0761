// Package objmodel is the compiler's view of the runtime object library:
// classes with their layouts, method tables and hooks, interfaces with
// default methods, and the name scopes functions are resolved in.
package objmodel
