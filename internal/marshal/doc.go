// Package marshal converts values between the dynamic host and the native
// side of the compiled code.
//
// Host values are Go values: integers, floats, bools, strings, nil for
// None, *Object for class instances and []any for static tuples. Native
// values are trees of *Native mirroring the representation of their type.
// Pointer-free natives can additionally be packed into a flat buffer laid
// out for a target.
package marshal
