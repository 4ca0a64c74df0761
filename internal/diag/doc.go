// Package diag defines the diagnostic model shared by all pipeline stages.
//
// Every stage reports failures as typed errors that implement Coded. The
// codes are grouped by stage: TYP (type system and unifier), OVL (overload
// resolution), INF (inference and rewriting), REP (representation,
// lowering and marshaling) and PRJ (unit files read by the driver).
//
// CompileError wraps a stage error with the site that triggered it: the
// function being specialized, the offending operation, the callee and the
// concrete argument types. It unwraps to the stage error, so errors.As on
// the taxonomy types works through any number of wrappers.
//
// Bag and Reporter are used by the driver to collect diagnostics from many
// specializations before rendering them.
package diag
