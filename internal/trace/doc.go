// Package trace records what the compiler pipeline is doing.
//
// There is no global logger. The CLI builds one Tracer and attaches it to
// the context; every stage opens spans from that context:
//
//	ctx, span := trace.StartSpan(ctx, trace.ScopePass, "infer "+name)
//	err := run(ctx)
//	span.Finish(err)
//
// Spans nest through the context, so a span started from ctx becomes a
// child of the innermost span already in it. Units compiled in parallel
// are told apart by the label set with WithUnit.
//
// Levels select scopes: phase emits session and pass spans, detail adds
// one span per specialization and debug adds single-op notes. The error
// level emits nothing but the spans that finish with an error.
package trace
