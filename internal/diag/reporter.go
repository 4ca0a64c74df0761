package diag

// Reporter is the minimal sink for diagnostics produced by the pipeline.
type Reporter interface {
	Report(code Code, sev Severity, primary Location, msg string, notes []Note)
}

// BagReporter writes into a *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(code Code, sev Severity, primary Location, msg string, notes []Note) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(Diagnostic{
		Severity: sev, Code: code, Message: msg,
		Primary: primary, Notes: notes,
	})
}

// ReportError converts err into a diagnostic. CompileErrors contribute their
// location and argument types as notes.
func ReportError(r Reporter, fn string, err error) {
	if r == nil || err == nil {
		return
	}
	loc := Location{Func: fn}
	var notes []Note
	if ce, ok := AsCompileError(err); ok {
		if ce.Func != "" {
			loc.Func = ce.Func
		}
		loc.Op = ce.Op
		if ce.Callee != "" {
			notes = append(notes, Note{Where: loc, Msg: "call to " + ce.Callee})
		}
		if len(ce.ArgTypes) > 0 {
			notes = append(notes, Note{Where: loc, Msg: "argument types " + ce.argList()})
		}
	}
	r.Report(CodeOf(err), SevError, loc, err.Error(), notes)
}
