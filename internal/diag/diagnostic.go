package diag

import "fmt"

// Location names the IR site a diagnostic refers to.
type Location struct {
	Func string
	Op   string
}

func (l Location) String() string {
	switch {
	case l.Func == "" && l.Op == "":
		return "<unit>"
	case l.Op == "":
		return l.Func
	default:
		return fmt.Sprintf("%s: %s", l.Func, l.Op)
	}
}

type Note struct {
	Where Location
	Msg   string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Location
	Notes    []Note
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s %s: %s", d.Severity, d.Code.ID(), d.Primary, d.Message)
}
