package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"flyc/internal/diag"
)

var (
	errorColor = color.New(color.FgRed, color.Bold)
	warnColor  = color.New(color.FgYellow, color.Bold)
	infoColor  = color.New(color.FgCyan)
	codeColor  = color.New(color.Bold)
	noteColor  = color.New(color.FgBlue)
)

// Pretty writes bag.Items() in human-readable form, one diagnostic per
// line followed by its notes:
//
//	<label>: <SEV> <CODE> <func>: <op>: <message>
//	  note: <message>
//
// The bag is expected to be sorted already.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) error {
	if bag == nil {
		return nil
	}
	paint := func(c *color.Color, s string) string {
		if !opts.Color {
			return s
		}
		c.EnableColor()
		return c.Sprint(s)
	}
	for _, d := range bag.Items() {
		sev := d.Severity.String()
		switch d.Severity {
		case diag.SevError:
			sev = paint(errorColor, sev)
		case diag.SevWarning:
			sev = paint(warnColor, sev)
		default:
			sev = paint(infoColor, sev)
		}
		prefix := ""
		if opts.Label != "" {
			prefix = opts.Label + ": "
		}
		if _, err := fmt.Fprintf(w, "%s%s %s %s: %s\n", prefix, sev, paint(codeColor, d.Code.ID()), d.Primary, d.Message); err != nil {
			return err
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			if _, err := fmt.Fprintf(w, "  %s %s\n", paint(noteColor, "note:"), n.Msg); err != nil {
				return err
			}
		}
	}
	return nil
}
