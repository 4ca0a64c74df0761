package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"flyc/internal/diagfmt"
	"flyc/internal/driver"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] <unit.toml|dir>...",
	Short: "Specialize the entries of unit files and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUnits(cmd, args, true)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [flags] <unit.toml|dir>...",
	Short: "Compile unit files and report diagnostics only",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUnits(cmd, args, false)
	},
}

func init() {
	compileCmd.Flags().String("emit", "ir", "output to print (none|ir|ll)")
	compileCmd.Flags().String("format", "pretty", "diagnostics format (pretty|json)")
	compileCmd.Flags().Bool("frames", false, "print the packed argument frames of entries with values")
	checkCmd.Flags().String("format", "pretty", "diagnostics format (pretty|json)")
}

type runFlags struct {
	color          string
	timings        bool
	maxDiagnostics int
	jobs           int
	maxDepth       int
	format         string
	emit           driver.EmitMode
	frames         bool
	ui             uiMode
}

func readFlags(cmd *cobra.Command, compile bool) (runFlags, error) {
	var rf runFlags
	var err error
	pf := cmd.Root().PersistentFlags()
	if rf.color, err = pf.GetString("color"); err != nil {
		return rf, err
	}
	if rf.timings, err = pf.GetBool("timings"); err != nil {
		return rf, err
	}
	if rf.maxDiagnostics, err = pf.GetInt("max-diagnostics"); err != nil {
		return rf, err
	}
	if rf.jobs, err = pf.GetInt("jobs"); err != nil {
		return rf, err
	}
	if rf.maxDepth, err = pf.GetInt("max-depth"); err != nil {
		return rf, err
	}
	uiFlag, err := pf.GetString("ui")
	if err != nil {
		return rf, err
	}
	if rf.ui, err = readUIMode(uiFlag); err != nil {
		return rf, err
	}
	if rf.format, err = cmd.Flags().GetString("format"); err != nil {
		return rf, err
	}
	rf.format = strings.ToLower(rf.format)
	if rf.format != "pretty" && rf.format != "json" {
		return rf, fmt.Errorf("unsupported format %q (must be pretty or json)", rf.format)
	}
	if !compile {
		return rf, nil
	}
	emit, err := cmd.Flags().GetString("emit")
	if err != nil {
		return rf, err
	}
	if rf.emit, err = driver.ParseEmitMode(emit); err != nil {
		return rf, err
	}
	if rf.frames, err = cmd.Flags().GetBool("frames"); err != nil {
		return rf, err
	}
	return rf, nil
}

func useColor(mode string, f *os.File) (bool, error) {
	switch strings.ToLower(mode) {
	case "auto":
		return isTerminal(f) && !color.NoColor, nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid --color value %q (auto|on|off)", mode)
}

func runUnits(cmd *cobra.Command, args []string, compile bool) error {
	rf, err := readFlags(cmd, compile)
	if err != nil {
		return err
	}
	colored, err := useColor(rf.color, os.Stderr)
	if err != nil {
		return err
	}

	units, err := driver.CollectUnits(args)
	if err != nil {
		return err
	}
	if len(units) == 0 {
		return fmt.Errorf("no unit files in %s", strings.Join(args, ", "))
	}
	opts := driver.Options{
		MaxDiagnostics: rf.maxDiagnostics,
		Jobs:           rf.jobs,
		Emit:           rf.emit,
		Timings:        rf.timings,
		MaxDepth:       rf.maxDepth,
	}
	var results []*driver.Result
	if shouldUseTUI(rf.ui, len(units)) {
		results, err = runWithUI(cmd.Context(), units, opts)
	} else {
		results, err = driver.CompileFiles(cmd.Context(), units, opts)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := false
	var outputs []diagfmt.DiagnosticsOutput
	for _, r := range results {
		failed = failed || r.Bag.HasErrors()
		if rf.format == "json" {
			outputs = append(outputs, diagfmt.BuildOutput(r.Path, r.Bag, diagfmt.JSONOpts{IncludeNotes: true}))
		} else if err := diagfmt.Pretty(cmd.ErrOrStderr(), r.Bag, diagfmt.PrettyOpts{Color: colored, ShowNotes: true, Label: r.Path}); err != nil {
			return err
		}
		if compile && rf.format == "pretty" {
			printUnit(out, r, rf.frames)
		}
	}
	if rf.format == "json" {
		if err := diagfmt.JSON(out, outputs); err != nil {
			return err
		}
	}
	if failed {
		return fmt.Errorf("compilation failed")
	}
	return nil
}

func printUnit(w io.Writer, r *driver.Result, frames bool) {
	fmt.Fprintf(w, ";; unit %s: %d compiled, %d cache hit(s), %d in-flight reuse(s)\n",
		r.Path, r.Stats.Compiled, r.Stats.Hits, r.Stats.InFlight)
	for _, e := range r.Entries {
		fmt.Fprintf(w, ";; entry %s -> %s, native %s\n", e.Name, e.Return, e.Native)
		if !frames || e.Frame == nil {
			continue
		}
		for i, buf := range e.Frame.Packed {
			if buf == nil {
				fmt.Fprintf(w, ";;   arg %d: %s (not flat)\n", i, e.Frame.Natives[i].Repr)
				continue
			}
			fmt.Fprintf(w, ";;   arg %d: % x\n", i, buf)
		}
	}
	if r.Output != "" {
		io.WriteString(w, r.Output)
	}
}
