package driver

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	llir "github.com/llir/llvm/ir"
	"golang.org/x/sync/errgroup"

	"flyc/internal/compiler"
	"flyc/internal/diag"
	"flyc/internal/layout"
	"flyc/internal/lltype"
	"flyc/internal/observ"
	"flyc/internal/trace"
	"flyc/internal/types"
)

// EmitMode selects the textual output produced for a unit.
type EmitMode uint8

const (
	EmitNone EmitMode = iota
	// EmitIR dumps every specialization as typed, lowered IR.
	EmitIR
	// EmitLL writes LLVM declarations for every specialization.
	EmitLL
)

// ParseEmitMode accepts none, ir and ll.
func ParseEmitMode(s string) (EmitMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return EmitNone, nil
	case "ir":
		return EmitIR, nil
	case "ll", "llvm":
		return EmitLL, nil
	}
	return EmitNone, fmt.Errorf("unknown emit mode %q (want none|ir|ll)", s)
}

// Options configure a driver run.
type Options struct {
	MaxDiagnostics int
	Jobs           int
	Emit           EmitMode
	// Timings adds a PRJ timings diagnostic per unit.
	Timings bool
	// MaxDepth overrides the unit's [compiler] max_depth when positive.
	MaxDepth      int
	PhaseObserver PhaseObserver
}

// EntryResult describes one compiled entry point.
type EntryResult struct {
	Func   string
	Name   string
	Return string
	Native string
	Frame  *Frame
}

// Result is the outcome of compiling one unit.
type Result struct {
	Path    string
	Bag     *diag.Bag
	Entries []EntryResult
	Stats   compiler.Stats
	Output  string
	Timing  *observ.Report
}

// CompileUnit compiles every entry of the unit file at path. Failures are
// reported into the result's bag; the error return is reserved for
// cancellation.
func CompileUnit(ctx context.Context, path string, opts Options) (*Result, error) {
	res := &Result{Path: path, Bag: diag.NewBag(opts.MaxDiagnostics)}
	timer := observ.NewTimer()
	observer := opts.PhaseObserver
	begin := func(name string) int {
		if observer != nil {
			observer(PhaseEvent{Unit: path, Name: name, Status: PhaseStart})
		}
		return timer.Begin(name)
	}
	end := func(name string, idx int, note string) {
		timer.End(idx, note)
		if observer != nil {
			observer(PhaseEvent{Unit: path, Name: name, Status: PhaseEnd, Elapsed: timer.Elapsed(idx)})
		}
	}
	if observer != nil {
		defer func() {
			observer(PhaseEvent{Unit: path, Name: "unit", Status: UnitDone, Failed: res.Bag.HasErrors()})
		}()
	}

	idx := begin("load")
	u, err := LoadUnit(path)
	end("load", idx, "")
	if err != nil {
		reportAll(diag.BagReporter{Bag: res.Bag}, "", err)
		return res, nil
	}
	return res, compileLoaded(ctx, u, opts, res, timer, begin, end)
}

// CompileSource is CompileUnit for a unit already held in memory.
func CompileSource(ctx context.Context, name, src string, opts Options) (*Result, error) {
	res := &Result{Path: name, Bag: diag.NewBag(opts.MaxDiagnostics)}
	u, err := DecodeUnit(name, src)
	if err != nil {
		reportAll(diag.BagReporter{Bag: res.Bag}, "", err)
		return res, nil
	}
	timer := observ.NewTimer()
	begin := func(name string) int { return timer.Begin(name) }
	end := func(_ string, idx int, note string) { timer.End(idx, note) }
	return res, compileLoaded(ctx, u, opts, res, timer, begin, end)
}

func compileLoaded(ctx context.Context, u *Unit, opts Options, res *Result, timer *observ.Timer,
	begin func(string) int, end func(string, int, string)) error {
	rep := diag.BagReporter{Bag: res.Bag}
	defer func() {
		report := timer.Report()
		res.Timing = &report
		if opts.Timings {
			appendTimingDiagnostic(res.Bag, timingPayload{Kind: "unit", Path: res.Path, TotalMS: report.TotalMS, Phases: report.Phases})
		}
	}()
	if opts.MaxDepth > 0 {
		u.Compiler.MaxDepth = opts.MaxDepth
	}
	target, err := layout.TargetByName(u.Compiler.Target)
	if err != nil {
		diag.ReportError(rep, "", u.errorf("compiler", err))
		return nil
	}

	idx := begin("declare")
	s, err := u.NewSession()
	end("declare", idx, fmt.Sprintf("%d class(es), %d func(s)", len(u.Classes), len(u.Funcs)))
	if err != nil {
		reportAll(rep, "", err)
		return nil
	}

	ctx, span := trace.StartSpan(trace.WithUnit(ctx, res.Path), trace.ScopeSession, "unit")
	defer func() { span.End(fmt.Sprintf("%d entr(ies), %d diagnostic(s)", len(res.Entries), res.Bag.Len())) }()

	engine := layout.New(target)
	idx = begin("compile")
	for i, e := range u.Entries {
		if err := ctx.Err(); err != nil {
			end("compile", idx, "cancelled")
			return err
		}
		er, err := compileEntry(ctx, s, engine, e)
		if err != nil {
			diag.ReportError(rep, fmt.Sprintf("%s (entry #%d)", e.Func, i), err)
			continue
		}
		res.Entries = append(res.Entries, er)
	}
	res.Stats = s.Stats()
	end("compile", idx, fmt.Sprintf("%d compiled, %d cache hit(s)", res.Stats.Compiled, res.Stats.Hits))

	if opts.Emit != EmitNone {
		idx = begin("emit")
		out, err := emit(s, opts.Emit)
		end("emit", idx, "")
		if err != nil {
			diag.ReportError(rep, "", err)
		}
		res.Output = out
	}
	res.Bag.Sort()
	res.Bag.Dedup()
	return nil
}

func compileEntry(ctx context.Context, s *compiler.Session, engine *layout.LayoutEngine, e EntryDecl) (EntryResult, error) {
	args := make([]types.TypeID, len(e.Args))
	for i, src := range e.Args {
		t, err := s.Types.ParseType(src)
		if err != nil {
			return EntryResult{}, err
		}
		args[i] = t
	}
	sp, err := s.CompileEntry(ctx, e.Func, args)
	if err != nil {
		return EntryResult{}, err
	}
	er := EntryResult{
		Func:   e.Func,
		Name:   sp.Name,
		Return: s.Types.String(sp.Return),
		Native: sp.Sig.String(),
	}
	if e.Values != nil {
		if er.Frame, err = marshalFrame(s, engine, args, e.Values); err != nil {
			return EntryResult{}, &diag.CompileError{Func: sp.Name, ArgTypes: s.Types.Strings(args), Err: err}
		}
	}
	return er, nil
}

func emit(s *compiler.Session, mode EmitMode) (string, error) {
	var buf bytes.Buffer
	switch mode {
	case EmitIR:
		if err := s.Dump(&buf); err != nil {
			return "", err
		}
	case EmitLL:
		conv := lltype.New(llir.NewModule())
		for _, sp := range s.Specializations() {
			names := make([]string, len(sp.Func.Params))
			for i, p := range sp.Func.Params {
				names[i] = p.Name
			}
			if _, err := conv.Declare(sp.Name, names, sp.Sig); err != nil {
				return "", fmt.Errorf("declare %s: %w", sp.Name, err)
			}
		}
		buf.WriteString(conv.Module().String())
	}
	return buf.String(), nil
}

// CompileFiles compiles each unit file in parallel, one session per file.
// Directories are searched for *.toml files.
func CompileFiles(ctx context.Context, paths []string, opts Options) ([]*Result, error) {
	files, err := CollectUnits(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Indexes are unique per goroutine, no mutex needed.
	results := make([]*Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := CompileUnit(gctx, path, opts)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CollectUnits expands directories into their sorted *.toml files.
func CollectUnits(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".toml") {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

// reportAll reports each error of a joined error on its own.
func reportAll(r diag.Reporter, fn string, err error) {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range j.Unwrap() {
			reportAll(r, fn, e)
		}
		return
	}
	diag.ReportError(r, fn, err)
}
