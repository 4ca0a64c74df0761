package driver

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"flyc/internal/diag"
	"flyc/internal/trace"
)

const vecUnit = `
[compiler]
target = "x86_64"

[[class]]
name = "Vec"
stack = true
field = [{ name = "x", type = "float64" }, { name = "y", type = "float64" }]

  [[class.method]]
  name = "dot"
  params = ["self", "o"]
  sig = "Vec -> Vec -> float64"
  body = """
entry:
  a = getfield self .x
  b = getfield o .x
  p = mul a b
  c = getfield self .y
  d = getfield o .y
  q = mul c d
  r = add p q
  ret r
"""

[[func]]
name = "norm2"
params = ["v"]
body = """
entry:
  m = getfield v .dot
  r = call m v
  ret r
"""

[[func]]
name = "scale"
params = ["x", "k"]
defaults = [4]
body = """
entry:
  r = mul x k
  ret r
"""

[[entry]]
func = "norm2"
args = ["Vec"]
values = [{ x = 3.0, y = 4.0 }]

[[entry]]
func = "scale"
args = ["int64"]
`

func compileSource(t *testing.T, src string, opts Options) *Result {
	t.Helper()
	res, err := CompileSource(context.Background(), "test.toml", src, opts)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func codes(b *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range b.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestCompileSource(t *testing.T) {
	res := compileSource(t, vecUnit, Options{Emit: EmitIR})
	if res.Bag.HasErrors() {
		t.Fatalf("diagnostics: %v", res.Bag.Items())
	}
	if len(res.Entries) != 2 {
		t.Fatalf("entries = %+v", res.Entries)
	}
	norm := res.Entries[0]
	if norm.Name != "norm2[Vec]" || norm.Return != "float64" {
		t.Fatalf("norm2 = %+v", norm)
	}
	if scale := res.Entries[1]; scale.Name != "scale[int64, int64]" || scale.Return != "int64" {
		t.Fatalf("scale = %+v", scale)
	}
	// norm2, Vec.dot and scale.
	if res.Stats.Compiled != 3 {
		t.Fatalf("stats = %+v", res.Stats)
	}
	if !strings.Contains(res.Output, "; norm2 overload #0 (Vec) -> float64") {
		t.Fatalf("output:\n%s", res.Output)
	}
}

func TestAliasesInUnits(t *testing.T) {
	res := compileSource(t, `
[[class]]
name = "Pair"
params = ["a", "b"]
stack = true
field = [{ name = "first", type = "a" }, { name = "second", type = "b" }]

[[alias]]
name = "Keyed"
type = "Pair[int64]"

[[func]]
name = "key"
params = ["p"]
sig = "Keyed[b] -> int64"
body = "entry:\n  k = getfield p .first\n  ret k\n"

[[entry]]
func = "key"
args = ["Keyed[float64]"]
`, Options{})
	if res.Bag.HasErrors() {
		t.Fatalf("diagnostics: %v", res.Bag.Items())
	}
	if e := res.Entries[0]; e.Name != "key[Pair[int64, float64]]" || e.Return != "int64" {
		t.Fatalf("entry = %+v", e)
	}
}

func TestEntryValuesArePacked(t *testing.T) {
	res := compileSource(t, vecUnit, Options{})
	fr := res.Entries[0].Frame
	if fr == nil || len(fr.Packed) != 1 {
		t.Fatalf("frame = %+v", fr)
	}
	buf := fr.Packed[0]
	if len(buf) != 16 {
		t.Fatalf("packed %d bytes", len(buf))
	}
	x := math.Float64frombits(binary.LittleEndian.Uint64(buf[0:8]))
	y := math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16]))
	if x != 3 || y != 4 {
		t.Fatalf("packed (%v, %v)", x, y)
	}
	if res.Entries[1].Frame != nil {
		t.Fatal("entry without values got a frame")
	}
}

func TestEmitLL(t *testing.T) {
	res := compileSource(t, vecUnit, Options{Emit: EmitLL})
	if res.Bag.HasErrors() {
		t.Fatalf("diagnostics: %v", res.Bag.Items())
	}
	for _, want := range []string{"%Vec = type", "norm2[Vec]", "Vec.dot[Vec, Vec]", "declare"} {
		if !strings.Contains(res.Output, want) {
			t.Errorf("output lacks %q:\n%s", want, res.Output)
		}
	}
}

func TestUnitDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []diag.Code
	}{
		{
			name: "unknown key",
			src:  "[compiler]\ntarget = \"x86_64\"\nspeed = 3\n",
			want: []diag.Code{diag.PrjBadUnit},
		},
		{
			name: "unknown target",
			src:  "[compiler]\ntarget = \"z80\"\n",
			want: []diag.Code{diag.RepUnsupportedType},
		},
		{
			name: "bad op",
			src:  "[[func]]\nname = \"f\"\nparams = [\"x\"]\nbody = \"entry:\\n  r = = x\\n\"\n",
			want: []diag.Code{diag.PrjBadOp},
		},
		{
			name: "every check failure is reported",
			src:  "[[class]]\nname = \"A\"\n[[class]]\nname = \"A\"\n[[entry]]\nargs = []\n",
			want: []diag.Code{diag.PrjBadUnit, diag.PrjBadUnit},
		},
		{
			name: "missing attribute",
			src: `
[[func]]
name = "f"
params = ["x"]
body = "entry:\n  r = getfield x .nope\n  ret r\n"

[[entry]]
func = "f"
args = ["int64"]
`,
			want: []diag.Code{diag.InfNoSuchAttribute},
		},
		{
			name: "value count",
			src:  "[[entry]]\nfunc = \"f\"\nargs = [\"int64\"]\nvalues = [1, 2]\n",
			want: []diag.Code{diag.PrjBadUnit},
		},
		{
			name: "unmarshalable value",
			src: `
[[func]]
name = "id"
params = ["x"]
body = "entry:\n  ret x\n"

[[entry]]
func = "id"
args = ["int8"]
values = [300]
`,
			want: []diag.Code{diag.RepMarshal},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compileSource(t, tt.src, Options{})
			got := codes(res.Bag)
			if len(got) != len(tt.want) {
				t.Fatalf("codes = %v, want %v (%v)", got, tt.want, res.Bag.Items())
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("codes = %v, want %v (%v)", got, tt.want, res.Bag.Items())
				}
			}
		})
	}
}

func TestFailedEntryDoesNotStopOthers(t *testing.T) {
	src := vecUnit + `
[[entry]]
func = "missing"
args = []
`
	res := compileSource(t, src, Options{})
	if len(res.Entries) != 2 {
		t.Fatalf("entries = %+v", res.Entries)
	}
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.PrjMissingName {
		t.Fatalf("diagnostics = %v", items)
	}
	if items[0].Primary.Func != "missing" {
		t.Fatalf("location = %s", items[0].Primary)
	}
}

func TestTimingsDiagnostic(t *testing.T) {
	res := compileSource(t, vecUnit, Options{Timings: true})
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.PrjTimings || items[0].Severity != diag.SevInfo {
		t.Fatalf("diagnostics = %v", items)
	}
	if len(items[0].Notes) != 1 || !strings.Contains(items[0].Notes[0].Msg, `"compile"`) {
		t.Fatalf("notes = %v", items[0].Notes)
	}
	if res.Timing == nil || len(res.Timing.Phases) != 2 {
		t.Fatalf("timing = %+v", res.Timing)
	}
}

func TestCompileFilesInParallel(t *testing.T) {
	dir := t.TempDir()
	fib := `
[[func]]
name = "fib"
params = ["n"]
body = """
entry:
  c = lt n 2
  cbranch c small big
small:
  ret n
big:
  a = sub n 1
  x = call fib a
  b = sub n 2
  y = call fib b
  r = add x y
  ret r
"""

[[entry]]
func = "fib"
args = ["int64"]
`
	for name, src := range map[string]string{"b.toml": fib, "a.toml": vecUnit, "notes.txt": "ignored"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	var mu sync.Mutex
	phases := make(map[string]int)
	done := 0
	opts := Options{Jobs: 2, PhaseObserver: func(ev PhaseEvent) {
		mu.Lock()
		defer mu.Unlock()
		switch ev.Status {
		case PhaseEnd:
			phases[ev.Name]++
		case UnitDone:
			done++
		}
	}}
	results, err := CompileFiles(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("%d results", len(results))
	}
	if filepath.Base(results[0].Path) != "a.toml" || filepath.Base(results[1].Path) != "b.toml" {
		t.Fatalf("order = %s, %s", results[0].Path, results[1].Path)
	}
	for _, r := range results {
		if r.Bag.HasErrors() {
			t.Fatalf("%s: %v", r.Path, r.Bag.Items())
		}
	}
	if got := results[1].Entries[0].Name; got != "fib[int64]" {
		t.Fatalf("fib entry = %s", got)
	}
	for _, p := range []string{"load", "declare", "compile"} {
		if phases[p] != 2 {
			t.Errorf("phase %s ended %d time(s)", p, phases[p])
		}
	}
	if done != 2 {
		t.Errorf("%d unit(s) reported done", done)
	}
}

func TestParseEmitMode(t *testing.T) {
	for in, want := range map[string]EmitMode{"": EmitNone, "ir": EmitIR, "LL": EmitLL, "none": EmitNone} {
		got, err := ParseEmitMode(in)
		if err != nil || got != want {
			t.Errorf("ParseEmitMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseEmitMode("asm"); err == nil {
		t.Error("asm accepted")
	}
}

func TestCompileIsTraced(t *testing.T) {
	var buf bytes.Buffer
	ctx := trace.WithTracer(context.Background(), trace.NewStream(&buf, trace.LevelDetail, trace.FormatText))
	if _, err := CompileSource(ctx, "vec.toml", vecUnit, Options{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"[vec.toml]", "> entry norm2", "> norm2[Vec]", "infer norm2[Vec]", "callconv Vec.dot"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace lacks %q:\n%s", want, out)
		}
	}
}
