package driver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"

	"flyc/internal/diag"
)

// Unit is the decoded form of a unit file: the declarations a front end
// would hand to the compiler plus the entry points to specialize.
type Unit struct {
	Path       string          `toml:"-"`
	Compiler   CompilerConfig  `toml:"compiler"`
	Interfaces []InterfaceDecl `toml:"interface"`
	Classes    []ClassDecl     `toml:"class"`
	Aliases    []AliasDecl     `toml:"alias"`
	Funcs      []FuncDecl      `toml:"func"`
	Entries    []EntryDecl     `toml:"entry"`
}

// CompilerConfig is the [compiler] table.
type CompilerConfig struct {
	// Target selects the data layout used to pack entry values.
	Target   string `toml:"target"`
	MaxDepth int    `toml:"max_depth"`
}

type InterfaceDecl struct {
	Name    string     `toml:"name"`
	Params  []string   `toml:"params"`
	Methods []FuncDecl `toml:"method"`
}

type ClassDecl struct {
	Name   string   `toml:"name"`
	Params []string `toml:"params"`
	// Stack classes are passed by value as a bare struct.
	Stack      bool        `toml:"stack"`
	ReprAs     string      `toml:"repr_as"`
	GetAttr    string      `toml:"getattr"`
	SetAttr    string      `toml:"setattr"`
	Implements []string    `toml:"implements"`
	Fields     []FieldDecl `toml:"field"`
	Methods    []FuncDecl  `toml:"method"`
}

// AliasDecl names a constructor applied to a prefix of its parameters,
// e.g. IntPair = Pair[int64]; the rest are supplied where it is used.
type AliasDecl struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type FieldDecl struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// FuncDecl declares one implementation. Sig is an arrow signature whose
// result may be "?" to infer it from the body; an empty Sig gives every
// parameter its own type variable.
type FuncDecl struct {
	Name     string   `toml:"name"`
	Params   []string `toml:"params"`
	Sig      string   `toml:"sig"`
	Defaults []any    `toml:"defaults"`
	Variadic bool     `toml:"variadic"`
	Inline   bool     `toml:"inline"`
	Opaque   bool     `toml:"opaque"`
	Abstract bool     `toml:"abstract"`
	// ReturnsArg types the result of an opaque implementation as the type
	// of one of its arguments.
	ReturnsArg *int   `toml:"returns_arg"`
	Body       string `toml:"body"`
}

// EntryDecl requests the specialization of Func for Args. Values, when
// present, are host arguments marshaled into a native frame.
type EntryDecl struct {
	Func   string   `toml:"func"`
	Args   []string `toml:"args"`
	Values []any    `toml:"values"`
}

// UnitError reports a malformed unit file.
type UnitError struct {
	Path string
	Item string
	Err  error
}

func (e *UnitError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Path)
	if e.Item != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Item)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *UnitError) Unwrap() error { return e.Err }

func (e *UnitError) Code() diag.Code {
	if c := diag.CodeOf(e.Err); c != diag.UnknownCode {
		return c
	}
	return diag.PrjBadUnit
}

// LoadUnit reads and decodes a unit file.
func LoadUnit(path string) (*Unit, error) {
	var u Unit
	meta, err := toml.DecodeFile(path, &u)
	if err != nil {
		return nil, &UnitError{Path: path, Err: fmt.Errorf("failed to parse TOML: %w", err)}
	}
	u.Path = path
	if err := checkMeta(path, meta); err != nil {
		return nil, err
	}
	u.normalize()
	return &u, u.check()
}

// DecodeUnit decodes a unit held in memory; name labels diagnostics.
func DecodeUnit(name, src string) (*Unit, error) {
	var u Unit
	meta, err := toml.Decode(src, &u)
	if err != nil {
		return nil, &UnitError{Path: name, Err: fmt.Errorf("failed to parse TOML: %w", err)}
	}
	u.Path = name
	if err := checkMeta(name, meta); err != nil {
		return nil, err
	}
	u.normalize()
	return &u, u.check()
}

func checkMeta(path string, meta toml.MetaData) error {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}
	return &UnitError{Path: path, Err: fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))}
}

// normalize rewrites every identifier, type and body to NFC so that
// canonically equivalent spellings name the same declaration.
func (u *Unit) normalize() {
	nfc := norm.NFC.String
	all := func(ss []string) {
		for i := range ss {
			ss[i] = nfc(ss[i])
		}
	}
	fn := func(f *FuncDecl) {
		f.Name = nfc(f.Name)
		all(f.Params)
		f.Sig = nfc(f.Sig)
		f.Body = nfc(f.Body)
	}
	u.Compiler.Target = nfc(u.Compiler.Target)
	for i := range u.Interfaces {
		d := &u.Interfaces[i]
		d.Name = nfc(d.Name)
		all(d.Params)
		for j := range d.Methods {
			fn(&d.Methods[j])
		}
	}
	for i := range u.Classes {
		d := &u.Classes[i]
		d.Name = nfc(d.Name)
		all(d.Params)
		all(d.Implements)
		d.ReprAs = nfc(d.ReprAs)
		d.GetAttr = nfc(d.GetAttr)
		d.SetAttr = nfc(d.SetAttr)
		for j := range d.Fields {
			d.Fields[j].Name = nfc(d.Fields[j].Name)
			d.Fields[j].Type = nfc(d.Fields[j].Type)
		}
		for j := range d.Methods {
			fn(&d.Methods[j])
		}
	}
	for i := range u.Aliases {
		u.Aliases[i].Name = nfc(u.Aliases[i].Name)
		u.Aliases[i].Type = nfc(u.Aliases[i].Type)
	}
	for i := range u.Funcs {
		fn(&u.Funcs[i])
	}
	for i := range u.Entries {
		u.Entries[i].Func = nfc(u.Entries[i].Func)
		all(u.Entries[i].Args)
	}
}

// check rejects declarations that cannot be handed to a session at all.
func (u *Unit) check() error {
	var errs []error
	bad := func(item, format string, args ...any) {
		errs = append(errs, &UnitError{Path: u.Path, Item: item, Err: fmt.Errorf(format, args...)})
	}
	if u.Compiler.MaxDepth < 0 {
		bad("compiler", "max_depth must not be negative")
	}
	seen := make(map[string]string)
	name := func(kind, n string) {
		if n == "" {
			bad(kind, "missing name")
			return
		}
		if prev, dup := seen[n]; dup {
			bad(kind+" "+n, "name already used by %s", prev)
			return
		}
		seen[n] = kind
	}
	for _, i := range u.Interfaces {
		name("interface", i.Name)
	}
	for _, c := range u.Classes {
		name("class", c.Name)
		for _, f := range c.Fields {
			if f.Name == "" || f.Type == "" {
				bad("class "+c.Name, "field needs a name and a type")
			}
		}
	}
	for _, f := range u.Funcs {
		if f.Name == "" {
			bad("func", "missing name")
		}
		if prev, clash := seen[f.Name]; clash {
			bad("func "+f.Name, "name already used by %s", prev)
		}
	}
	for i, e := range u.Entries {
		item := fmt.Sprintf("entry #%d", i)
		if e.Func == "" {
			bad(item, "missing func")
		}
		if e.Values != nil && len(e.Values) != len(e.Args) {
			bad(item, "%d value(s) for %d argument type(s)", len(e.Values), len(e.Args))
		}
	}
	return errors.Join(errs...)
}
