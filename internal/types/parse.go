package types

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseType parses a single type expression such as Complex[float64],
// Pointer[a] or (a -> b).
func (in *Interner) ParseType(src string) (TypeID, error) {
	p := &typeParser{in: in, toks: lexType(src), src: src}
	if p.err != nil {
		return NoTypeID, p.err
	}
	params, result, err := p.signature()
	if err != nil {
		return NoTypeID, err
	}
	if !p.eof() {
		return NoTypeID, p.errorf("unexpected %q", p.peek())
	}
	if params != nil {
		return in.Func(params, result), nil
	}
	return result, nil
}

// ParseSignature parses an arrow signature a -> b -> r into its parameter
// types and result. "() -> r" declares no parameters; a bare "r" also
// declares no parameters.
func (in *Interner) ParseSignature(src string) ([]TypeID, TypeID, error) {
	p := &typeParser{in: in, toks: lexType(src), src: src}
	params, result, err := p.signature()
	if err != nil {
		return nil, NoTypeID, err
	}
	if !p.eof() {
		return nil, NoTypeID, p.errorf("unexpected %q", p.peek())
	}
	if params == nil {
		params = []TypeID{}
	}
	return params, result, nil
}

// MustParse is ParseType for literals in tests and builtin tables.
func (in *Interner) MustParse(src string) TypeID {
	id, err := in.ParseType(src)
	if err != nil {
		panic(err)
	}
	return id
}

type typeParser struct {
	in   *Interner
	toks []string
	pos  int
	src  string
	err  error
}

func lexType(src string) []string {
	var toks []string
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '-' && i+1 < len(rs) && rs[i+1] == '>':
			toks = append(toks, "->")
			i += 2
		case strings.ContainsRune("[](),", r):
			toks = append(toks, string(r))
			i++
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			j := i
			for j < len(rs) && (rs[j] == '_' || unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j])) {
				j++
			}
			toks = append(toks, string(rs[i:j]))
			i = j
		default:
			toks = append(toks, string(r))
			i++
		}
	}
	return toks
}

func (p *typeParser) eof() bool { return p.pos >= len(p.toks) }

func (p *typeParser) peek() string {
	if p.eof() {
		return ""
	}
	return p.toks[p.pos]
}

func (p *typeParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *typeParser) expect(tok string) error {
	if got := p.next(); got != tok {
		if got == "" {
			got = "end of input"
		}
		return p.errorf("expected %q, got %q", tok, got)
	}
	return nil
}

func (p *typeParser) errorf(format string, args ...any) error {
	return &Error{Kind: ErrSyntax, Detail: fmt.Sprintf("%s (in %q)", fmt.Sprintf(format, args...), p.src)}
}

// signature := unit ('->' unit)*. Returns nil params when no arrow was seen.
func (p *typeParser) signature() ([]TypeID, TypeID, error) {
	var parts []TypeID
	emptyHead := false
	if p.peek() == "(" && p.pos+1 < len(p.toks) && p.toks[p.pos+1] == ")" {
		p.pos += 2
		emptyHead = true
		if p.peek() != "->" {
			return nil, NoTypeID, p.errorf("expected \"->\" after ()")
		}
	} else {
		t, err := p.typ()
		if err != nil {
			return nil, NoTypeID, err
		}
		parts = append(parts, t)
	}
	for p.peek() == "->" {
		p.next()
		t, err := p.typ()
		if err != nil {
			return nil, NoTypeID, err
		}
		parts = append(parts, t)
	}
	if len(parts) == 1 && !emptyHead {
		return nil, parts[0], nil
	}
	params := make([]TypeID, 0, len(parts)-1)
	params = append(params, parts[:len(parts)-1]...)
	return params, parts[len(parts)-1], nil
}

func (p *typeParser) typ() (TypeID, error) {
	tok := p.next()
	switch {
	case tok == "":
		return NoTypeID, p.errorf("unexpected end of input")
	case tok == "(":
		params, result, err := p.signature()
		if err != nil {
			return NoTypeID, err
		}
		if err := p.expect(")"); err != nil {
			return NoTypeID, err
		}
		if params != nil {
			return p.in.Func(params, result), nil
		}
		return result, nil
	case isIdent(tok):
		return p.named(tok)
	default:
		return NoTypeID, p.errorf("unexpected %q", tok)
	}
}

func (p *typeParser) named(name string) (TypeID, error) {
	if id, ok := p.in.Prim(name); ok {
		return id, nil
	}
	if _, ok := p.in.Alias(name); ok {
		c, err := p.curried(name)
		if err != nil {
			return NoTypeID, err
		}
		return p.in.Complete(c, p.in.missingVars(c)...)
	}
	ctor, isCtor := p.in.CtorByName(name)
	if p.peek() == "[" {
		if !isCtor {
			return NoTypeID, &Error{Kind: ErrUnknownName, Name: name}
		}
		params, err := p.brackets()
		if err != nil {
			return NoTypeID, err
		}
		return p.in.App(ctor, params...)
	}
	if isCtor {
		return p.in.Generic(ctor)
	}
	if isVarName(name) {
		return p.in.Var(name), nil
	}
	return NoTypeID, &Error{Kind: ErrUnknownName, Name: name}
}

// curried reads a constructor or alias applied to any prefix of its
// parameters.
func (p *typeParser) curried(name string) (Curried, error) {
	c, ok := p.in.Alias(name)
	if !ok {
		ctor, isCtor := p.in.CtorByName(name)
		if !isCtor {
			return Curried{}, &Error{Kind: ErrUnknownName, Name: name}
		}
		c = Curried{Ctor: ctor}
	}
	if p.peek() != "[" {
		return c, nil
	}
	params, err := p.brackets()
	if err != nil {
		return Curried{}, err
	}
	return p.in.Extend(c, params...)
}

// brackets reads a bracketed, comma-separated parameter list.
func (p *typeParser) brackets() ([]TypeID, error) {
	if err := p.expect("["); err != nil {
		return nil, err
	}
	var params []TypeID
	for p.peek() != "]" {
		t, err := p.typ()
		if err != nil {
			return nil, err
		}
		params = append(params, t)
		if p.peek() == "," {
			p.next()
			continue
		}
		if p.peek() != "]" {
			return nil, p.errorf("expected \",\" or \"]\", got %q", p.peek())
		}
	}
	p.next()
	return params, nil
}

// ParseCurried parses a possibly partial application such as Pair[int64]
// for Pair[a, b]. Aliases may be extended further.
func (in *Interner) ParseCurried(src string) (Curried, error) {
	p := &typeParser{in: in, toks: lexType(src), src: src}
	name := p.next()
	if !isIdent(name) {
		return Curried{}, p.errorf("expected a constructor name")
	}
	c, err := p.curried(name)
	if err != nil {
		return Curried{}, err
	}
	if !p.eof() {
		return Curried{}, p.errorf("unexpected %q", p.peek())
	}
	return c, nil
}

// missingVars names the parameters c still lacks after the constructor's
// own parameter names.
func (in *Interner) missingVars(c Curried) []TypeID {
	ctor, ok := in.Ctor(c.Ctor)
	if !ok {
		return nil
	}
	out := make([]TypeID, 0, in.Missing(c))
	for _, name := range ctor.Params[len(c.Args):] {
		out = append(out, in.Var(name))
	}
	return out
}

func isIdent(tok string) bool {
	for i, r := range tok {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return tok != ""
}

// isVarName accepts lower-case names and single letters (a, T, X).
func isVarName(name string) bool {
	rs := []rune(name)
	return len(rs) == 1 || unicode.IsLower(rs[0])
}
