package ir

import (
	"fmt"
	"strconv"
	"strings"

	"flyc/internal/diag"
)

// ParseError reports a malformed textual op.
type ParseError struct {
	Func string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Func, e.Line, e.Msg)
}

func (e *ParseError) Code() diag.Code { return diag.PrjBadOp }

// Parse builds an untyped function from its textual listing:
//
//	entry:
//	  c = lt n 2
//	  cbranch c small big
//	small:
//	  ret n
//	big:
//	  r = call fib n
//	  ret r
//
// Bare identifiers resolve to parameters, then to named results; anything
// else becomes a global looked up by inference. A leading @ forces a
// global. Phi operands are written pred:value.
func Parse(name string, params []string, body string) (*Func, error) {
	f := &Func{Name: name}
	for i, p := range params {
		f.Params = append(f.Params, &Arg{Name: p, Index: i})
	}
	type pending struct {
		op   *Op
		toks []string
		line int
	}
	var ops []pending
	results := make(map[string]*Op)
	var cur *Block
	for i, raw := range strings.Split(body, "\n") {
		line := i + 1
		if j := strings.IndexByte(raw, '#'); j >= 0 && !strings.Contains(raw[:j], `"`) {
			raw = raw[:j]
		}
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		if strings.HasSuffix(text, ":") && !strings.ContainsAny(text, " \t") {
			label := strings.TrimSuffix(text, ":")
			if f.BlockByName(label) != nil {
				return nil, &ParseError{Func: name, Line: line, Msg: fmt.Sprintf("duplicate block %q", label)}
			}
			cur = f.NewBlock(label)
			continue
		}
		if cur == nil {
			cur = f.NewBlock("entry")
		}
		toks, err := tokenize(text)
		if err != nil {
			return nil, &ParseError{Func: name, Line: line, Msg: err.Error()}
		}
		result := ""
		if len(toks) >= 2 && toks[1] == "=" {
			result = toks[0]
			toks = toks[2:]
		}
		if len(toks) == 0 {
			return nil, &ParseError{Func: name, Line: line, Msg: "missing opcode"}
		}
		opcode, ok := ParseOpcode(toks[0])
		if !ok {
			return nil, &ParseError{Func: name, Line: line, Msg: fmt.Sprintf("unknown opcode %q", toks[0])}
		}
		op := f.NewOp(opcode)
		op.block = cur
		cur.Ops = append(cur.Ops, op)
		if result != "" {
			if !opcode.HasResult() {
				return nil, &ParseError{Func: name, Line: line, Msg: fmt.Sprintf("%s produces no value", opcode)}
			}
			if _, dup := results[result]; dup || f.Param(result) != nil {
				return nil, &ParseError{Func: name, Line: line, Msg: fmt.Sprintf("%q redefined", result)}
			}
			op.Name = result
			results[result] = op
		}
		ops = append(ops, pending{op: op, toks: toks[1:], line: line})
	}
	if len(f.Blocks) == 0 {
		f.NewBlock("entry")
	}

	operand := func(tok string) (Value, error) {
		if v, ok, err := parseLiteral(tok); ok || err != nil {
			return v, err
		}
		if g, ok := strings.CutPrefix(tok, "@"); ok {
			return &Global{Name: g}, nil
		}
		if p := f.Param(tok); p != nil {
			return p, nil
		}
		if op, ok := results[tok]; ok {
			return op, nil
		}
		return &Global{Name: tok}, nil
	}
	block := func(tok string) (*Block, error) {
		b := f.BlockByName(tok)
		if b == nil {
			return nil, fmt.Errorf("unknown block %q", tok)
		}
		return b, nil
	}

	for _, p := range ops {
		if err := fillOp(p.op, p.toks, operand, block); err != nil {
			return nil, &ParseError{Func: name, Line: p.line, Msg: err.Error()}
		}
	}
	return f, nil
}

func fillOp(op *Op, toks []string, operand func(string) (Value, error), block func(string) (*Block, error)) error {
	want := func(n int) error {
		if len(toks) != n {
			return fmt.Errorf("%s takes %d operand(s), got %d", op.Opcode, n, len(toks))
		}
		return nil
	}
	values := func(ts []string) error {
		for _, t := range ts {
			v, err := operand(t)
			if err != nil {
				return err
			}
			op.Args = append(op.Args, v)
		}
		return nil
	}
	switch {
	case op.Opcode == OpGetField:
		if err := want(2); err != nil {
			return err
		}
		op.Attr = strings.TrimPrefix(toks[1], ".")
		return values(toks[:1])
	case op.Opcode == OpSetField:
		if err := want(3); err != nil {
			return err
		}
		op.Attr = strings.TrimPrefix(toks[1], ".")
		return values([]string{toks[0], toks[2]})
	case op.Opcode == OpCall:
		if len(toks) == 0 {
			return fmt.Errorf("call needs a callee")
		}
		return values(toks)
	case op.Opcode == OpNew:
		if len(toks) == 0 {
			return fmt.Errorf("new needs a class")
		}
		op.Attr = toks[0]
		return values(toks[1:])
	case op.Opcode.IsUnary():
		if err := want(1); err != nil {
			return err
		}
		return values(toks)
	case op.Opcode.IsBinary() || op.Opcode.IsCompare():
		if err := want(2); err != nil {
			return err
		}
		return values(toks)
	case op.Opcode == OpPhi:
		for _, t := range toks {
			pred, val, ok := strings.Cut(t, ":")
			if !ok {
				return fmt.Errorf("phi operand %q is not pred:value", t)
			}
			b, err := block(pred)
			if err != nil {
				return err
			}
			op.Targets = append(op.Targets, b)
			if err := values([]string{val}); err != nil {
				return err
			}
		}
		return nil
	case op.Opcode == OpJump:
		if err := want(1); err != nil {
			return err
		}
		b, err := block(toks[0])
		if err != nil {
			return err
		}
		op.Targets = []*Block{b}
		return nil
	case op.Opcode == OpCBranch:
		if err := want(3); err != nil {
			return err
		}
		for _, t := range toks[1:] {
			b, err := block(t)
			if err != nil {
				return err
			}
			op.Targets = append(op.Targets, b)
		}
		return values(toks[:1])
	case op.Opcode == OpRet:
		if len(toks) > 1 {
			return fmt.Errorf("ret takes at most one operand")
		}
		return values(toks)
	default:
		return fmt.Errorf("%s cannot appear in front-end IR", op.Opcode)
	}
}

func parseLiteral(tok string) (Value, bool, error) {
	switch tok {
	case "true":
		return &Const{Value: true}, true, nil
	case "false":
		return &Const{Value: false}, true, nil
	case "none":
		return &Const{Value: nil}, true, nil
	}
	if strings.HasPrefix(tok, `"`) {
		s, err := strconv.Unquote(tok)
		if err != nil {
			return nil, false, fmt.Errorf("bad string literal %s", tok)
		}
		return &Const{Value: s}, true, nil
	}
	if tok == "" || !(tok[0] == '-' || tok[0] == '+' || (tok[0] >= '0' && tok[0] <= '9')) {
		return nil, false, nil
	}
	if n, err := strconv.ParseInt(tok, 0, 64); err == nil {
		return &Const{Value: n}, true, nil
	}
	if x, err := strconv.ParseFloat(tok, 64); err == nil {
		return &Const{Value: x}, true, nil
	}
	return nil, false, fmt.Errorf("bad numeric literal %s", tok)
}

// tokenize splits on blanks and commas, keeping quoted strings whole.
func tokenize(s string) ([]string, error) {
	var toks []string
	var cur strings.Builder
	inStr := false
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inStr:
			cur.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				cur.WriteByte(s[i])
			} else if c == '"' {
				inStr = false
			}
		case c == '"':
			inStr = true
			cur.WriteByte(c)
		case c == ' ' || c == '\t' || c == ',':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	if inStr {
		return nil, fmt.Errorf("unterminated string")
	}
	flush()
	return toks, nil
}
