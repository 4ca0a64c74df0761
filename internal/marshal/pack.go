package marshal

import (
	"encoding/binary"
	"fmt"
	"math"

	"flyc/internal/layout"
	"flyc/internal/repr"
)

// Pack writes a pointer-free native value into a little-endian buffer laid
// out by e.
func Pack(e *layout.LayoutEngine, n *Native) ([]byte, error) {
	if n == nil || n.Repr == nil {
		return nil, &Error{Kind: ErrValue, Detail: "nil native"}
	}
	if n.Repr.HasPointers() {
		return nil, &Error{Kind: ErrHasPointers, Type: n.Repr.String()}
	}
	size, err := e.SizeOf(n.Repr)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if err := pack(e, n, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func pack(e *layout.LayoutEngine, n *Native, buf []byte) error {
	switch n.Repr.Kind {
	case repr.KindPrim:
		return packPrim(n.Prim, buf)
	case repr.KindStruct:
		l, err := e.LayoutOf(n.Repr)
		if err != nil {
			return err
		}
		if len(n.Fields) != len(l.FieldOffsets) {
			return &Error{Kind: ErrValue, Type: n.Repr.String(), Detail: "field count does not match layout"}
		}
		for i, f := range n.Fields {
			if err := pack(e, f, buf[l.FieldOffsets[i]:]); err != nil {
				return err
			}
		}
		return nil
	}
	return &Error{Kind: ErrHasPointers, Type: n.Repr.String()}
}

func packPrim(v any, buf []byte) error {
	le := binary.LittleEndian
	switch x := v.(type) {
	case bool:
		if x {
			buf[0] = 1
		} else {
			buf[0] = 0
		}
	case int8:
		buf[0] = byte(x)
	case uint8:
		buf[0] = x
	case int16:
		le.PutUint16(buf, uint16(x))
	case uint16:
		le.PutUint16(buf, x)
	case int32:
		le.PutUint32(buf, uint32(x))
	case uint32:
		le.PutUint32(buf, x)
	case int64:
		le.PutUint64(buf, uint64(x))
	case uint64:
		le.PutUint64(buf, x)
	case float32:
		le.PutUint32(buf, math.Float32bits(x))
	case float64:
		le.PutUint64(buf, math.Float64bits(x))
	default:
		return &Error{Kind: ErrValue, Detail: fmt.Sprintf("cannot pack %T", v)}
	}
	return nil
}

// Unpack reads a native value of representation r from buf.
func Unpack(e *layout.LayoutEngine, r *repr.Repr, buf []byte) (*Native, error) {
	if r.HasPointers() {
		return nil, &Error{Kind: ErrHasPointers, Type: r.String()}
	}
	size, err := e.SizeOf(r)
	if err != nil {
		return nil, err
	}
	if len(buf) < size {
		return nil, &Error{Kind: ErrBuffer, Type: r.String(), Detail: fmt.Sprintf("%d bytes, want %d", len(buf), size)}
	}
	return unpack(e, r, buf)
}

func unpack(e *layout.LayoutEngine, r *repr.Repr, buf []byte) (*Native, error) {
	n := &Native{Repr: r}
	if r.Kind == repr.KindStruct {
		l, err := e.LayoutOf(r)
		if err != nil {
			return nil, err
		}
		for i, f := range r.Fields {
			fn, err := unpack(e, f.Repr, buf[l.FieldOffsets[i]:])
			if err != nil {
				return nil, err
			}
			n.Fields = append(n.Fields, fn)
		}
		return n, nil
	}
	le := binary.LittleEndian
	switch r.Prim {
	case "bool":
		n.Prim = buf[0] != 0
	case "int8":
		n.Prim = int8(buf[0])
	case "uint8", "none":
		n.Prim = buf[0]
	case "int16":
		n.Prim = int16(le.Uint16(buf))
	case "uint16":
		n.Prim = le.Uint16(buf)
	case "int32":
		n.Prim = int32(le.Uint32(buf))
	case "uint32":
		n.Prim = le.Uint32(buf)
	case "int64":
		n.Prim = int64(le.Uint64(buf))
	case "uint64":
		n.Prim = le.Uint64(buf)
	case "float32":
		n.Prim = math.Float32frombits(le.Uint32(buf))
	case "float64":
		n.Prim = math.Float64frombits(le.Uint64(buf))
	default:
		return nil, &Error{Kind: ErrValue, Type: r.Prim, Detail: "cannot unpack"}
	}
	return n, nil
}
