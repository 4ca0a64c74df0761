package layout

import (
	"fortio.org/safecast"

	"flyc/internal/repr"
	"flyc/internal/types"
)

func (e *LayoutEngine) computeLayout(r *repr.Repr) (TypeLayout, error) {
	switch r.Kind {
	case repr.KindPointer:
		return e.ptrLayout(), nil
	case repr.KindPrim:
		return e.primLayout(r)
	case repr.KindStruct:
		return e.structLayout(r)
	default:
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnknownPrim, Repr: r.String()}
	}
}

func (e *LayoutEngine) primLayout(r *repr.Repr) (TypeLayout, error) {
	info, ok := types.LookupPrimInfo(r.Prim)
	if !ok {
		return TypeLayout{}, &LayoutError{Kind: LayoutErrUnknownPrim, Repr: r.Prim}
	}
	switch {
	case info.Void:
		return TypeLayout{Size: 0, Align: 1}, nil
	case info.Bool:
		return TypeLayout{Size: 1, Align: 1}, nil
	case info.Indirect:
		return e.ptrLayout(), nil
	}
	l := scalarLayoutBytes(info.Bits / 8)
	if l.Size == 8 && e.Target.Int64Align > 0 {
		l.Align = e.Target.Int64Align
	}
	return l, nil
}

func (e *LayoutEngine) ptrLayout() TypeLayout {
	ptrSize := e.Target.PtrSize
	ptrAlign := e.Target.PtrAlign
	if ptrSize <= 0 {
		ptrSize = 8
	}
	if ptrAlign <= 0 {
		ptrAlign = ptrSize
	}
	return TypeLayout{Size: ptrSize, Align: ptrAlign}
}

func scalarLayoutBytes(size int) TypeLayout {
	if size <= 0 {
		return TypeLayout{Size: 0, Align: 1}
	}
	return TypeLayout{Size: size, Align: size}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}

func (e *LayoutEngine) structLayout(r *repr.Repr) (TypeLayout, error) {
	offsets := make([]int, len(r.Fields))
	aligns := make([]int, len(r.Fields))
	size := 0
	align := 1
	for i, f := range r.Fields {
		fl, err := e.LayoutOf(f.Repr)
		if err != nil {
			return TypeLayout{}, err
		}
		fAlign := max(fl.Align, 1)
		size = roundUp(size, fAlign)
		offsets[i] = size
		aligns[i] = fAlign
		size += fl.Size
		align = max(align, fAlign)
	}
	size = roundUp(size, align)
	if _, err := safecast.Conv[uint32](size); err != nil {
		return TypeLayout{}, &LayoutError{Kind: LayoutErrTooLarge, Repr: r.Name, Err: err}
	}
	return TypeLayout{
		Size:         size,
		Align:        align,
		FieldOffsets: offsets,
		FieldAligns:  aligns,
	}, nil
}
