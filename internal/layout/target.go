package layout

// Target describes the ABI target triple and its pointer properties.
type Target struct {
	Triple   string // e.g. "x86_64-linux-gnu"
	PtrSize  int    // bytes
	PtrAlign int    // bytes
	// Int64Align is 4 on i386 System V, 8 elsewhere.
	Int64Align int
}

func X86_64LinuxGNU() Target {
	return Target{
		Triple:     "x86_64-linux-gnu",
		PtrSize:    8,
		PtrAlign:   8,
		Int64Align: 8,
	}
}

func AArch64LinuxGNU() Target {
	return Target{
		Triple:     "aarch64-linux-gnu",
		PtrSize:    8,
		PtrAlign:   8,
		Int64Align: 8,
	}
}

func I386LinuxGNU() Target {
	return Target{
		Triple:     "i386-linux-gnu",
		PtrSize:    4,
		PtrAlign:   4,
		Int64Align: 4,
	}
}

// TargetByName resolves a triple; the empty string selects x86_64.
func TargetByName(name string) (Target, error) {
	switch name {
	case "", "x86_64", "x86_64-linux-gnu":
		return X86_64LinuxGNU(), nil
	case "aarch64", "aarch64-linux-gnu":
		return AArch64LinuxGNU(), nil
	case "i386", "i386-linux-gnu":
		return I386LinuxGNU(), nil
	}
	return Target{}, &LayoutError{Kind: LayoutErrUnknownTarget, Repr: name}
}
