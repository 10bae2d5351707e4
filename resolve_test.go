package banklog

import "testing"

func TestResolveTargetRelative(t *testing.T) {
	// BRA at $80:800D, operand $10 -> target = pc+2+16 = $80801F.
	got := ResolveTarget(0x80800D, 0x80, 0x10, Relative, 1)
	want := uint64(0x80801F)
	if got != want {
		t.Errorf("got $%06X, want $%06X", got, want)
	}
}

func TestResolveTargetRelativeBackwards(t *testing.T) {
	// Negative branch: operand $FE (== -2) from pc $80:8000 -> $808000.
	got := ResolveTarget(0x808000, 0x80, 0xFE, Relative, 1)
	want := uint64(0x808000)
	if got != want {
		t.Errorf("got $%06X, want $%06X", got, want)
	}
}

func TestResolveTargetRelativeLong(t *testing.T) {
	got := ResolveTarget(0x808000, 0x80, 0x1000, RelativeLong, 2)
	want := uint64(0x809002)
	if got != want {
		t.Errorf("got $%06X, want $%06X", got, want)
	}
}

func TestResolveTargetDirectPageFoldsToWRAM(t *testing.T) {
	got := ResolveTarget(0x808000, 0x80, 0x12, Direct, 1)
	want := uint64(0x7E0012)
	if got != want {
		t.Errorf("got $%06X, want $%06X", got, want)
	}
}

func TestResolveTargetLowBankWRAMMirror(t *testing.T) {
	got := ResolveTarget(0x808000, 0x80, 0x1234, Absolute, 2)
	want := uint64(0x7E1234)
	if got != want {
		t.Errorf("got $%06X, want $%06X", got, want)
	}
}

func TestResolveTargetHWREGPassthrough(t *testing.T) {
	got := ResolveTarget(0x808000, 0x80, 0x2140, Absolute, 2)
	want := uint64(0x002140)
	if got != want {
		t.Errorf("got $%06X, want $%06X", got, want)
	}
}

func TestResolveTargetDataBankPropagation(t *testing.T) {
	got := ResolveTarget(0x808000, 0x7E, 0x9000, Absolute, 2)
	want := uint64(0x7E9000)
	if got != want {
		t.Errorf("got $%06X, want $%06X", got, want)
	}
}

func TestResolveTargetLong(t *testing.T) {
	got := ResolveTarget(0x808000, 0x80, 0xA08686, AbsoluteLong, 3)
	want := uint64(0xA08686)
	if got != want {
		t.Errorf("got $%06X, want $%06X", got, want)
	}
}
