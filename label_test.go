package banklog

import "testing"

func TestClassifyRegionWRAM(t *testing.T) {
	addr, family := classifyRegion(0x7E1234)
	if family != "WRAM" || addr != 0x7E1234 {
		t.Errorf("got %06X/%s, want 7E1234/WRAM", addr, family)
	}
}

func TestClassifyRegionSRAM(t *testing.T) {
	addr, family := classifyRegion(0x700000)
	if family != "SRAM" || addr != 0x700000 {
		t.Errorf("got %06X/%s, want 700000/SRAM", addr, family)
	}
}

func TestClassifyRegionLORAMFoldsToWRAM(t *testing.T) {
	addr, family := classifyRegion(0x801000)
	if family != "LORAM" || addr != 0x7E1000 {
		t.Errorf("got %06X/%s, want 7E1000/LORAM", addr, family)
	}
}

func TestClassifyRegionHWREGStripsBank(t *testing.T) {
	addr, family := classifyRegion(0x902140)
	if family != "HWREG" || addr != 0x002140 {
		t.Errorf("got %06X/%s, want 002140/HWREG", addr, family)
	}
}

func TestClassifyRegionDAT(t *testing.T) {
	addr, family := classifyRegion(0x808000)
	if family != "DAT" || addr != 0x808000 {
		t.Errorf("got %06X/%s, want 808000/DAT", addr, family)
	}
}

func TestLabelStoreInsertExactFirstWins(t *testing.T) {
	store := NewLabelStore()
	store.insertExact(0x808000, "FIRST", LabelType{Kind: KindData})
	store.insertExact(0x808000, "SECOND", LabelType{Kind: KindData})

	l, ok := store.Get(0x808000)
	if !ok || l.Name != "FIRST" {
		t.Errorf("got %+v, want the first-inserted label to win", l)
	}
}

func TestLabelStoreInsertNeighborhoodGuard(t *testing.T) {
	store := NewLabelStore()
	store.insertNeighborhood(0x808000, "TABLE", LabelType{Kind: KindDataTable})

	// within +/-2 of an existing label: suppressed, no new label.
	store.insertNeighborhood(0x808002, "TABLE2", LabelType{Kind: KindDataTable})
	if _, ok := store.Get(0x808002); ok {
		t.Error("expected a neighbor insert to be suppressed")
	}

	// outside the guard window: inserted.
	store.insertNeighborhood(0x808010, "TABLE3", LabelType{Kind: KindDataTable})
	if _, ok := store.Get(0x808010); !ok {
		t.Error("expected an out-of-range insert to succeed")
	}
}

func TestGenerateLabelsSubroutine(t *testing.T) {
	cfg := &Config{}
	code := Code{
		Address: 0x808000,
		Opcode:  Opcode{Name: "JSR", AddrMode: Absolute},
		Arg:     Arg{Kind: ArgAddress, Value: 0x8500},
		Length:  2,
		DB:      0x80,
	}
	lm := map[uint64][]Line{0x808000: {CodeLine(code)}}

	store := GenerateLabels(lm, cfg)
	l, ok := store.Get(0x808500)
	if !ok {
		t.Fatal("expected a Subroutine label at the JSR target")
	}
	if l.Name != "SUB_808500" {
		t.Errorf("got %q, want SUB_808500", l.Name)
	}
}

func TestGenerateLabelsBranchUsesStrippedName(t *testing.T) {
	cfg := &Config{}
	// BRA at $80:800D with operand $10 -> target $80801F.
	code := Code{
		Address: 0x80800D,
		Opcode:  Opcode{Name: "BRA", AddrMode: Relative},
		Arg:     Arg{Kind: ArgAddress, Value: 0x10},
		Length:  1,
		DB:      0x80,
	}
	lm := map[uint64][]Line{0x80800D: {CodeLine(code)}}

	store := GenerateLabels(lm, cfg)
	l, ok := store.Get(0x80801F)
	if !ok {
		t.Fatal("expected a Branch label at the full bank-preserving address")
	}
	if l.Name != "BRA_00801F" {
		t.Errorf("got %q, want BRA_00801F (bank stripped from the displayed name)", l.Name)
	}
}
