package banklog

import "testing"

func TestOpcodeAtKnown(t *testing.T) {
	cases := []struct {
		b    byte
		name string
		mode AddressingMode
	}{
		{0x00, "BRK", ImmediateByte},
		{0x20, "JSR", Absolute},
		{0x22, "JSL", AbsoluteLong},
		{0x4C, "JMP", Absolute},
		{0x5C, "JML", AbsoluteLong},
		{0x62, "PER", RelativeLong},
		{0x80, "BRA", Relative},
		{0x44, "MVP", BlockMove},
		{0x54, "MVN", BlockMove},
		{0xFC, "JSR", AbsoluteIndexedIndirect},
		{0xDC, "JML", AbsoluteIndirectLong},
		{0xF4, "PEA", Absolute},
		{0xD4, "PEI", DirectIndirect},
	}

	for _, c := range cases {
		op, ok := OpcodeAt(c.b)
		if !ok {
			t.Fatalf("byte %02X: expected a known opcode", c.b)
		}
		if op.Name != c.name || op.AddrMode != c.mode {
			t.Errorf("byte %02X: got %s/%s, want %s/%s", c.b, op.Name, op.AddrMode, c.name, c.mode)
		}
	}
}

func TestAddressingModeStringCovered(t *testing.T) {
	for m := Implied; m <= BlockMove; m++ {
		if got := m.String(); got == "Unknown" {
			t.Errorf("AddressingMode %d missing String() case", m)
		}
	}
}

func TestOpcodeTableHasNoGaps(t *testing.T) {
	// The 65C816 defines every byte 0x00-0xFF (unlike the 6502, which
	// leaves holes); MustOpcodeAt should never panic for any byte value.
	for b := 0; b < 256; b++ {
		if _, ok := OpcodeAt(byte(b)); !ok {
			t.Errorf("byte %02X: missing from opcode table", b)
		}
	}
}
