package banklog

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestAddrRangeUnmarshalScalar(t *testing.T) {
	var r AddrRange
	if err := yaml.Unmarshal([]byte("32768"), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Low != 32768 || r.High != 32768 {
		t.Errorf("got %+v, want a single-address range", r)
	}
}

func TestAddrRangeUnmarshalSequence(t *testing.T) {
	var r AddrRange
	if err := yaml.Unmarshal([]byte("[32768, 32800]"), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Low != 32768 || r.High != 32800 {
		t.Errorf("got %+v, want [32768,32800]", r)
	}
}

func TestAddrRangeUnmarshalBadSequence(t *testing.T) {
	var r AddrRange
	if err := yaml.Unmarshal([]byte("[1,2,3]"), &r); err == nil {
		t.Fatal("expected error for a 3-element range")
	}
}

func TestAddrRangeContains(t *testing.T) {
	r := AddrRange{Low: 10, High: 20}
	if !r.Contains(10) || !r.Contains(20) || !r.Contains(15) {
		t.Error("expected bounds to be inclusive")
	}
	if r.Contains(9) || r.Contains(21) {
		t.Error("expected out-of-range addresses to be excluded")
	}
}

func TestStructConfigLengthAndFieldAt(t *testing.T) {
	s := StructConfig{
		Name: "Enemy",
		Fields: []StructFieldConfig{
			{Name: "hp", Offset: 0, Length: 2},
			{Name: "flags", Offset: 2, Length: 1},
		},
	}
	if got := s.Length(); got != 3 {
		t.Errorf("Length() = %d, want 3", got)
	}

	// Offset 3 wraps (3 mod 3 = 0) to the second entry's first field.
	f, ok := s.FieldAt(0xA08003, 0xA08000)
	if !ok || f.Name != "hp" {
		t.Errorf("FieldAt = %+v, %v, want hp", f, ok)
	}
}

func TestDeriveImplicitOverrides(t *testing.T) {
	two := uint64(2)
	labels := []LabelConfig{
		{Addr: 0xA08000, Name: "PTRS", Type: "PointerTable", Length: &two},
		{Addr: 0xA09000, Name: "NOTLONG", Type: "PointerTable"},
	}
	derived := deriveImplicitOverrides(labels)
	if len(derived) != 1 {
		t.Fatalf("got %d derived overrides, want 1", len(derived))
	}
	ov := derived[0]
	if ov.Type != "Pointer" || ov.Addr.Low != 0xA08000 || ov.Addr.High != 0xA08000+4 {
		t.Errorf("unexpected derived override: %+v", ov)
	}
	if ov.DB == nil || *ov.DB != 0xA0 {
		t.Errorf("expected derived DB 0xA0, got %v", ov.DB)
	}
}

func TestGetOverridePrefersFirstMatch(t *testing.T) {
	cfg := &Config{
		Overrides: []OverrideConfig{
			{Addr: AddrRange{Low: 0x808000, High: 0x808010}, Type: "Data"},
			{Addr: AddrRange{Low: 0x808005, High: 0x808005}, Type: "Pointer"},
		},
	}
	ov := cfg.GetOverride(0x808005)
	if ov == nil || ov.Type != "Data" {
		t.Errorf("expected the first (explicit, earlier-loaded) override to win, got %+v", ov)
	}
}
