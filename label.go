package banklog

import (
	"fmt"
	"sort"
)

// LabelKind distinguishes the naming/insertion rules applied to a
// synthesized label.
type LabelKind int

const (
	KindData LabelKind = iota
	KindPointerTable
	KindDataTable
	KindSubroutine
	KindBranch
)

// LabelType is a label's kind plus, for table kinds, how many entries the
// table was declared to have (0 when unknown).
type LabelType struct {
	Kind   LabelKind
	Length uint64
}

// Label is one synthesized symbol. Assigned tracks whether the emitter
// has already printed this label inline at its own address — a label
// that never gets assigned this way is the one that needs to appear in
// the standalone labels.asm equate file.
type Label struct {
	Address  uint64
	Name     string
	Type     LabelType
	Assigned bool
}

// LabelStore is the explicit replacement for the original prototype's
// process-wide mutex-guarded label table: one value per run, passed to
// every function that needs to read or grow it, rather than shared
// global state.
type LabelStore struct {
	byAddr map[uint64]*Label
}

// NewLabelStore returns an empty store.
func NewLabelStore() *LabelStore {
	return &LabelStore{byAddr: make(map[uint64]*Label)}
}

// Get returns the label at addr, if any.
func (s *LabelStore) Get(addr uint64) (*Label, bool) {
	l, ok := s.byAddr[addr]
	return l, ok
}

// insertExact inserts a label at addr only if nothing is already there
// (first-wins — the earliest reference to an address names it).
func (s *LabelStore) insertExact(addr uint64, name string, typ LabelType) *Label {
	if existing, ok := s.byAddr[addr]; ok {
		return existing
	}
	l := &Label{Address: addr, Name: name, Type: typ}
	s.byAddr[addr] = l
	return l
}

// insertNeighborhood inserts a label at addr unless an existing label
// already occupies addr-2..addr+2 — table references are noisy (an
// indexed pointer/data table is hit from many different instructions at
// slightly different offsets) so a close neighbor is treated as "already
// labeled" rather than creating a cluster of near-duplicate symbols.
func (s *LabelStore) insertNeighborhood(addr uint64, name string, typ LabelType) *Label {
	for d := int64(-2); d <= 2; d++ {
		probe := uint64(int64(addr) + d)
		if existing, ok := s.byAddr[probe]; ok {
			return existing
		}
	}
	l := &Label{Address: addr, Name: name, Type: typ}
	s.byAddr[addr] = l
	return l
}

// SortedAddrs returns every labeled address in ascending order.
func (s *LabelStore) SortedAddrs() []uint64 {
	addrs := make([]uint64, 0, len(s.byAddr))
	for a := range s.byAddr {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// classifyRegion maps a resolved 24-bit address onto the memory region
// family used as a label-name prefix, folding bank mirrors onto a single
// canonical address so the same physical byte never gets two labels under
// two different bank numbers. This mirrors the folding ResolveTarget
// already performs for short (1-2 byte) operands; this function applies
// the same folding to already-resolved (3-byte / branch-target) addresses
// so label naming stays consistent regardless of which addressing mode
// produced the address.
func classifyRegion(addr uint64) (effective uint64, family string) {
	bank := (addr >> 16) & 0xFF
	low16 := addr & 0xFFFF

	switch {
	case bank == 0x7E || bank == 0x7F:
		return addr, "WRAM"
	case bank >= 0x70 && bank <= 0x7D:
		return addr, "SRAM"
	case low16 < 0x2000:
		return 0x7E0000 | low16, "LORAM"
	case low16 < 0x8000:
		return low16, "HWREG"
	default:
		return addr, "DAT"
	}
}

func labelName(kind LabelKind, family string, addr uint64) string {
	switch kind {
	case KindSubroutine:
		return fmt.Sprintf("SUB_%06X", addr)
	case KindBranch:
		return fmt.Sprintf("BRA_%06X", addr&0xFFFF)
	case KindPointerTable:
		return fmt.Sprintf("%s_PTR_%06X", family, addr)
	case KindDataTable:
		return fmt.Sprintf("%s_TBL_%06X", family, addr)
	default:
		return fmt.Sprintf("%s_%06X", family, addr)
	}
}

// tableKind decides whether an indexed/indirect operand names a pointer
// table or a plain data table: an explicit "Pointer" override at the
// target wins, everything else defaults to a data table.
func tableKind(cfg *Config, target uint64) LabelKind {
	if ov := cfg.GetOverride(target); ov != nil && ov.Type == "Pointer" {
		return KindPointerTable
	}
	return KindDataTable
}

// GenerateLabels walks every decoded line across every loaded bank (in PC
// order) and synthesizes the label set referenced by code operands and by
// Pointer-typed data overrides. lineMap is keyed by resolved PC with one
// or more Lines per address (multiple when comment or fill lines anchor to
// the preceding PC, or when replication clones lines onto an address).
func GenerateLabels(lineMap map[uint64][]Line, cfg *Config) *LabelStore {
	store := NewLabelStore()

	addrs := make([]uint64, 0, len(lineMap))
	for a := range lineMap {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	for _, pc := range addrs {
		for _, line := range lineMap[pc] {
			switch l := line.(type) {
			case CodeLine:
				generateCodeLabel(store, cfg, Code(l))
			case DataLine:
				generateDataLabels(store, cfg, Data(l))
			}
		}
	}
	return store
}

func generateCodeLabel(store *LabelStore, cfg *Config, c Code) {
	if c.Arg.Kind != ArgAddress {
		return
	}
	mode := c.Opcode.AddrMode
	length := c.Length
	db := uint64(c.DB)
	target := ResolveTarget(c.Address, db, c.Arg.Value, mode, length)

	switch {
	case c.Opcode.Name == "JSR" && mode == AbsoluteIndexedIndirect:
		kind := tableKind(cfg, target)
		_, family := classifyRegion(target)
		store.insertNeighborhood(target, labelName(kind, family, target), LabelType{Kind: kind})

	case c.Opcode.Name == "JSR" || c.Opcode.Name == "JSL":
		store.insertExact(target, labelName(KindSubroutine, "", target), LabelType{Kind: KindSubroutine})

	case c.Opcode.Name == "PEA":
		sub := addrMask(int64(target) + 1)
		store.insertExact(sub, labelName(KindSubroutine, "", sub), LabelType{Kind: KindSubroutine})

	case mode == Relative || mode == RelativeLong:
		store.insertExact(target, labelName(KindBranch, "", target), LabelType{Kind: KindBranch})

	case mode == AbsoluteIndexedX || mode == AbsoluteIndexedY || mode == AbsoluteIndexedLong:
		if target&0xFFFF >= 0x100 {
			kind := tableKind(cfg, target)
			_, family := classifyRegion(target)
			store.insertNeighborhood(target, labelName(kind, family, target), LabelType{Kind: kind})
		}

	case mode == Absolute || mode == AbsoluteLong:
		effective, family := classifyRegion(target)
		store.insertExact(effective, labelName(KindData, family, effective), LabelType{Kind: KindData})

	case mode == Immediate:
		if ov := cfg.GetOverride(c.Address); ov != nil && (ov.Type == "Pointer" || ov.Type == "Data") {
			bank := db
			if ov.DB != nil {
				bank = *ov.DB
			}
			full := (bank << 16) | (c.Arg.Value & 0xFFFF)
			kind := KindDataTable
			if ov.Type == "Pointer" {
				kind = KindPointerTable
			}
			_, family := classifyRegion(full)
			store.insertNeighborhood(full, labelName(kind, family, full), LabelType{Kind: kind})
		}
	}
}

// generateDataLabels inserts Subroutine labels for pointer values found
// inside a Data run: a Pointer-typed override treats every 2-byte value
// as a code address in the override's data bank (or the run's own bank,
// if the override leaves DB unset); a Struct-typed override instead
// locates the field at (pc-base)%struct_len for each value and only
// labels the Pointer-typed fields whose resolved target's low 16 bits
// are $8000 or above. Grounded on original_source/src/data.rs's
// pointer-table walk and spec.md §4.5's Struct case.
func generateDataLabels(store *LabelStore, cfg *Config, d Data) {
	ov := cfg.GetOverride(d.Address)
	if ov == nil {
		return
	}

	switch ov.Type {
	case "Pointer":
		bank := d.Address >> 16
		if ov.DB != nil {
			bank = *ov.DB
		}
		for _, v := range d.Values {
			if v.Width == WidthWord {
				target := (bank << 16) | (v.Value & 0xFFFF)
				store.insertExact(target, labelName(KindSubroutine, "", target), LabelType{Kind: KindSubroutine})
			}
		}

	case "Struct":
		s, ok := cfg.FindStruct(ov.Struct)
		if !ok {
			return
		}

		pc := d.Address
		for _, v := range d.Values {
			field, ok := s.FieldAt(pc, d.Address)
			if ok && field.Type == "Pointer" {
				bank := pc >> 16
				if field.DB != nil {
					bank = *field.DB
				}
				target := v.Value
				if field.Length < 3 {
					target = (bank << 16) | (v.Value & 0xFFFF)
				}
				if target&0xFFFF >= 0x8000 {
					store.insertExact(target, labelName(KindSubroutine, "", target), LabelType{Kind: KindSubroutine})
				}
			}
			pc += uint64(v.Width)
		}
	}
}
