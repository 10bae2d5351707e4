package banklog

import (
	"fmt"
	"strings"
)

// lineFormat is the fixed column layout a Code line is rendered into:
// mnemonic+operand padded to 40 columns, then the original address, the
// data bank byte, and the trailing comment. Data lines use their own,
// simpler layout (see EmitData) since they carry no single data-bank byte.
const lineFormat = "    %-40s;| %06X | %s | %s\n"

// widthSuffix returns the ca65-style size suffix the fuller renderer
// appends to the mnemonic, driven by the addressing mode rather than the
// operand's byte length: a mode like Relative carries a 1-byte operand but
// takes no suffix at all, while Immediate's suffix depends on length since
// it tracks the accumulator/index width rather than a fixed operand size.
// Grounded on original_source/src/code.rs's ToString match.
func widthSuffix(mode AddressingMode, length int) string {
	switch mode {
	case Direct, DirectIndexedX, DirectIndexedY, DirectIndirect,
		DirectIndirectIndexed, DirectIndirectIndexedLong, DirectIndirectLong,
		DirectIndexedIndirect, ImmediateByte:
		return ".b"
	case Absolute, AbsoluteIndexedX, AbsoluteIndexedY,
		AbsoluteIndirect, AbsoluteIndexedIndirect:
		return ".w"
	case AbsoluteLong, AbsoluteIndexedLong:
		return ".l"
	case Immediate:
		if length == 1 {
			return ".b"
		}
		return ".w"
	default:
		// Implied, Relative, RelativeLong, BlockMove, StackRelative,
		// StackRelativeIndirectIndexed and AbsoluteIndirectLong take no
		// suffix.
		return ""
	}
}

// lookupNearby searches target and its four closest neighbors (checked
// nearest-first) for an existing label, returning the label name with the
// inverted-sign offset notation: a label one or two bytes BELOW target
// renders as NAME+1/NAME+2 (the emitted instruction is reached by adding
// to the label), a label ABOVE target renders as NAME-1/NAME-2.
func lookupNearby(store *LabelStore, target uint64) (string, bool) {
	if l, ok := store.Get(target); ok {
		return l.Name, true
	}
	for _, n := range []int64{-1, 1, -2, 2} {
		probe := uint64(int64(target) + n)
		if l, ok := store.Get(probe); ok {
			// label is at target+n; n<0 means label below target.
			if n < 0 {
				return fmt.Sprintf("%s+%d", l.Name, -n), true
			}
			return fmt.Sprintf("%s-%d", l.Name, n), true
		}
	}
	return "", false
}

// markAssigned flips Assigned for a label exactly at addr, used by the
// driver to know which labels were printed inline and which remain for
// labels.asm.
func markAssigned(store *LabelStore, addr uint64) {
	if l, ok := store.Get(addr); ok {
		l.Assigned = true
	}
}

// operandText renders a Code's operand syntax, substituting a nearby
// label for the resolved address where one exists and the addressing
// mode/override combination allows it.
func operandText(c Code, store *LabelStore, cfg *Config) string {
	mode := c.Opcode.AddrMode
	arg := c.Arg

	blocked := false
	if ov := cfg.GetOverride(c.Address); ov != nil && ov.Type == "Blocked" {
		blocked = true
	}

	labelFor := func(target uint64) string {
		if blocked {
			return ""
		}
		if name, ok := lookupNearby(store, target); ok {
			return name
		}
		return ""
	}

	switch mode {
	case Implied:
		return ""
	case Immediate, ImmediateByte:
		allowLabel := false
		if ov := cfg.GetOverride(c.Address); ov != nil && (ov.Type == "Pointer" || ov.Type == "Data") {
			allowLabel = true
		}
		if allowLabel && !blocked {
			db := uint64(c.DB)
			target := ResolveTarget(c.Address, db, arg.Value, Absolute, 2)
			if name, ok := lookupNearby(store, target); ok {
				return fmt.Sprintf("#%s", name)
			}
		}
		if c.Length == 1 {
			return fmt.Sprintf("#$%02X", arg.Value&0xFF)
		}
		return fmt.Sprintf("#$%04X", arg.Value&0xFFFF)
	case Absolute:
		target := ResolveTarget(c.Address, uint64(c.DB), arg.Value, mode, c.Length)
		if name := labelFor(target); name != "" {
			return name
		}
		return fmt.Sprintf("$%04X", arg.Value&0xFFFF)
	case AbsoluteLong:
		target := ResolveTarget(c.Address, uint64(c.DB), arg.Value, mode, c.Length)
		if name := labelFor(target); name != "" {
			return name
		}
		return fmt.Sprintf("$%06X", arg.Value&0xFFFFFF)
	case AbsoluteIndexedX:
		target := ResolveTarget(c.Address, uint64(c.DB), arg.Value, mode, c.Length)
		if name := labelFor(target); name != "" {
			return fmt.Sprintf("%s,X", name)
		}
		return fmt.Sprintf("$%04X,X", arg.Value&0xFFFF)
	case AbsoluteIndexedY:
		target := ResolveTarget(c.Address, uint64(c.DB), arg.Value, mode, c.Length)
		if name := labelFor(target); name != "" {
			return fmt.Sprintf("%s,Y", name)
		}
		return fmt.Sprintf("$%04X,Y", arg.Value&0xFFFF)
	case AbsoluteIndexedLong:
		target := ResolveTarget(c.Address, uint64(c.DB), arg.Value, mode, c.Length)
		if name := labelFor(target); name != "" {
			return fmt.Sprintf("%s,X", name)
		}
		return fmt.Sprintf("$%06X,X", arg.Value&0xFFFFFF)
	case AbsoluteIndirect:
		return fmt.Sprintf("($%04X)", arg.Value&0xFFFF)
	case AbsoluteIndirectLong:
		return fmt.Sprintf("[$%04X]", arg.Value&0xFFFF)
	case AbsoluteIndexedIndirect:
		target := ResolveTarget(c.Address, uint64(c.DB), arg.Value, Absolute, 2)
		if name := labelFor(target); name != "" {
			return fmt.Sprintf("(%s,X)", name)
		}
		return fmt.Sprintf("($%04X,X)", arg.Value&0xFFFF)
	case Direct:
		return fmt.Sprintf("$%02X", arg.Value&0xFF)
	case DirectIndexedX:
		return fmt.Sprintf("$%02X,X", arg.Value&0xFF)
	case DirectIndexedY:
		return fmt.Sprintf("$%02X,Y", arg.Value&0xFF)
	case DirectIndirect:
		return fmt.Sprintf("($%02X)", arg.Value&0xFF)
	case DirectIndirectLong:
		return fmt.Sprintf("[$%02X]", arg.Value&0xFF)
	case DirectIndexedIndirect:
		return fmt.Sprintf("($%02X,X)", arg.Value&0xFF)
	case DirectIndirectIndexed:
		return fmt.Sprintf("($%02X),Y", arg.Value&0xFF)
	case DirectIndirectIndexedLong:
		return fmt.Sprintf("[$%02X],Y", arg.Value&0xFF)
	case StackRelative:
		return fmt.Sprintf("$%02X,S", arg.Value&0xFF)
	case StackRelativeIndirectIndexed:
		return fmt.Sprintf("($%02X,S),Y", arg.Value&0xFF)
	case Relative:
		target := ResolveTarget(c.Address, uint64(c.DB), arg.Value, mode, c.Length)
		if name := labelFor(target); name != "" {
			return name
		}
		return fmt.Sprintf("$%06X", target)
	case RelativeLong:
		target := ResolveTarget(c.Address, uint64(c.DB), arg.Value, mode, c.Length)
		if name := labelFor(target); name != "" {
			return name
		}
		return fmt.Sprintf("$%06X", target)
	case BlockMove:
		return fmt.Sprintf("$%02X,$%02X", arg.SrcBank, arg.DstBank)
	default:
		return ""
	}
}

// EmitCode renders one Code line in the fixed column format, marking its
// own address's label (if any) as assigned so the driver's final
// labels.asm pass knows it was already printed inline.
func EmitCode(c Code, store *LabelStore, cfg *Config) string {
	markAssigned(store, c.Address)

	mnemonic := c.Opcode.Name + widthSuffix(c.Opcode.AddrMode, c.Length)
	operand := operandText(c, store, cfg)
	text := mnemonic
	if operand != "" {
		text = mnemonic + " " + operand
	}

	comment := ""
	if c.HasComment {
		comment = "; " + c.Comment
	}

	return fmt.Sprintf(lineFormat, text, c.Address, fmt.Sprintf("%02X", c.DB), comment)
}

// dataValText renders one DataVal's operand text (with its leading comma
// separator, or none for the first value in a group), substituting a
// label name for the value when an override at pc resolves it to one.
// Grounded on original_source/src/data.rs's per-value if_chain: Pointer/
// Data overrides index the label map directly by (db, value); Struct
// overrides locate the field at (pc-base)%len and only substitute when
// that field is Pointer-typed and the resolved target's low 16 bits are
// $8000 or above (the upper half of whatever bank the target is in).
func dataValText(d Data, v DataVal, pc uint64, store *LabelStore, cfg *Config, firstVal bool) string {
	sep := ","
	if firstVal {
		sep = ""
	}

	raw := func() string {
		switch v.Width {
		case WidthByte:
			return fmt.Sprintf("%s$%02X", sep, v.Value)
		case WidthWord:
			return fmt.Sprintf("%s$%04X", sep, v.Value)
		default:
			return fmt.Sprintf("%s$%06X", sep, v.Value)
		}
	}

	ov := cfg.GetOverride(pc)
	if ov == nil {
		return raw()
	}

	switch ov.Type {
	case "Pointer", "Data":
		db := pc >> 16
		if ov.DB != nil {
			db = *ov.DB
		}
		target := (db << 16) | (v.Value & 0xFFFF)
		if l, ok := store.Get(target); ok {
			return sep + l.Name
		}
		return raw()

	case "Struct":
		s, ok := cfg.FindStruct(ov.Struct)
		if !ok {
			return raw()
		}
		field, ok := s.FieldAt(pc, d.Address)
		if !ok {
			return raw()
		}
		db := pc >> 16
		if field.DB != nil {
			db = *field.DB
		}
		target := v.Value
		if field.Length < 3 {
			target = (db << 16) | (v.Value & 0xFFFF)
		}
		if field.Type == "Pointer" && target&0xFFFF >= 0x8000 {
			if l, ok := store.Get(target); ok {
				return sep + l.Name
			}
		}
		return raw()

	default:
		return raw()
	}
}

// EmitData renders one Data line following original_source/src/data.rs's
// to_string: values are grouped by width, a width change is separated by
// " : ", and a label landing strictly inside the run (not at the run's
// own starting address, which the driver prints as a line label and
// EmitData marks via markAssigned) breaks the text with " : NAME: " and
// is itself marked Assigned so it does not leak into labels.asm.
func EmitData(d Data, store *LabelStore, cfg *Config) string {
	markAssigned(store, d.Address)

	var sb strings.Builder
	sb.WriteString("    ")

	lastCmd := ""
	firstCmd := true
	firstVal := true
	pc := d.Address

	for _, v := range d.Values {
		if !firstCmd {
			if l, ok := store.Get(pc); ok {
				sb.WriteString(fmt.Sprintf(" : %s: ", l.Name))
				l.Assigned = true
				firstCmd = true
				firstVal = true
				lastCmd = ""
			}
		}

		cmd := v.Width.mnemonic()
		if cmd != lastCmd {
			if !firstCmd {
				sb.WriteString(" : ")
			}
			sb.WriteString(cmd + " ")
			lastCmd = cmd
			firstVal = true
			firstCmd = false
		}

		sb.WriteString(dataValText(d, v, pc, store, cfg, firstVal))
		firstVal = false
		pc += uint64(v.Width)
	}

	if d.HasComment {
		sb.WriteString(fmt.Sprintf(" ; | %06X | %s", d.Address, d.Comment))
	}
	sb.WriteString("\n")
	return sb.String()
}
