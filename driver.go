package banklog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/glog"
)

// LineMap is every decoded line across every loaded bank file, keyed by
// its resolved 24-bit PC. Multiple lines can share a PC (a line without a
// PC of its own, such as a comment, anchors to the PC of the most recent
// line that carried one, and is emitted after it).
type LineMap map[uint64][]Line

// NewLineMap returns an empty map.
func NewLineMap() LineMap { return make(LineMap) }

// Append adds line to whatever is already recorded at addr.
func (lm LineMap) Append(addr uint64, line Line) {
	lm[addr] = append(lm[addr], line)
}

// SortedAddrs returns every address with at least one line, ascending.
func (lm LineMap) SortedAddrs() []uint64 {
	addrs := make([]uint64, 0, len(lm))
	for a := range lm {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// ReplicationRule clones every line in [SrcStart, SrcEnd] into each bank
// in TargetBanks, at the same in-bank offset.
type ReplicationRule struct {
	SrcStart, SrcEnd uint64
	TargetBanks      []byte
}

// Driver owns one reassembly run: the bank range to emit and the
// replication rules to apply before label synthesis. Both were
// hardcoded constants in the prototype this generalizes; here they are
// exported fields (NewDriver fills them with the defaults) so a different
// ROM's bank layout or enemy-bank quirk doesn't require editing the
// driver itself.
type Driver struct {
	FirstBank, LastBank byte
	ReplicationRules    []ReplicationRule
	Config              *Config
}

// defaultReplicationRules reproduces the one rule the original prototype
// hardcoded: Super Metroid's enemy projectile code at bank $A0 is
// identical across eleven sprite banks, so the trace for $A0 alone is
// cloned into each of them rather than re-captured eleven times.
func defaultReplicationRules() []ReplicationRule {
	return []ReplicationRule{
		{
			SrcStart:    0xA08000,
			SrcEnd:      0xA08686,
			TargetBanks: []byte{0xA2, 0xA3, 0xA4, 0xA5, 0xA6, 0xA7, 0xA8, 0xA9, 0xAA, 0xB2, 0xB3},
		},
	}
}

// NewDriver returns a Driver configured with the original prototype's
// defaults: banks $80-$DF inclusive and the enemy-bank replication rule
// above.
func NewDriver(cfg *Config) *Driver {
	return &Driver{
		FirstBank:        0x80,
		LastBank:         0xDF,
		ReplicationRules: defaultReplicationRules(),
		Config:           cfg,
	}
}

// LoadBankFile parses one *.asm trace file into lm. A line that matches no
// pattern is kept as a comment; a line the parser rejects (an invalid data
// value width, an unknown opcode byte, an unparsable number) aborts the
// load with an error naming the file and the line.
func (d *Driver) LoadBankFile(path string, lm LineMap) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	state := &ParserState{}
	var lastPC uint64
	var sawPC bool

	for _, text := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(text) == "" {
			continue
		}

		pc, hasPC, line, err := ParseLine(text, state)
		if err != nil {
			return fmt.Errorf("%s: %q: %w", path, text, err)
		}
		if hasPC {
			lastPC = pc
			sawPC = true
		} else if sawPC {
			pc = lastPC
		}

		lm.Append(pc, line)
	}
	return nil
}

// LoadLogs loads every *.asm file under dir, in filename order, into one
// combined LineMap.
func (d *Driver) LoadLogs(dir string) (LineMap, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.asm"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dir, err)
	}
	sort.Strings(matches)

	lm := NewLineMap()
	for _, path := range matches {
		if err := d.LoadBankFile(path, lm); err != nil {
			return nil, err
		}
	}
	return lm, nil
}

// Replicate clones every ReplicationRule's source range into its target
// banks. A cloned instruction with a 3-byte address operand whose own
// in-bank offset is past $804D has its operand's bank byte rewritten to
// the new bank; instructions at or before that offset keep their operand
// unchanged.
func (d *Driver) Replicate(lm LineMap) {
	for _, rule := range d.ReplicationRules {
		var addrs []uint64
		for a := range lm {
			if a >= rule.SrcStart && a <= rule.SrcEnd {
				addrs = append(addrs, a)
			}
		}
		sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

		for _, bank := range rule.TargetBanks {
			for _, a := range addrs {
				offset := a & 0xFFFF
				newAddr := (uint64(bank) << 16) | offset
				for _, line := range lm[a] {
					lm.Append(newAddr, rewriteLineBank(line, bank, offset))
				}
			}
		}
	}
}

func rewriteLineBank(line Line, bank byte, offset uint64) Line {
	switch l := line.(type) {
	case CodeLine:
		c := Code(l)
		c.Address = (uint64(bank) << 16) | offset
		c.DB = bank
		if c.Arg.Kind == ArgAddress && c.Length == 3 && offset > 0x804D {
			c.Arg.Value = (c.Arg.Value &^ uint64(0xFF0000)) | (uint64(bank) << 16)
		}
		return CodeLine(c)
	case DataLine:
		d := Data(l)
		d.Address = (uint64(bank) << 16) | offset
		return DataLine(d)
	default:
		return line
	}
}

// Run executes one full pass: load config, load and replicate the trace
// logs, synthesize labels, and emit bank_XX.asm / labels.asm / main.asm
// into outDir.
func (d *Driver) Run(logsDir, configDir, outDir string) error {
	cfg, err := LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	d.Config = cfg

	lm, err := d.LoadLogs(logsDir)
	if err != nil {
		return fmt.Errorf("loading logs: %w", err)
	}
	d.Replicate(lm)

	store := GenerateLabels(lm, cfg)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outDir, err)
	}

	for bank := int(d.FirstBank); bank <= int(d.LastBank); bank++ {
		n, err := d.emitBank(outDir, byte(bank), lm, store, cfg)
		if err != nil {
			return fmt.Errorf("emitting bank $%02X: %w", bank, err)
		}
		glog.Infof("wrote bank $%02X: %d lines", bank, n)
	}

	if err := d.writeLabels(outDir, store); err != nil {
		return fmt.Errorf("writing labels.asm: %w", err)
	}
	if err := d.writeMainAsm(outDir); err != nil {
		return fmt.Errorf("writing main.asm: %w", err)
	}
	return nil
}

func (d *Driver) emitBank(outDir string, bank byte, lm LineMap, store *LabelStore, cfg *Config) (int, error) {
	path := filepath.Join(outDir, fmt.Sprintf("bank_%02X.asm", bank))
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	fmt.Fprintf(f, "check bankcross off\norg $%02XFFFF\ncheck bankcross on\n\n", bank)

	low := uint64(bank) << 16
	high := low | 0xFFFF
	n := 0
	for _, addr := range lm.SortedAddrs() {
		if addr < low || addr > high {
			continue
		}
		for _, line := range lm[addr] {
			if l, ok := store.Get(addr); ok && !l.Assigned {
				fmt.Fprintf(f, "%s:\n", l.Name)
			}
			switch v := line.(type) {
			case CommentLine:
				fmt.Fprintf(f, "    ;%s\n", strings.TrimPrefix(string(v), ";"))
			case CodeLine:
				f.WriteString(EmitCode(Code(v), store, cfg))
			case DataLine:
				f.WriteString(EmitData(Data(v), store, cfg))
			}
			n++
		}
	}
	return n, nil
}

func (d *Driver) writeLabels(outDir string, store *LabelStore) error {
	f, err := os.Create(filepath.Join(outDir, "labels.asm"))
	if err != nil {
		return err
	}
	defer f.Close()

	for _, addr := range store.SortedAddrs() {
		l, _ := store.Get(addr)
		if l.Assigned {
			continue
		}
		fmt.Fprintf(f, "%s = $%06X\n", l.Name, l.Address)
	}
	return nil
}

func (d *Driver) writeMainAsm(outDir string) error {
	f, err := os.Create(filepath.Join(outDir, "main.asm"))
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintln(f, "lorom")
	fmt.Fprintln(f, "incsrc labels.asm")
	for bank := int(d.FirstBank); bank <= int(d.LastBank); bank++ {
		fmt.Fprintf(f, "incsrc bank_%02X.asm\n", bank)
	}
	return nil
}
