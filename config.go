package banklog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// LabelConfig is one entry from config/labels/*.yaml.
type LabelConfig struct {
	Addr   uint64  `yaml:"addr"`
	Name   string  `yaml:"name"`
	Type   string  `yaml:"type"`
	Length *uint64 `yaml:"length"`
}

// AddrRange is either a single address or an inclusive [low, high] range,
// matching the untagged addr field in config/overrides/*.yaml.
type AddrRange struct {
	Low, High uint64
}

// Contains reports whether pc falls within the range (a single address is
// a range of one).
func (r AddrRange) Contains(pc uint64) bool {
	return pc >= r.Low && pc <= r.High
}

// UnmarshalYAML accepts either a scalar address or a two-element [low, high]
// sequence, mirroring the untagged OverrideAddr enum in the original
// config loader.
func (r *AddrRange) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var addr uint64
		if err := node.Decode(&addr); err != nil {
			return fmt.Errorf("override addr: %w", err)
		}
		r.Low, r.High = addr, addr
		return nil
	case yaml.SequenceNode:
		var bounds []uint64
		if err := node.Decode(&bounds); err != nil {
			return fmt.Errorf("override addr range: %w", err)
		}
		if len(bounds) != 2 {
			return fmt.Errorf("override addr range must have exactly 2 elements, got %d", len(bounds))
		}
		r.Low, r.High = bounds[0], bounds[1]
		return nil
	default:
		return fmt.Errorf("override addr: unsupported YAML node kind %v", node.Kind)
	}
}

// OverrideConfig is one entry from config/overrides/*.yaml.
type OverrideConfig struct {
	Addr   AddrRange `yaml:"addr"`
	DB     *uint64   `yaml:"db"`
	Type   string    `yaml:"type"`
	Struct string    `yaml:"struct"`
	Opcode []uint64  `yaml:"opcode"`
}

// StructFieldConfig is one field of a Struct layout.
type StructFieldConfig struct {
	Name   string  `yaml:"name"`
	Offset uint64  `yaml:"offset"`
	Length uint64  `yaml:"length"`
	Type   string  `yaml:"type"`
	DB     *uint64 `yaml:"db"`
}

// StructConfig is one entry from config/structs/*.yaml.
type StructConfig struct {
	Name   string              `yaml:"name"`
	Fields []StructFieldConfig `yaml:"fields"`
}

// Length returns the struct's total byte length: the last field's offset
// plus its length.
func (s StructConfig) Length() uint64 {
	if len(s.Fields) == 0 {
		return 0
	}
	last := s.Fields[len(s.Fields)-1]
	return last.Offset + last.Length
}

// FieldAt returns the field whose offset matches (pc-base) mod struct
// length, used when a Struct-typed override covers a Data region.
func (s StructConfig) FieldAt(pc, base uint64) (StructFieldConfig, bool) {
	length := s.Length()
	if length == 0 {
		return StructFieldConfig{}, false
	}
	off := (pc - base) % length
	for _, f := range s.Fields {
		if f.Offset == off {
			return f, true
		}
	}
	return StructFieldConfig{}, false
}

// Config is the concatenation of every labels/overrides/structs YAML file
// under a config directory, plus the overrides implicitly derived from
// PointerTable/DataTable labels.
type Config struct {
	Labels    []LabelConfig
	Overrides []OverrideConfig
	Structs   []StructConfig
}

// LoadConfig reads config/labels/*.yaml, config/overrides/*.yaml and
// config/structs/*.yaml beneath dir, concatenates each kind's file list,
// and appends the overrides derived from long PointerTable/DataTable
// labels. A missing directory or unreadable/malformed YAML file is
// fatal — the driver has nothing safe to fall back to.
func LoadConfig(dir string) (*Config, error) {
	labels, err := loadYAMLGlob[LabelConfig](filepath.Join(dir, "labels", "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading labels: %w", err)
	}
	overrides, err := loadYAMLGlob[OverrideConfig](filepath.Join(dir, "overrides", "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading overrides: %w", err)
	}
	structs, err := loadYAMLGlob[StructConfig](filepath.Join(dir, "structs", "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading structs: %w", err)
	}

	cfg := &Config{Labels: labels, Overrides: overrides, Structs: structs}
	cfg.Overrides = append(cfg.Overrides, deriveImplicitOverrides(labels)...)
	return cfg, nil
}

func loadYAMLGlob[T any](pattern string) ([]T, error) {
	if _, err := os.Stat(filepath.Dir(pattern)); err != nil {
		return nil, fmt.Errorf("config directory: %w", err)
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(matches)

	var all []T
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var entries []T
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		all = append(all, entries...)
	}
	return all, nil
}

// deriveImplicitOverrides synthesizes Pointer/Data overrides from labels
// whose type is PointerTable or DataTable and whose length covers more
// than a single entry, so a struct/pointer table only needs to be labeled
// once rather than also requiring a matching manual override.
func deriveImplicitOverrides(labels []LabelConfig) []OverrideConfig {
	var derived []OverrideConfig
	for _, l := range labels {
		if l.Length == nil || *l.Length <= 1 {
			continue
		}
		var typ string
		switch l.Type {
		case "PointerTable":
			typ = "Pointer"
		case "DataTable":
			typ = "Data"
		default:
			continue
		}

		db := l.Addr >> 16
		derived = append(derived, OverrideConfig{
			Addr:   AddrRange{Low: l.Addr, High: l.Addr + (*l.Length)*2},
			DB:     &db,
			Type:   typ,
		})
	}
	return derived
}

// GetOverride returns the first override (explicit overrides precede the
// derived ones, since they were loaded first) whose address range
// contains pc, or nil if none matches.
func (c *Config) GetOverride(pc uint64) *OverrideConfig {
	for i := range c.Overrides {
		if c.Overrides[i].Addr.Contains(pc) {
			return &c.Overrides[i]
		}
	}
	return nil
}

// FindStruct looks up a struct layout by name.
func (c *Config) FindStruct(name string) (StructConfig, bool) {
	for _, s := range c.Structs {
		if s.Name == name {
			return s, true
		}
	}
	return StructConfig{}, false
}
