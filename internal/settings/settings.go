// Package settings persists the multiplexer's per-channel and global
// configuration: the eight suppression masks, eight discard-start bytes,
// and the global flags/baud/Schmitt-mask block described in spec section 6.
// The source keeps this as a raw 24-byte EEPROM blob in a factory and a
// user block; a hosted daemon has a filesystem, so the on-disk
// representation here is YAML with load/default/validate semantics,
// while the 24-byte layout survives as the wire format for the
// configuration dialogue's P command and for round-tripping against
// the original device.
package settings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"nmuxd/internal/nmea"
)

// RawSize is the byte layout's fixed size, matching the source's EEPROM
// blob: 8 suppression masks, 8 discard-start bytes, 7 global fields, and
// one reserved/padding byte.
const RawSize = 24

// Baud selects the multiplexer's output baud rate.
type Baud int

const (
	Baud4800 Baud = iota
	Baud38400
	Baud115200
)

func (b Baud) Int() int {
	switch b {
	case Baud38400:
		return 38400
	case Baud115200:
		return 115200
	default:
		return 4800
	}
}

// Settings is one block (factory or user) of the persisted configuration.
type Settings struct {
	SuppressMask [nmea.ChannelCount]uint8 `yaml:"suppress_mask"`
	DiscardStart [nmea.ChannelCount]byte  `yaml:"discard_start"`

	PrefixEnabled bool  `yaml:"prefix_enabled"`
	FastMask      uint8 `yaml:"fast_mask"` // bit i set => channel i runs at 38,400 baud
	CRLF          bool  `yaml:"crlf"`      // false = "\n" only, true = "\r\n"
	InputInvert   uint8 `yaml:"input_invert"`
	OutputInvert  bool  `yaml:"output_invert"`
	OutputBaud    Baud  `yaml:"output_baud"`
	SchmittMask   uint8 `yaml:"schmitt_mask"`
}

// Default returns the factory defaults: all channels fast, no suppression,
// no discard filters, prefix off, LF-only, no inversion, 4,800 baud output,
// Schmitt triggers enabled on every input (matching the source's power-on
// state).
func Default() Settings {
	return Settings{
		FastMask:    0xFF,
		SchmittMask: 0xFF,
	}
}

// ToEngineConfig converts a persisted settings block into the immutable
// per-lifetime nmea.Config the core consumes (spec section 1: "the core
// consumes the settings as immutable inputs").
func (s Settings) ToEngineConfig() nmea.Config {
	var cfg nmea.Config
	for i := 0; i < nmea.ChannelCount; i++ {
		cfg.Channels[i] = nmea.ChannelConfig{
			Fast:            s.FastMask&(1<<uint(i)) != 0,
			SuppressMask:    s.SuppressMask[i],
			DiscardStart:    s.DiscardStart[i],
			HasDiscardStart: s.DiscardStart[i] != 0,
			Invert:          s.InputInvert&(1<<uint(i)) != 0,
		}
	}
	cfg.PrefixEnabled = s.PrefixEnabled
	if s.CRLF {
		cfg.Newline = nmea.NewlineCRLF
	} else {
		cfg.Newline = nmea.NewlineLFOnly
	}
	cfg.OutputInvert = s.OutputInvert
	cfg.OutputBaud = s.OutputBaud.Int()
	return cfg
}

// MarshalRaw encodes s into the 24-byte layout from spec section 6, for the
// dialogue's P command and for interop tests against the original device.
func (s Settings) MarshalRaw() [RawSize]byte {
	var b [RawSize]byte
	copy(b[0:8], s.SuppressMask[:])
	copy(b[8:16], s.DiscardStart[:])
	if s.PrefixEnabled {
		b[16] = 1
	}
	b[17] = s.FastMask
	if s.CRLF {
		b[18] = 1
	}
	b[19] = s.InputInvert
	if s.OutputInvert {
		b[20] = 1
	}
	b[21] = byte(s.OutputBaud)
	b[22] = s.SchmittMask
	return b
}

// UnmarshalRaw decodes the 24-byte layout back into a Settings value.
func UnmarshalRaw(b [RawSize]byte) Settings {
	var s Settings
	copy(s.SuppressMask[:], b[0:8])
	copy(s.DiscardStart[:], b[8:16])
	s.PrefixEnabled = b[16] != 0
	s.FastMask = b[17]
	s.CRLF = b[18] != 0
	s.InputInvert = b[19]
	s.OutputInvert = b[20] != 0
	s.OutputBaud = Baud(b[21])
	s.SchmittMask = b[22]
	return s
}

// Store holds the factory and user blocks (spec section 6: "factory copy
// and user copy in separate blocks").
type Store struct {
	path    string
	Factory Settings `yaml:"factory"`
	User    Settings `yaml:"user"`
}

// Load reads the store from path. A missing file is not an error: it
// returns a store with factory defaults in both blocks, exactly as a
// blank EEPROM would read back as all-defaults on first boot.
func Load(path string) (*Store, error) {
	st := &Store{path: path, Factory: Default(), User: Default()}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, st); err != nil {
		return nil, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	return st, nil
}

// SaveUser persists the user block as one atomic replace: written to a
// temp file in the same directory and renamed over the target, so a crash
// mid-write never leaves a half-written store (spec section 6: "user copy
// is written as one erase-then-program operation").
func (st *Store) SaveUser() error {
	tmp, err := os.CreateTemp(dirOf(st.path), ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("settings: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	enc := yaml.NewEncoder(tmp)
	if err := enc.Encode(st); err != nil {
		tmp.Close()
		return fmt.Errorf("settings: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("settings: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("settings: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, st.path); err != nil {
		return fmt.Errorf("settings: replace %s: %w", st.path, err)
	}
	return nil
}

// ReloadUser discards in-memory edits to the user block, re-reading it
// from disk (the dialogue's L command, "load").
func (st *Store) ReloadUser() error {
	fresh, err := Load(st.path)
	if err != nil {
		return err
	}
	st.User = fresh.User
	return nil
}

// ResetToFactory replaces the user block with the factory block and
// persists it immediately (the dialogue's R command).
func (st *Store) ResetToFactory() error {
	st.User = st.Factory
	return st.SaveUser()
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
