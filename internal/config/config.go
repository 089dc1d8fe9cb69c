// Package config loads emulator settings from chip8vm.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/image/colornames"

	"github.com/kapitanov/chip8emu/internal/hal"
	"github.com/kapitanov/chip8emu/internal/vm"
)

// DefaultPath is read when no config file is given explicitly.
const DefaultPath = "chip8vm.toml"

type Config struct {
	CPU     CPU               `toml:"cpu"`
	Display Display           `toml:"display"`
	Keymap  map[string]string `toml:"keymap"`
}

type CPU struct {
	Speed       int    `toml:"speed"`        // instructions per second
	TimerMode   string `toml:"timer_mode"`   // "fixed" or "instruction"
	Seed        uint64 `toml:"seed"`         // 0 picks a random seed
	ExtendedALU bool   `toml:"extended_alu"` // accept 8XY1/2/3/6/E
}

type Display struct {
	Backend    string `toml:"backend"`
	Scale      int    `toml:"scale"`
	Foreground string `toml:"foreground"`
	Background string `toml:"background"`
	Pace       bool   `toml:"pace"`   // false runs as fast as the host allows
	Frames     int    `toml:"frames"` // headless only
}

func Default() *Config {
	return &Config{
		CPU: CPU{
			Speed:     1000,
			TimerMode: vm.TimerFixed.String(),
		},
		Display: Display{
			Backend:    hal.BackendSDL,
			Scale:      16,
			Foreground: "#bea700",
			Background: "black",
			Pace:       true,
		},
	}
}

// Load reads path over the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	return c, nil
}

// LoadDefault loads DefaultPath if it exists and returns the defaults
// otherwise.
func LoadDefault() (*Config, error) {
	if _, err := os.Stat(DefaultPath); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(DefaultPath)
}

func (c *Config) Validate() error {
	if c.CPU.Speed <= 0 {
		return fmt.Errorf("cpu.speed must be positive, got %d", c.CPU.Speed)
	}
	if _, err := vm.ParseTimerMode(c.CPU.TimerMode); err != nil {
		return fmt.Errorf("cpu.timer_mode: %w", err)
	}

	switch c.Display.Backend {
	case hal.BackendSDL, hal.BackendTerminal, hal.BackendHeadless:
	default:
		return fmt.Errorf("display.backend: unknown backend %q", c.Display.Backend)
	}
	if c.Display.Scale < 1 {
		return fmt.Errorf("display.scale must be at least 1, got %d", c.Display.Scale)
	}
	if c.Display.Frames < 0 {
		return fmt.Errorf("display.frames must not be negative, got %d", c.Display.Frames)
	}
	if _, err := ParseColor(c.Display.Foreground); err != nil {
		return fmt.Errorf("display.foreground: %w", err)
	}
	if _, err := ParseColor(c.Display.Background); err != nil {
		return fmt.Errorf("display.background: %w", err)
	}

	if _, err := ParseKeymap(c.Keymap); err != nil {
		return fmt.Errorf("keymap: %w", err)
	}

	return nil
}

// HALOptions converts the display section into backend options.
func (c *Config) HALOptions() (hal.Options, error) {
	fg, err := ParseColor(c.Display.Foreground)
	if err != nil {
		return hal.Options{}, err
	}
	bg, err := ParseColor(c.Display.Background)
	if err != nil {
		return hal.Options{}, err
	}
	km, err := ParseKeymap(c.Keymap)
	if err != nil {
		return hal.Options{}, err
	}

	opts := hal.Options{
		Scale:      c.Display.Scale,
		Foreground: fg,
		Background: bg,
		Keymap:     km,
		MaxFrames:  c.Display.Frames,
	}
	if c.Display.Pace {
		opts.FrameRate = vm.FrameRate
	}
	return opts, nil
}

// ParseColor accepts "#rrggbb" or a CSS colour name and returns 0xRRGGBB.
func ParseColor(s string) (uint32, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if hex, ok := strings.CutPrefix(s, "#"); ok {
		if len(hex) != 6 {
			return 0, fmt.Errorf("invalid colour %q", s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid colour %q", s)
		}
		return uint32(v), nil
	}

	c, ok := colornames.Map[s]
	if !ok {
		return 0, fmt.Errorf("unknown colour name %q", s)
	}
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B), nil
}

// ParseKeymap converts physical key name -> hex digit entries. An empty map
// yields the default layout.
func ParseKeymap(m map[string]string) (hal.Keymap, error) {
	if len(m) == 0 {
		return hal.DefaultKeymap(), nil
	}

	km := make(hal.Keymap, len(m))
	for name, digit := range m {
		key, err := vm.ParseKey(digit)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", name, err)
		}
		km[name] = key
	}
	return km, nil
}
