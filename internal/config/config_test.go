package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kapitanov/chip8emu/internal/hal"
	"github.com/kapitanov/chip8emu/internal/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	opts, err := c.HALOptions()
	require.NoError(t, err)
	assert.Equal(t, hal.DefaultOptions(), opts)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[cpu]
speed = 700
timer_mode = "instruction"
seed = 42
extended_alu = true

[display]
backend = "terminal"
foreground = "LimeGreen"
pace = false

[keymap]
"1" = "1"
"space" = "f"
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, CPU{Speed: 700, TimerMode: "instruction", Seed: 42, ExtendedALU: true}, c.CPU)
	assert.Equal(t, "terminal", c.Display.Backend)
	assert.Equal(t, 16, c.Display.Scale, "unset keys keep defaults")

	opts, err := c.HALOptions()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x32cd32), opts.Foreground)
	assert.Equal(t, uint32(0), opts.Background)
	assert.Equal(t, hal.Keymap{"1": vm.Key1, "space": vm.KeyF}, opts.Keymap)
	assert.Zero(t, opts.FrameRate, "pacing disabled")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "[cpu\nspeed = 1"))
	assert.ErrorContains(t, err, "parse error")

	_, err = Load(writeConfig(t, "[cpu]\nspeeed = 1\n"))
	assert.ErrorContains(t, err, "unknown keys")
	assert.ErrorContains(t, err, "cpu.speeed")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		want   string
	}{
		{"speed", func(c *Config) { c.CPU.Speed = 0 }, "cpu.speed"},
		{"timer mode", func(c *Config) { c.CPU.TimerMode = "vblank" }, "cpu.timer_mode"},
		{"backend", func(c *Config) { c.Display.Backend = "vga" }, "display.backend"},
		{"scale", func(c *Config) { c.Display.Scale = 0 }, "display.scale"},
		{"frames", func(c *Config) { c.Display.Frames = -1 }, "display.frames"},
		{"foreground", func(c *Config) { c.Display.Foreground = "#12345" }, "display.foreground"},
		{"background", func(c *Config) { c.Display.Background = "ultraviolet" }, "display.background"},
		{"keymap", func(c *Config) { c.Keymap = map[string]string{"q": "10"} }, "keymap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
		ok   bool
	}{
		{"#bea700", 0xbea700, true},
		{"#FFFFFF", 0xffffff, true},
		{" white ", 0xffffff, true},
		{"Red", 0xff0000, true},
		{"#fff", 0, false},
		{"#gggggg", 0, false},
		{"", 0, false},
		{"blurple", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKeymap(t *testing.T) {
	km, err := ParseKeymap(nil)
	require.NoError(t, err)
	assert.Equal(t, hal.DefaultKeymap(), km)

	_, err = ParseKeymap(map[string]string{"q": "g"})
	assert.ErrorIs(t, err, vm.ErrInvalidKey)
}
