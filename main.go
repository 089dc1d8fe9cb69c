package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/kapitanov/chip8emu/internal/config"
	"github.com/kapitanov/chip8emu/internal/hal"
	"github.com/kapitanov/chip8emu/internal/vm"
	"github.com/spf13/cobra"
)

// SDL must be driven from the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	cmd := &cobra.Command{
		Use:           fmt.Sprintf("%s PATH_TO_ROM_FILE", filepath.Base(os.Args[0])),
		Short:         "Run emulator",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	verbose := cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")
	configPath := cmd.Flags().StringP("config", "c", "", "path to config file (default ./"+config.DefaultPath+" if present)")
	speed := cmd.Flags().Int("speed", 0, "instructions per second")
	timerMode := cmd.Flags().String("timer-mode", "", `timer mode: "fixed" (60 Hz) or "instruction"`)
	display := cmd.Flags().String("display", "", "display backend: sdl, terminal or headless")
	scale := cmd.Flags().Int("scale", 0, "window scale factor")
	seed := cmd.Flags().Uint64("seed", 0, "random seed (0 picks one)")
	frames := cmd.Flags().Int("frames", 0, "stop the headless display after this many frames")
	noPace := cmd.Flags().Bool("no-pace", false, "run as fast as possible instead of at 60 frames per second")
	extendedALU := cmd.PersistentFlags().Bool("extended-alu", false, "accept the 8XY1/2/3/6/E instructions")

	cmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		setupLogging(*verbose)
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(*configPath)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("speed") {
			cfg.CPU.Speed = *speed
		}
		if flags.Changed("timer-mode") {
			cfg.CPU.TimerMode = *timerMode
		}
		if flags.Changed("display") {
			cfg.Display.Backend = *display
		}
		if flags.Changed("scale") {
			cfg.Display.Scale = *scale
		}
		if flags.Changed("seed") {
			cfg.CPU.Seed = *seed
		}
		if flags.Changed("frames") {
			cfg.Display.Frames = *frames
		}
		if flags.Changed("no-pace") {
			cfg.Display.Pace = !*noPace
		}
		if flags.Changed("extended-alu") {
			cfg.CPU.ExtendedALU = *extendedALU
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		return run(cmd.Context(), cfg, args[0])
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "disasm PATH_TO_ROM_FILE",
		Short: "Disassemble a ROM",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			bs, err := readROM(args[0])
			if err != nil {
				return err
			}
			return vm.Disassemble(os.Stdout, bs, *extendedALU)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.SetArgs(os.Args[1:])
	if err := cmd.ExecuteContext(ctx); err != nil {
		slog.Error("fatal error", "err", err)
		stop()
		os.Exit(1)
	}
}

func setupLogging(verbose bool) {
	loggerOpts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if verbose {
		loggerOpts.Level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, loggerOpts)))
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadDefault()
	}
	return config.Load(path)
}

func readROM(path string) ([]byte, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to load file %q: %w", path, err)
	}
	return bs, nil
}

func run(ctx context.Context, cfg *config.Config, path string) error {
	bs, err := readROM(path)
	if err != nil {
		return err
	}

	mode, err := vm.ParseTimerMode(cfg.CPU.TimerMode)
	if err != nil {
		return err
	}

	opts := []vm.Option{vm.WithTimerMode(mode)}
	if cfg.CPU.ExtendedALU {
		opts = append(opts, vm.WithExtendedALU())
	}
	if cfg.CPU.Seed != 0 {
		opts = append(opts, vm.WithRandSource(rand.NewPCG(cfg.CPU.Seed, cfg.CPU.Seed)))
	}

	machine, err := vm.New(bs, opts...)
	if err != nil {
		return fmt.Errorf("unable to load program %q: %w", path, err)
	}

	halOpts, err := cfg.HALOptions()
	if err != nil {
		return err
	}

	h, err := hal.Open(cfg.Display.Backend, halOpts)
	if err != nil {
		return fmt.Errorf("unable to initialize hal: %w", err)
	}
	defer h.Shutdown()

	for {
		err = machine.Run(ctx, h, cfg.CPU.Speed)

		if errors.Is(err, hal.ErrReboot) {
			slog.Info("reboot")
			continue
		}

		if headless, ok := h.(*hal.Headless); ok {
			screen := headless.Screen()
			fmt.Print(screen.String())
		}

		if errors.Is(err, hal.ErrQuit) || errors.Is(err, context.Canceled) {
			return nil
		}

		return err
	}
}
