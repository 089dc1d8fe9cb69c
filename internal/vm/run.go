package vm

import (
	"context"
	"log/slog"
)

// FrameRate is how many times per second Run draws, polls input and ticks
// the timers, provided the HAL paces WaitForNextFrame accordingly.
const FrameRate = 60

// HAL is the host side of the machine: display, input and frame pacing.
type HAL interface {
	// ReadInput reports every key transition observed since the last call.
	ReadInput(keyDown func(Key), keyUp func(Key)) error
	Draw(gfx []uint8) error
	WaitForNextFrame() error
}

// StepsPerFrame converts an instruction rate into a per-frame step budget.
func StepsPerFrame(speed int) int {
	return max(1, speed/FrameRate)
}

// Run resets the machine and executes it against hal until ctx is done, the
// HAL reports an error or the program faults. speed is the number of
// instructions per second.
func (vm *VM) Run(ctx context.Context, hal HAL, speed int) error {
	vm.Reset()
	steps := StepsPerFrame(speed)

	slog.Debug("run", "speed", speed, "steps_per_frame", steps, "timers", vm.timerMode.String())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		status, err := vm.runFrame(steps)
		if err != nil {
			return err
		}

		if status == StatusLooped {
			slog.Info("program looped")
			if err := vm.present(hal); err != nil {
				return err
			}
			return vm.waitForReboot(ctx, hal)
		}

		if err := vm.present(hal); err != nil {
			return err
		}
	}
}

func (vm *VM) runFrame(steps int) (Status, error) {
	status := StatusRunning
	for i := 0; i < steps && status == StatusRunning; i++ {
		var err error
		if status, err = vm.Step(); err != nil {
			return status, err
		}
	}

	// Timers keep counting while FX0A waits.
	if vm.timerMode == TimerFixed {
		vm.Tick()
	}

	return status, nil
}

// present hands a changed screen to the HAL, applies pending key
// transitions and waits for the next frame.
func (vm *VM) present(hal HAL) error {
	if vm.drawFlag {
		gfx := vm.Framebuffer()
		if err := hal.Draw(gfx[:]); err != nil {
			return err
		}
		vm.drawFlag = false
	}

	if err := hal.ReadInput(vm.KeyDown, vm.KeyUp); err != nil {
		return err
	}

	return hal.WaitForNextFrame()
}

func (vm *VM) waitForReboot(ctx context.Context, hal HAL) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := hal.WaitForNextFrame(); err != nil {
			return err
		}

		if err := hal.ReadInput(func(_ Key) {}, func(_ Key) {}); err != nil {
			return err
		}
	}
}
