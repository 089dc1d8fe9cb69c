package vm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTestQuit = errors.New("quit")

type keyEvent struct {
	key  Key
	down bool
}

// scriptedHAL replays key events at given input polls and quits on poll quitAt.
type scriptedHAL struct {
	script map[int][]keyEvent
	quitAt int

	polls  int
	frames int
	draws  int
	last   []uint8
}

func (h *scriptedHAL) ReadInput(keyDown func(Key), keyUp func(Key)) error {
	h.polls++
	if h.polls == h.quitAt {
		return errTestQuit
	}

	for _, e := range h.script[h.polls] {
		if e.down {
			keyDown(e.key)
		} else {
			keyUp(e.key)
		}
	}
	return nil
}

func (h *scriptedHAL) Draw(gfx []uint8) error {
	h.draws++
	h.last = append(h.last[:0], gfx...)
	return nil
}

func (h *scriptedHAL) WaitForNextFrame() error {
	h.frames++
	return nil
}

func TestStepsPerFrame(t *testing.T) {
	assert.Equal(t, 1, StepsPerFrame(0))
	assert.Equal(t, 1, StepsPerFrame(30))
	assert.Equal(t, 16, StepsPerFrame(1000))
}

func TestRun_DrawsAndLoops(t *testing.T) {
	// Draw glyph 0 at (0,0) then spin on the last instruction.
	m := newTestVM(t, 0x6000, 0xF029, 0xD005, 0x1206)
	h := &scriptedHAL{quitAt: 5}

	err := m.Run(context.Background(), h, 1000)
	require.ErrorIs(t, err, errTestQuit)

	require.Len(t, h.last, ScreenWidth*ScreenHeight)
	for x := 0; x < 4; x++ {
		assert.Equal(t, uint8(1), h.last[x], "pixel %d of the top row", x)
	}
	assert.Equal(t, uint8(0), h.last[4])
	assert.Equal(t, 1, h.draws)
}

func TestRun_WaitKey(t *testing.T) {
	// 0x200: wait for key into V5
	// 0x202: spin
	m := newTestVM(t, 0xF50A, 0x1202)
	h := &scriptedHAL{
		script: map[int][]keyEvent{
			3: {{KeyB, true}},
			4: {{KeyB, false}},
		},
		quitAt: 10,
	}

	err := m.Run(context.Background(), h, 600)
	require.ErrorIs(t, err, errTestQuit)

	assert.Equal(t, uint8(KeyB), m.registers[5])
	assert.Equal(t, uint16(0x202), m.pc)
	assert.False(t, m.IsKeyDown(KeyB))
}

func TestRun_FixedTimersTickWhileWaiting(t *testing.T) {
	m := newTestVM(t, 0x603C, 0xF015, 0xF10A)
	h := &scriptedHAL{quitAt: 12}

	err := m.Run(context.Background(), h, 6000)
	require.ErrorIs(t, err, errTestQuit)

	// One tick per frame, one input poll per frame.
	assert.Equal(t, uint8(60-h.polls), m.delayTimer)
	assert.True(t, m.Waiting())
}

func TestRun_Fault(t *testing.T) {
	m := newTestVM(t, 0x6001, 0xF0FF)
	h := &scriptedHAL{}

	err := m.Run(context.Background(), h, 600)

	var fault *Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, uint16(0x202), fault.PC)
	assert.Equal(t, uint16(0xF0FF), fault.Opcode)
}

func TestRun_Canceled(t *testing.T) {
	m := newTestVM(t, 0x1202, 0x1200)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Run(ctx, &scriptedHAL{}, 600)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_CanceledWhileLooped(t *testing.T) {
	m := newTestVM(t, 0x1200)
	ctx, cancel := context.WithCancel(context.Background())
	h := &scriptedHAL{
		script: map[int][]keyEvent{},
	}

	// Cancel from inside the HAL once the run has settled in the idle loop.
	hal := &cancelingHAL{scriptedHAL: h, cancelAt: 3, cancel: cancel}
	err := m.Run(ctx, hal, 600)
	assert.ErrorIs(t, err, context.Canceled)
}

type cancelingHAL struct {
	*scriptedHAL
	cancelAt int
	cancel   context.CancelFunc
}

func (h *cancelingHAL) WaitForNextFrame() error {
	if err := h.scriptedHAL.WaitForNextFrame(); err != nil {
		return err
	}
	if h.frames == h.cancelAt {
		h.cancel()
	}
	return nil
}
