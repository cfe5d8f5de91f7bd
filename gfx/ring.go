// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"github.com/pkg/errors"
)

// WaitForever is a fence timeout that never expires.
const WaitForever = ^uint64(0)

// Fence is a CPU observable GPU completion signal.
type Fence interface {
	// Wait blocks until the fence is signaled or timeout nanoseconds pass.
	// Returns ErrFenceTimeout when the time runs out.
	Wait(timeout uint64) error

	// Reset returns the fence to the unsignaled state.
	Reset() error
}

// NewRing creates a ring over per-frame fences, one per frame in flight.
// Fences are expected to start signaled.
func NewRing(fences []Fence, timeout uint64) (*Ring, error) {
	if len(fences) == 0 {
		return nil, errors.New("ring needs at least one frame in flight")
	}
	return &Ring{
		fences:  fences,
		timeout: timeout,
		active:  -1,
	}, nil
}

// Ring hands out frame slots in order, so that slot submitted%n is only
// reused once its previous submission has signaled the fence.
type Ring struct {
	fences  []Fence
	timeout uint64

	submitted uint64
	active    int
}

// Len returns the number of frames in flight.
func (r *Ring) Len() int {
	return len(r.fences)
}

// Submitted returns the count of frames submitted so far.
func (r *Ring) Submitted() uint64 {
	return r.submitted
}

// Slot returns the slot index the next frame will use.
func (r *Ring) Slot() int {
	return int(r.submitted % uint64(len(r.fences)))
}

// Begin waits for the next slot's previous work and returns the slot.
// The slot stays owned by the caller until Submit or Abandon.
func (r *Ring) Begin() (int, error) {
	if r.active >= 0 {
		return 0, errors.Errorf("slot %d still in use", r.active)
	}
	slot := r.Slot()
	if err := r.fences[slot].Wait(r.timeout); err != nil {
		return 0, err
	}
	r.active = slot
	return slot, nil
}

// Submit runs record, resets the slot fence and runs submit with the
// fence the GPU must signal. The fence is reset only once recording
// succeeded, so a failed recording leaves the slot reusable. The
// submitted count only advances when everything succeeds.
func (r *Ring) Submit(slot int, record func() error, submit func(Fence) error) error {
	if slot != r.active {
		return errors.Errorf("slot %d was not begun", slot)
	}
	r.active = -1

	if err := record(); err != nil {
		return err
	}
	fence := r.fences[slot]
	if err := fence.Reset(); err != nil {
		return errors.Wrap(err, "fence reset")
	}
	if err := submit(fence); err != nil {
		return err
	}
	r.submitted++
	return nil
}

// Abandon gives the slot back without submitting, as when the
// swapchain image could not be acquired. The fence is left signaled.
func (r *Ring) Abandon(slot int) {
	if slot == r.active {
		r.active = -1
	}
}
