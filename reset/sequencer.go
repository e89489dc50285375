/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package reset

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gu-peter/aurora-link/core"
	"github.com/gu-peter/aurora-link/utils/comparison"
)

// State is a state of the reset sequencer.
type State int32

const (
	// PowerUp holds reset and PMA init asserted after power-up.
	PowerUp State = iota
	// PmaInitDeassert releases PMA init, then reset, in order.
	PmaInitDeassert
	// WaitForUserAssert idles with both lines released until a reset is
	// requested.
	WaitForUserAssert
	// DelayBeforePmaInitAssert holds reset asserted before asserting PMA
	// init, so the transceiver sees a clean ordering.
	DelayBeforePmaInitAssert
	// HoldResetAssert holds both lines asserted for the minimum assertion
	// time, then restarts the release sequence.
	HoldResetAssert
)

func (s State) String() string {
	switch s {
	case PowerUp:
		return "PowerUp"
	case PmaInitDeassert:
		return "PmaInitDeassert"
	case WaitForUserAssert:
		return "WaitForUserAssert"
	case DelayBeforePmaInitAssert:
		return "DelayBeforePmaInitAssert"
	case HoldResetAssert:
		return "HoldResetAssert"
	default:
		return "Unknown"
	}
}

// SequencerConfig contains the timing parameters of the reset sequencer.
type SequencerConfig struct {
	// SeqFreqHz is the frequency the sequencer is ticked at.
	SeqFreqHz uint64
	// UserFreqHz is the frequency of the user clock domain.
	UserFreqHz uint64
	// MinUserCycles is the minimum hold time between line transitions,
	// expressed in user-clock cycles.
	MinUserCycles uint64
	// MinAssertTime is the minimum time PMA init stays asserted during a
	// requested reset. The transceiver requires on the order of a second.
	MinAssertTime time.Duration
	// TickPeriod is the tick interval when no tick source is injected.
	TickPeriod time.Duration
}

// DefaultSequencerConfig returns the timing used by the sample configuration.
func DefaultSequencerConfig() SequencerConfig {
	return SequencerConfig{
		SeqFreqHz:     100_000_000,
		UserFreqHz:    322_265_625,
		MinUserCycles: 4096,
		MinAssertTime: 1050 * time.Millisecond,
		TickPeriod:    time.Microsecond,
	}
}

// holdCycles converts the minimum user-cycle hold time into sequencer cycles,
// rounding up so the hold is never shortened.
func (c SequencerConfig) holdCycles() uint64 {
	return comparison.CeilDiv(c.MinUserCycles*c.SeqFreqHz, c.UserFreqHz)
}

// assertCycles converts the minimum assertion time into sequencer cycles.
func (c SequencerConfig) assertCycles() uint64 {
	return comparison.CeilDiv(uint64(c.MinAssertTime)*c.SeqFreqHz, uint64(time.Second))
}

// Sequencer drives the reset and PMA init lines of one link through the
// power-up release sequence and through requested resets. The two lines are
// readable atomically at any time.
type Sequencer struct {
	conf SequencerConfig

	state     atomic.Int32
	resetLine atomic.Bool
	pmaInit   atomic.Bool

	resetPending atomic.Bool

	ticks  <-chan time.Time
	ticker *time.Ticker

	countdown uint64

	quit      chan struct{}
	closeOnce sync.Once
	hasQuit   chan bool
}

// MakeSequencer creates a reset sequencer. Both lines start asserted, as at
// power-up.
func MakeSequencer(conf SequencerConfig) *Sequencer {
	s := &Sequencer{
		conf:    conf,
		quit:    make(chan struct{}),
		hasQuit: make(chan bool, 1),
	}
	s.state.Store(int32(PowerUp))
	s.resetLine.Store(true)
	s.pmaInit.Store(true)
	s.countdown = conf.holdCycles()
	return s
}

func (s *Sequencer) String() string {
	return "ResetSequencer"
}

// State returns the current sequencer state.
func (s *Sequencer) State() State {
	return State(s.state.Load())
}

// Reset returns whether the reset line is asserted.
func (s *Sequencer) Reset() bool {
	return s.resetLine.Load()
}

// PmaInit returns whether the PMA init line is asserted.
func (s *Sequencer) PmaInit() bool {
	return s.pmaInit.Load()
}

// TriggerReset requests a full reset cycle. Takes effect once the power-up
// release sequence has completed.
func (s *Sequencer) TriggerReset() {
	s.resetPending.Store(true)
}

// SetTickSource replaces the sequencer's tick source. Must be called before
// Run.
func (s *Sequencer) SetTickSource(ticks <-chan time.Time) {
	s.ticks = ticks
}

// Run runs the sequencer. Blocks until Close.
func (s *Sequencer) Run() {
	defer func() { s.hasQuit <- true }()

	if s.ticks == nil {
		s.ticker = time.NewTicker(s.conf.TickPeriod)
		s.ticks = s.ticker.C
	}

	for {
		select {
		case <-s.quit:
			return
		case <-s.ticks:
			s.step()
		}
	}
}

// Close stops the sequencer.
func (s *Sequencer) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		if s.ticker != nil {
			s.ticker.Stop()
		}
		<-s.hasQuit
	})
}

// step advances the state machine by one sequencer cycle.
func (s *Sequencer) step() {
	switch s.State() {
	case PowerUp:
		if s.countdown > 0 {
			s.countdown--
			return
		}
		s.pmaInit.Store(false)
		s.countdown = s.conf.holdCycles()
		s.changeState(PmaInitDeassert)
	case PmaInitDeassert:
		if s.countdown > 0 {
			s.countdown--
			return
		}
		s.resetLine.Store(false)
		s.changeState(WaitForUserAssert)
	case WaitForUserAssert:
		if s.resetPending.Swap(false) {
			s.resetLine.Store(true)
			s.countdown = s.conf.holdCycles()
			s.changeState(DelayBeforePmaInitAssert)
		}
	case DelayBeforePmaInitAssert:
		if s.countdown > 0 {
			s.countdown--
			return
		}
		s.pmaInit.Store(true)
		s.countdown = s.conf.assertCycles()
		s.changeState(HoldResetAssert)
	case HoldResetAssert:
		if s.countdown > 0 {
			s.countdown--
			return
		}
		// Restart the release sequence with both lines asserted
		s.countdown = s.conf.holdCycles()
		s.changeState(PowerUp)
	}
}

func (s *Sequencer) changeState(new State) {
	core.LogDebug(s, "state: ", s.State(), " -> ", new)
	s.state.Store(int32(new))
}
