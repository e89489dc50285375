/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package mgmt

import (
	"sync"

	"github.com/gu-peter/aurora-link/core"
	"github.com/gu-peter/aurora-link/defn"
	"github.com/gu-peter/aurora-link/link"
	"github.com/gu-peter/aurora-link/reset"
	"github.com/gu-peter/aurora-link/tx"
)

// AllChans addresses every channel of the core in a single call.
const AllChans = -1

// Status is a snapshot of the core status lines.
type Status struct {
	LaneStatus []bool
	LinkStatus bool
	HardError  bool
	SoftError  bool
	MMCMLock   bool
	GTPllLock  bool
}

// AuroraControl is the control surface of one Aurora link core: status,
// counters, flow-control tuning, and per-channel TX datapath control.
type AuroraControl struct {
	engine    *link.FlowControlEngine
	sequencer *reset.Sequencer
	demux     *tx.Demux
	channels  []int

	// Flow-control parameters staged for the next link reset. The running
	// engine validates its own configuration at construction.
	confMtx sync.Mutex
	conf    link.FlowControlConfig
}

// MakeAuroraControl creates a control surface over the given engine, reset
// sequencer, and TX demux. channels lists the channel numbers of the core.
func MakeAuroraControl(engine *link.FlowControlEngine, sequencer *reset.Sequencer, demux *tx.Demux, channels []int) *AuroraControl {
	return &AuroraControl{
		engine:    engine,
		sequencer: sequencer,
		demux:     demux,
		channels:  channels,
		conf:      engine.Config(),
	}
}

func (a *AuroraControl) String() string {
	return "AuroraControl"
}

// NumChannels returns the number of channels of the core.
func (a *AuroraControl) NumChannels() int {
	return len(a.channels)
}

// Channels returns the channel numbers of the core.
func (a *AuroraControl) Channels() []int {
	return a.channels
}

//
// Status and counters
//

// Status returns a snapshot of the core status lines.
func (a *AuroraControl) Status() Status {
	up := a.engine.State() == defn.Up && !a.sequencer.Reset()
	locked := !a.sequencer.PmaInit()

	lanes := make([]bool, len(a.channels))
	for i := range lanes {
		lanes[i] = up
	}
	return Status{
		LaneStatus: lanes,
		LinkStatus: up,
		HardError:  a.engine.State() == defn.Down,
		SoftError:  false,
		MMCMLock:   locked,
		GTPllLock:  locked,
	}
}

// LinkStatus returns whether the link is up.
func (a *AuroraControl) LinkStatus() bool {
	return a.Status().LinkStatus
}

// LaneStatus returns whether the lane for the given channel is up.
func (a *AuroraControl) LaneStatus(channel int) (bool, error) {
	if _, err := a.controller(channel); err != nil {
		return false, err
	}
	return a.Status().LinkStatus, nil
}

// RxPacketCounter returns the number of packets received from the link.
func (a *AuroraControl) RxPacketCounter() uint64 {
	return a.engine.Counters().RxPackets.Load()
}

// TxPacketCounter returns the number of packets sent to the link.
func (a *AuroraControl) TxPacketCounter() uint64 {
	return a.engine.Counters().TxPackets.Load()
}

// OverflowCounter returns the number of words dropped to receive buffer
// overflow.
func (a *AuroraControl) OverflowCounter() uint64 {
	return a.engine.Counters().Overflow.Load()
}

// CRCErrorCounter returns the number of packets dropped to integrity-check
// failures.
func (a *AuroraControl) CRCErrorCounter() uint64 {
	return a.engine.Counters().CRCErrors.Load()
}

// DroppedPacketCounter returns the number of validated packets dropped
// because no channel was registered for them.
func (a *AuroraControl) DroppedPacketCounter() uint64 {
	if a.demux == nil {
		return 0
	}
	return a.demux.DroppedPackets()
}

//
// Flow-control parameters
//

// FCPauseCount returns the staged pause count.
func (a *AuroraControl) FCPauseCount() uint8 {
	a.confMtx.Lock()
	defer a.confMtx.Unlock()
	return a.conf.PauseCount
}

// SetFCPauseCount stages the pause count for the next link reset. 0 selects
// stop mode; values 1-9 are rejected as too short for reliable pause
// extension.
func (a *AuroraControl) SetFCPauseCount(pauseCount uint8) error {
	if pauseCount > 0 && pauseCount < 10 {
		return core.ErrInvalidPauseCount
	}
	a.confMtx.Lock()
	defer a.confMtx.Unlock()
	a.conf.PauseCount = pauseCount
	return nil
}

// FCPauseThreshold returns the staged pause threshold.
func (a *AuroraControl) FCPauseThreshold() uint16 {
	a.confMtx.Lock()
	defer a.confMtx.Unlock()
	return a.conf.PauseThreshold
}

// SetFCPauseThreshold stages the pause threshold for the next link reset.
func (a *AuroraControl) SetFCPauseThreshold(pauseThreshold uint16) error {
	a.confMtx.Lock()
	defer a.confMtx.Unlock()
	if pauseThreshold >= a.conf.ResumeThreshold {
		return core.ErrInvalidThresholds
	}
	a.conf.PauseThreshold = pauseThreshold
	return nil
}

// FCResumeThreshold returns the staged resume threshold.
func (a *AuroraControl) FCResumeThreshold() uint16 {
	a.confMtx.Lock()
	defer a.confMtx.Unlock()
	return a.conf.ResumeThreshold
}

// SetFCResumeThreshold stages the resume threshold for the next link reset.
func (a *AuroraControl) SetFCResumeThreshold(resumeThreshold uint16) error {
	a.confMtx.Lock()
	defer a.confMtx.Unlock()
	if a.conf.PauseThreshold >= resumeThreshold {
		return core.ErrInvalidThresholds
	}
	a.conf.ResumeThreshold = resumeThreshold
	return nil
}

// StagedConfig returns the flow-control configuration to apply at the next
// link reset.
func (a *AuroraControl) StagedConfig() link.FlowControlConfig {
	a.confMtx.Lock()
	defer a.confMtx.Unlock()
	return a.conf
}

//
// TX datapath control
//

// TxDatapathEnable starts or stops the TX datapath of the given channel, or
// of all channels when channel is AllChans.
func (a *AuroraControl) TxDatapathEnable(enable bool, channel int) error {
	if channel == AllChans {
		for _, ch := range a.channels {
			if err := a.txDatapathEnable(ch, enable); err != nil {
				return err
			}
		}
		return nil
	}
	if enable {
		core.LogWarn(a, "Enabling only a single channel can lead to undesired behavior")
	} else {
		core.LogWarn(a, "Disabling only a single channel can lead to undesired behavior")
	}
	return a.txDatapathEnable(channel, enable)
}

func (a *AuroraControl) txDatapathEnable(channel int, enable bool) error {
	c, err := a.controller(channel)
	if err != nil {
		return err
	}
	if enable {
		core.LogDebug(a, "[Channel ", channel, "] Starting TX datapath")
		c.Start()
	} else {
		core.LogDebug(a, "[Channel ", channel, "] Stopping TX datapath")
		c.Stop()
	}
	return nil
}

// TxDatapathEnqueueTimestamp queues a timestamp entry for a future burst on
// the given channel, or on all channels when channel is AllChans.
func (a *AuroraControl) TxDatapathEnqueueTimestamp(timestamp uint64, channel int) error {
	if channel == AllChans {
		for _, ch := range a.channels {
			if err := a.TxDatapathEnqueueTimestamp(timestamp, ch); err != nil {
				return err
			}
		}
		return nil
	}
	c, err := a.controller(channel)
	if err != nil {
		return err
	}
	return c.EnqueueTimestamp(timestamp)
}

// ChannelStopPolicy returns the stop policy of the given channel.
func (a *AuroraControl) ChannelStopPolicy(channel int) (tx.StopPolicy, error) {
	c, err := a.controller(channel)
	if err != nil {
		return tx.PolicyDrop, err
	}
	return c.Policy(), nil
}

// SetChannelStopPolicy sets the stop policy of the given channel, or of all
// channels when channel is AllChans. A stopped Buffer-policy channel holds
// back-pressure into the shared flow-control engine; with other channels
// still enabled this wedges the link.
func (a *AuroraControl) SetChannelStopPolicy(policy tx.StopPolicy, channel int) error {
	if channel == AllChans {
		for _, ch := range a.channels {
			if err := a.SetChannelStopPolicy(policy, ch); err != nil {
				return err
			}
		}
		return nil
	}
	c, err := a.controller(channel)
	if err != nil {
		return err
	}
	c.SetPolicy(policy)
	return nil
}

// TimestampQueueFullness returns the number of queued timestamp entries for
// the given channel.
func (a *AuroraControl) TimestampQueueFullness(channel int) (int, error) {
	c, err := a.controller(channel)
	if err != nil {
		return 0, err
	}
	return c.TimestampQueueFullness(), nil
}

// TimestampQueueSize returns the timestamp queue capacity of the given
// channel.
func (a *AuroraControl) TimestampQueueSize(channel int) (int, error) {
	c, err := a.controller(channel)
	if err != nil {
		return 0, err
	}
	return c.TimestampQueueSize(), nil
}

// ClearTimestampQueue drains the timestamp queue of the given channel, or of
// all channels when channel is AllChans.
func (a *AuroraControl) ClearTimestampQueue(channel int) error {
	if channel == AllChans {
		for _, ch := range a.channels {
			if err := a.ClearTimestampQueue(ch); err != nil {
				return err
			}
		}
		return nil
	}
	c, err := a.controller(channel)
	if err != nil {
		return err
	}
	c.ClearTimestampQueue()
	return nil
}

//
// Resets
//

// ResetTx resets the TX datapath: all channels are stopped and their
// timestamp queues drained.
func (a *AuroraControl) ResetTx() {
	core.LogInfo(a, "Resetting TX datapath")
	for _, ch := range a.channels {
		if c := tx.ControllerTable.Get(ch); c != nil {
			c.Stop()
			c.ClearTimestampQueue()
		}
	}
}

// Reset resets the whole core: the TX datapath is reset and a full link reset
// cycle is requested from the sequencer.
func (a *AuroraControl) Reset() {
	core.LogInfo(a, "Resetting Aurora core")
	a.ResetTx()
	a.sequencer.TriggerReset()
}

func (a *AuroraControl) controller(channel int) (*tx.Controller, error) {
	c := tx.ControllerTable.Get(channel)
	if c == nil {
		return nil, core.ErrInvalidChannel
	}
	return c, nil
}
