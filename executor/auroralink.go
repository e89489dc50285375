/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package executor

import (
	"net"
	"time"

	"github.com/gu-peter/aurora-link/core"
	"github.com/gu-peter/aurora-link/defn"
	"github.com/gu-peter/aurora-link/link"
	"github.com/gu-peter/aurora-link/mgmt"
	"github.com/gu-peter/aurora-link/reset"
	"github.com/gu-peter/aurora-link/tx"
)

// AuroraLinkConfig is the configuration of the Aurora link daemon.
type AuroraLinkConfig struct {
	Version           string
	ConfigFileName    string
	DisableEthernet   bool
	LogFile           string
	CpuProfile        string
	MemProfile        string
	BlockProfile      string
	MemoryBallastSize int
}

// AuroraLink is the wrapper class for the Aurora link daemon.
// Note: only one instance of this class should be created.
type AuroraLink struct {
	config   *AuroraLinkConfig
	profiler *Profiler

	engine    *link.FlowControlEngine
	demux     *tx.Demux
	sequencer *reset.Sequencer
	control   *mgmt.AuroraControl

	wsListener   *link.WebSocketListener
	tcpListeners []*link.TCPListener
}

// NewAuroraLink creates an AuroraLink. Don't call this function twice.
func NewAuroraLink(config *AuroraLinkConfig) *AuroraLink {
	// Provide metadata to other threads.
	core.Version = config.Version
	core.StartTimestamp = time.Now()

	// Allocate memory ballast (if enabled)
	if config.MemoryBallastSize > 0 {
		_ = make([]byte, config.MemoryBallastSize<<30)
	}

	// Initialize config file
	core.LoadConfig(config.ConfigFileName)
	core.InitializeLogger(config.LogFile)
	link.Configure()
	tx.Configure()

	a := &AuroraLink{config: config}
	a.profiler = NewProfiler(config)
	if err := a.profiler.Start(); err != nil {
		core.LogFatal("Main", "Unable to start profiler: ", err)
	}
	return a
}

// flowControlConfig assembles the flow-control engine parameters from the
// configuration file. Invalid thresholds are fatal here, before any traffic
// can flow.
func (a *AuroraLink) flowControlConfig() link.FlowControlConfig {
	conf := link.DefaultFlowControlConfig()
	conf.PauseCount = core.GetConfigUint8Default("link.fc.pause_count", 0)
	conf.PauseThreshold = core.GetConfigUint16Default("link.fc.pause_threshold", 160)
	conf.ResumeThreshold = core.GetConfigUint16Default("link.fc.resume_threshold", 200)
	conf.ThresholdWidth = core.GetConfigIntDefault("link.fc.threshold_width", 8)
	conf.MaxPacketWords = core.GetConfigIntDefault("link.fc.max_packet_words", 1024)
	conf.CyclePeriod = time.Duration(core.GetConfigIntDefault("link.fc.cycle_period_ns", 1000)) * time.Nanosecond

	conf, err := conf.Validate()
	if err != nil {
		core.LogFatal("Main", "Invalid flow-control configuration: ", err)
	}
	return conf
}

func (a *AuroraLink) sequencerConfig() reset.SequencerConfig {
	conf := reset.DefaultSequencerConfig()
	conf.SeqFreqHz = uint64(core.GetConfigIntDefault("reset.seq_freq_hz", 100_000_000))
	conf.UserFreqHz = uint64(core.GetConfigIntDefault("reset.user_freq_hz", 322_265_625))
	conf.MinUserCycles = uint64(core.GetConfigIntDefault("reset.min_user_cycles", 4096))
	conf.MinAssertTime = time.Duration(core.GetConfigIntDefault("reset.min_assert_time_ms", 1050)) * time.Millisecond
	conf.TickPeriod = time.Duration(core.GetConfigIntDefault("reset.tick_period_ns", 1000)) * time.Nanosecond
	return conf
}

// Start runs AuroraLink. Note: this function may exit the program when there
// is an error. This function is non-blocking.
func (a *AuroraLink) Start() {
	core.LogInfo("Main", "Starting AuroraLink")

	fcConf := a.flowControlConfig()

	// Start reset sequencer
	a.sequencer = reset.MakeSequencer(a.sequencerConfig())
	go a.sequencer.Run()

	// Create the primary link
	var err error
	remote := core.GetConfigStringDefault("link.remote", "")
	if remote != "" {
		remoteURI := defn.DecodeURIString(remote)
		if err := remoteURI.Canonize(); err != nil {
			core.LogFatal("Main", "Invalid remote link URI ", remote, ": ", err)
		}
		switch remoteURI.Scheme() {
		case "tcp4", "tcp6":
			transport, err := link.MakeUnicastTCPTransport(remoteURI, nil)
			if err != nil {
				core.LogFatal("Main", "Unable to create TCP transport for ", remote, ": ", err)
			}
			a.engine, err = link.MakeFlowControlEngine(transport, fcConf, nil)
			if err != nil {
				core.LogFatal("Main", "Unable to create flow-control engine: ", err)
			}
		case "ether":
			if a.config.DisableEthernet {
				core.LogFatal("Main", "Ethernet remote configured but Ethernet is disabled")
			}
			devName := core.GetConfigStringDefault("link.ethernet.interface", "")
			transport, err := link.MakeUnicastEthernetTransport(remoteURI, defn.MakeDevURI(devName))
			if err != nil {
				core.LogFatal("Main", "Unable to create Ethernet transport for ", remote, ": ", err)
			}
			a.engine, err = link.MakeFlowControlEngine(transport, fcConf, nil)
			if err != nil {
				core.LogFatal("Main", "Unable to create flow-control engine: ", err)
			}
		default:
			core.LogFatal("Main", "Unsupported remote link scheme ", remoteURI.Scheme())
		}
	} else {
		// Detached link for management and listeners only
		a.engine, err = link.MakeFlowControlEngine(link.MakeNullTransport(), fcConf, nil)
		if err != nil {
			core.LogFatal("Main", "Unable to create flow-control engine: ", err)
		}
	}
	link.LinkTable.Add(a.engine)
	go a.engine.Run()
	core.LogInfo("Main", "Created primary link on ", a.engine.Transport())

	// Create TX datapath channels behind the demux
	numChannels := core.GetConfigIntDefault("tx.num_channels", 1)
	a.demux = tx.MakeDemux(a.engine.Out(), &tx.ControllerTable)
	channels := make([]int, 0, numChannels)
	for ch := 0; ch < numChannels; ch++ {
		a.demux.AddChannel(ch, link.ChdrWidth, link.ItemSize)
		channels = append(channels, ch)
	}
	go a.demux.Run()

	// Management surface
	a.control = mgmt.MakeAuroraControl(a.engine, a.sequencer, a.demux, channels)

	// Accept incoming links
	if core.GetConfigBoolDefault("link.tcp.enabled", true) {
		a.startTCPListeners(fcConf)
	}

	if core.GetConfigBoolDefault("link.websocket.enabled", false) {
		cfg := link.WebSocketListenerConfig{
			Bind:       core.GetConfigStringDefault("link.websocket.bind", ""),
			Port:       core.GetConfigUint16Default("link.websocket.port", link.WebSocketPort),
			TLSEnabled: core.GetConfigBoolDefault("link.websocket.tls_enabled", false),
			TLSCert:    core.ResolveConfigFileRelPath(core.GetConfigStringDefault("link.websocket.tls_cert", "")),
			TLSKey:     core.ResolveConfigFileRelPath(core.GetConfigStringDefault("link.websocket.tls_key", "")),
		}
		a.wsListener, err = link.NewWebSocketListener(cfg, fcConf)
		if err != nil {
			core.LogError("Main", "Unable to create ", cfg, ": ", err)
		} else {
			go a.wsListener.Run()
			core.LogInfo("Main", "Created ", cfg)
		}
	}
}

// startTCPListeners creates a TCP listener for every address of every
// interface that is up.
func (a *AuroraLink) startTCPListeners(fcConf link.FlowControlConfig) {
	ifaces, err := net.Interfaces()
	if err != nil {
		core.LogError("Main", "Unable to access network interfaces: ", err)
		return
	}

	a.tcpListeners = make([]*link.TCPListener, 0)
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			core.LogInfo("Main", "Skipping interface ", iface.Name, " because not up")
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			core.LogError("Main", "Unable to access addresses on network interface ", iface.Name, ": ", err)
			continue
		}
		for _, addr := range addrs {
			ipAddr := addr.(*net.IPNet)
			ipVersion := 4
			if ipAddr.IP.To4() == nil {
				ipVersion = 6
			}

			tcpListener, err := link.MakeTCPListener(defn.MakeTCPURI(ipVersion, ipAddr.IP.String(), link.TCPUnicastPort), fcConf)
			if err != nil {
				core.LogError("Main", "Unable to create TCP listener for ", ipAddr.IP, " on ", iface.Name, ": ", err)
				continue
			}
			go tcpListener.Run()
			core.LogInfo("Main", "Created TCP listener for ", ipAddr.IP, " on ", iface.Name)
			a.tcpListeners = append(a.tcpListeners, tcpListener)
		}
	}
}

// Control returns the management surface of the daemon.
func (a *AuroraLink) Control() *mgmt.AuroraControl {
	return a.control
}

// Stop shuts down AuroraLink.
func (a *AuroraLink) Stop() {
	core.LogInfo("Main", "Aurora link daemon shutting down ...")
	core.ShouldQuit = true

	a.profiler.Stop()

	if a.wsListener != nil {
		a.wsListener.Close()
	}

	for _, tcpListener := range a.tcpListeners {
		tcpListener.Close()
	}

	// Tell all links to quit
	for _, engine := range link.LinkTable.GetAll() {
		engine.Close()
	}

	if a.demux != nil {
		a.demux.Close()
	}
	if a.sequencer != nil {
		a.sequencer.Close()
	}
}
