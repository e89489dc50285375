/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gu-peter/aurora-link/core"
	"github.com/gu-peter/aurora-link/executor"
)

// Version of aurora-link.
var Version string

// BuildTime contains the timestamp of when this version was built.
var BuildTime string

func main() {
	// Provide metadata to other threads.
	core.BuildTime = BuildTime

	// Parse command line options
	var shouldPrintVersion bool
	flag.BoolVar(&shouldPrintVersion, "version", false, "Print version and exit")
	var configFileName string
	flag.StringVar(&configFileName, "config", "/usr/local/etc/aurora/auroralink.toml", "Configuration file location")
	var disableEthernet bool
	flag.BoolVar(&disableEthernet, "disable-ethernet", false, "Disable raw Ethernet transports")
	var logFile string
	flag.StringVar(&logFile, "log-file", "", "Log to the specified file instead of stderr")
	var cpuProfile string
	flag.StringVar(&cpuProfile, "cpu-profile", "", "Enable CPU profiling (output to specified file)")
	var memProfile string
	flag.StringVar(&memProfile, "mem-profile", "", "Enable memory profiling (output to specified file)")
	var blockProfile string
	flag.StringVar(&blockProfile, "block-profile", "", "Enable block profiling (output to specified file)")
	var memoryBallastSize int
	flag.IntVar(&memoryBallastSize, "memory-ballast", 0, "Enable memory ballast of specified size (in GB) to avoid frequent garbage collection")
	flag.Parse()

	if shouldPrintVersion {
		fmt.Println("aurora-link: Aurora link-layer flow control and burst transmission daemon")
		fmt.Println("Version " + Version + " (Built " + BuildTime + ")")
		fmt.Println("Copyright (C) 2025 Peter Gu")
		fmt.Println("Released under the terms of the MIT License")
		return
	}

	if runtime.GOOS == "windows" && configFileName[0] == '/' {
		configFileName = os.ExpandEnv("${APPDATA}\\aurora\\auroralink.toml")
	}

	config := executor.AuroraLinkConfig{
		Version:           Version,
		ConfigFileName:    configFileName,
		DisableEthernet:   disableEthernet,
		LogFile:           logFile,
		CpuProfile:        cpuProfile,
		MemProfile:        memProfile,
		BlockProfile:      blockProfile,
		MemoryBallastSize: memoryBallastSize,
	}

	auroralink := executor.NewAuroraLink(&config)
	auroralink.Start()

	// Set up signal handler channel and wait for interrupt
	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM)
	receivedSig := <-sigChannel
	core.LogInfo("Main", "Received signal ", receivedSig, " - exiting")

	auroralink.Stop()
}
