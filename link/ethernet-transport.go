/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package link

import (
	"net"
	"runtime"
	"strconv"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/gu-peter/aurora-link/core"
	"github.com/gu-peter/aurora-link/defn"
	"github.com/gu-peter/aurora-link/link/impl"
)

// UnicastEthernetTransport is a point-to-point transport over raw Ethernet
// frames, carrying one wire record per Ethernet frame.
type UnicastEthernetTransport struct {
	pcap       impl.PcapHandle
	shouldQuit chan bool
	remoteAddr net.HardwareAddr
	localAddr  net.HardwareAddr
	transportBase
}

// MakeUnicastEthernetTransport creates a new unicast Ethernet transport.
func MakeUnicastEthernetTransport(remoteURI *defn.URI, localURI *defn.URI) (*UnicastEthernetTransport, error) {
	// Validate URIs
	if !remoteURI.IsCanonical() || remoteURI.Scheme() != "ether" || !localURI.IsCanonical() || localURI.Scheme() != "dev" {
		return nil, core.ErrNotCanonical
	}

	t := new(UnicastEthernetTransport)
	t.makeTransportBase(remoteURI, localURI, maxRecordSize)
	t.shouldQuit = make(chan bool, 1)

	var err error
	t.remoteAddr, err = net.ParseMAC(remoteURI.Path())
	if err != nil {
		core.LogError(t, "Unable to parse MAC address ", remoteURI.Path(), " - ", err)
		return nil, err
	}

	// Get interface
	iface, err := net.InterfaceByName(localURI.Path())
	if err != nil {
		core.LogError(t, "Unable to get local interface ", localURI.Path(), " - ", err)
		return nil, err
	}
	t.localAddr = iface.HardwareAddr

	// Only accept Aurora frames from the remote endpoint
	t.pcap, err = impl.OpenPcap(localURI.Path(),
		"ether proto "+strconv.Itoa(AuroraEtherType)+" and ether src "+remoteURI.Path())
	if err != nil {
		return nil, err
	}

	t.changeState(defn.Up)
	return t, nil
}

func (t *UnicastEthernetTransport) String() string {
	return "UnicastEthernetTransport, LinkID=" + strconv.FormatUint(t.linkID, 10) + ", RemoteURI=" + t.remoteURI.String() + ", LocalURI=" + t.localURI.String()
}

// GetSendQueueSize returns the current size of the send queue.
func (t *UnicastEthernetTransport) GetSendQueueSize() uint64 {
	return 0
}

func (t *UnicastEthernetTransport) sendFrame(frame []byte) {
	if len(frame) > t.MTU() {
		core.LogWarn(t, "Attempted to send frame larger than MTU - DROP")
		return
	}

	// Wrap in Ethernet frame
	ethHeader := layers.Ethernet{
		SrcMAC:       t.localAddr,
		DstMAC:       t.remoteAddr,
		EthernetType: layers.EthernetType(AuroraEtherType),
	}
	ethFrame := gopacket.NewSerializeBuffer()
	gopacket.SerializeLayers(ethFrame, gopacket.SerializeOptions{}, &ethHeader, gopacket.Payload(frame))

	// Write to PCAP handle
	core.LogTrace(t, "Sending frame of size ", len(ethFrame.Bytes()))
	err := t.pcap.WritePacketData(ethFrame.Bytes())
	if err != nil {
		core.LogWarn(t, "Unable to write frame - DROP and Link DOWN")
		t.changeState(defn.Down)
		return
	}

	t.nOutBytes.Add(uint64(len(frame)))
}

func (t *UnicastEthernetTransport) runReceive() {
	core.LogTrace(t, "Starting receive thread")

	if lockThreadsToCores {
		runtime.LockOSThread()
	}

	packetSource := gopacket.NewPacketSource(t.pcap, t.pcap.LinkType())
	for {
		select {
		case <-t.shouldQuit:
			return
		case packet, ok := <-packetSource.Packets():
			if !ok {
				t.changeState(defn.Down)
				return
			}

			eth := packet.Layer(layers.LayerTypeEthernet)
			if eth == nil {
				continue
			}
			record := eth.(*layers.Ethernet).Payload

			core.LogTrace(t, "Receive of size ", len(record))
			t.nInBytes.Add(uint64(len(record)))

			if len(record) > maxRecordSize {
				core.LogWarn(t, "Received record larger than maximum record size - DROP")
				continue
			}

			t.deliver(record)
		}
	}
}

func (t *UnicastEthernetTransport) changeState(new defn.State) {
	if t.state == new {
		return
	}

	core.LogInfo(t, "state: ", t.state, " -> ", new)
	t.state = new

	if t.state != defn.Up {
		core.LogInfo(t, "Closing PCAP handle")
		t.hasQuit <- true
		t.shouldQuit <- true
		t.pcap.Close()

		if t.engine != nil {
			t.engine.Close()
		}
		LinkTable.Remove(t.linkID)
	}
}

func (t *UnicastEthernetTransport) Close() {
	t.changeState(defn.Down)
}
