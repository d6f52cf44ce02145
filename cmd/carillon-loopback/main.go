// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

// carillon-loopback wires two call engines together inside one
// process: an in-memory signaling transport carries the envelopes, a
// pion-backed media factory carries the media, and a tiny sample pump
// stands in for microphone capture. The caller places a call, the
// callee auto-proceeds and auto-accepts, both sides reach Connected,
// and the caller hangs up.
//
// Useful for demonstrating the engine's full directive/event flow
// without touching a network, and for smoke-testing the pion mapping
// on a development machine.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/spf13/pflag"

	"github.com/carillon-foundation/carillon/call"
	"github.com/carillon-foundation/carillon/lib/config"
	"github.com/carillon-foundation/carillon/lib/version"
	"github.com/carillon-foundation/carillon/media"
	"github.com/carillon-foundation/carillon/signaling"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		duration   time.Duration
		verbose    bool
	)

	flagSet := pflag.NewFlagSet("carillon-loopback", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "engine config file (.yaml or .jsonc); empty means host candidates only")
	flagSet.DurationVar(&duration, "duration", 10*time.Second, "how long to keep the call up before hanging up")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "debug logging, including pion internals")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("carillon-loopback")
		return nil
	}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	engineConfig := &config.Config{}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		engineConfig = loaded
	}

	transport := signaling.NewMemoryTransport()
	defer transport.Close()

	caller, err := newPeer("caller", 1, transport.EndpointA(), engineConfig, logger)
	if err != nil {
		return fmt.Errorf("building caller: %w", err)
	}
	defer caller.close()

	callee, err := newPeer("callee", 2, transport.EndpointB(), engineConfig, logger)
	if err != nil {
		return fmt.Errorf("building callee: %w", err)
	}
	defer callee.close()

	id, err := caller.manager.Place("callee")
	if err != nil {
		return fmt.Errorf("placing call: %w", err)
	}
	logger.Info("call placed", "call", id)

	select {
	case <-caller.connected:
		logger.Info("caller connected")
	case <-time.After(30 * time.Second):
		return fmt.Errorf("caller did not connect within 30s")
	}
	select {
	case <-callee.connected:
		logger.Info("callee connected")
	case <-time.After(30 * time.Second):
		return fmt.Errorf("callee did not connect within 30s")
	}

	logger.Info("call up", "holding", duration.String())
	time.Sleep(duration)

	if err := caller.manager.Hangup(); err != nil {
		return fmt.Errorf("hanging up: %w", err)
	}

	select {
	case <-callee.ended:
		logger.Info("callee saw hangup, loopback complete")
	case <-time.After(10 * time.Second):
		return fmt.Errorf("callee did not observe the hangup within 10s")
	}
	return nil
}

// peer is one side of the loopback: an engine, its signaling
// endpoint, and the glue that turns directives into envelopes and
// envelopes into Receive* operations.
type peer struct {
	name     string
	deviceID call.DeviceID
	logger   *slog.Logger

	manager  *call.Manager
	endpoint *signaling.MemoryEndpoint
	factory  *pumpedFactory

	mu        sync.Mutex
	inboundID call.CallID

	connected chan struct{}
	connOnce  sync.Once
	ended     chan struct{}
	endOnce   sync.Once
}

func newPeer(name string, deviceID call.DeviceID, endpoint *signaling.MemoryEndpoint, cfg *config.Config, logger *slog.Logger) (*peer, error) {
	p := &peer{
		name:      name,
		deviceID:  deviceID,
		logger:    logger.With("peer", name),
		endpoint:  endpoint,
		connected: make(chan struct{}),
		ended:     make(chan struct{}),
	}

	factory, err := newPumpedFactory(p.logger)
	if err != nil {
		return nil, err
	}
	p.factory = factory

	callConfig := call.CallConfig{
		ICEServers: cfg.ICEServers,
		HideIP:     cfg.HideIP,
		DeviceList: []call.DeviceID{peerDevice(deviceID)},
	}

	manager, err := call.NewManager(call.ManagerConfig{
		Callbacks:        p.callbacks(callConfig),
		Factory:          factory,
		Logger:           p.logger,
		SetupTimeout:     cfg.SetupTimeout(),
		ReconnectTimeout: cfg.ReconnectTimeout(),
		OfferExpiry:      cfg.OfferExpiry(),
	})
	if err != nil {
		return nil, err
	}
	p.manager = manager

	endpoint.OnReceive(p.receive)
	return p, nil
}

// peerDevice maps a peer's own device ID to its counterpart's.
func peerDevice(own call.DeviceID) call.DeviceID {
	if own == 1 {
		return 2
	}
	return 1
}

func (p *peer) close() {
	p.manager.Close()
	p.factory.stop()
}

// ack reports the transport outcome of one directive back to the
// engine.
func (p *peer) ack(id call.CallID, err error) {
	if err != nil {
		p.logger.Warn("send failed", "call", id, "error", err)
		if ackErr := p.manager.MessageSendFailure(id); ackErr != nil {
			p.logger.Warn("reporting send failure failed", "call", id, "error", ackErr)
		}
		return
	}
	if ackErr := p.manager.MessageSent(id); ackErr != nil {
		p.logger.Warn("acknowledging send failed", "call", id, "error", ackErr)
	}
}

// callbacks builds the engine capability bundle: directives become
// envelopes on the wire, events drive the demo's auto-proceed and
// auto-accept behavior.
func (p *peer) callbacks(callConfig call.CallConfig) call.Callbacks {
	return call.Callbacks{
		ShouldStartCall: func(id call.CallID, remote call.RemoteHandle, outbound bool) {
			p.logger.Info("start call", "call", id, "outbound", outbound)
			if !outbound {
				p.mu.Lock()
				p.inboundID = id
				p.mu.Unlock()
			}
			if err := p.manager.Proceed(id, callConfig); err != nil {
				p.logger.Error("proceed failed", "call", id, "error", err)
			}
		},

		OnEvent: func(remote call.RemoteHandle, event call.Event) {
			p.logger.Info("event", "remote", remote, "event", event.String())
			switch event {
			case call.EventRingingLocal:
				p.mu.Lock()
				id := p.inboundID
				p.mu.Unlock()
				if err := p.manager.Accept(id); err != nil {
					p.logger.Error("accept failed", "call", id, "error", err)
				}
			case call.EventConnectedLocal:
				p.connOnce.Do(func() { close(p.connected) })
			case call.EventEndedLocalHangup, call.EventEndedRemoteHangup:
				p.endOnce.Do(func() { close(p.ended) })
			}
		},

		ShouldSendOffer: func(id call.CallID, remote call.RemoteHandle, broadcast bool, dest call.DeviceID, sdp string) {
			devices := make([]uint32, 0, len(callConfig.DeviceList))
			for _, device := range callConfig.DeviceList {
				devices = append(devices, uint32(device))
			}
			p.ack(id, p.endpoint.Send(signaling.NewOffer(signaling.Offer{
				CallID:    uint64(id),
				SDP:       sdp,
				Devices:   devices,
				Timestamp: time.Now().UnixMilli(),
			})))
		},

		ShouldSendAnswer: func(id call.CallID, remote call.RemoteHandle, broadcast bool, dest call.DeviceID, sdp string) {
			p.ack(id, p.endpoint.Send(signaling.NewAnswer(signaling.Answer{
				CallID:    uint64(id),
				SrcDevice: uint32(p.deviceID),
				SDP:       sdp,
			})))
		},

		ShouldSendIceCandidates: func(id call.CallID, remote call.RemoteHandle, broadcast bool, dest call.DeviceID, candidates []call.IceCandidate) {
			wire := make([]signaling.IceCandidate, 0, len(candidates))
			for _, candidate := range candidates {
				wire = append(wire, signaling.CandidateFromCall(candidate))
			}
			p.ack(id, p.endpoint.Send(signaling.NewIceUpdate(signaling.IceUpdate{
				CallID:     uint64(id),
				SrcDevice:  uint32(p.deviceID),
				Candidates: wire,
			})))
		},

		ShouldSendHangup: func(id call.CallID, remote call.RemoteHandle, broadcast bool, dest call.DeviceID) {
			p.ack(id, p.endpoint.Send(signaling.NewHangup(signaling.Hangup{CallID: uint64(id)})))
		},

		ShouldSendBusy: func(id call.CallID, remote call.RemoteHandle, broadcast bool, dest call.DeviceID) {
			p.ack(id, p.endpoint.Send(signaling.NewBusy(signaling.Busy{CallID: uint64(id)})))
		},

		ShouldCompareCalls: func(remote1, remote2 call.RemoteHandle) bool {
			return remote1 == remote2
		},

		OnUpdateLocalVideoSession: func(remote call.RemoteHandle, session *media.VideoSession) {
			p.logger.Info("local video session", "active", session != nil)
		},

		OnAddRemoteVideoTrack: func(remote call.RemoteHandle, track media.VideoTrack) {
			p.logger.Info("remote video track", "id", track.ID())
		},

		OnCallConcluded: func(remote call.RemoteHandle) {
			p.logger.Info("call concluded", "remote", remote)
		},
	}
}

// receive feeds inbound envelopes into the engine. The remote handle
// is just the counterpart's name; this process only ever has two
// parties.
func (p *peer) receive(envelope signaling.Envelope) {
	remote := counterpart(p.name)

	var err error
	switch envelope.Type {
	case signaling.TypeOffer:
		offer := envelope.Offer
		err = p.manager.ReceiveOffer(call.CallID(offer.CallID), remote, peerDevice(p.deviceID), offer.SDP, offer.Time())
	case signaling.TypeAnswer:
		answer := envelope.Answer
		err = p.manager.ReceiveAnswer(call.CallID(answer.CallID), call.DeviceID(answer.SrcDevice), answer.SDP)
	case signaling.TypeIceUpdate:
		update := envelope.IceUpdate
		candidates := make([]call.IceCandidate, 0, len(update.Candidates))
		for _, candidate := range update.Candidates {
			candidates = append(candidates, candidate.ToCall())
		}
		err = p.manager.ReceiveIceCandidates(call.CallID(update.CallID), call.DeviceID(update.SrcDevice), candidates)
	case signaling.TypeHangup:
		err = p.manager.ReceiveHangup(call.CallID(envelope.Hangup.CallID), peerDevice(p.deviceID))
	case signaling.TypeBusy:
		err = p.manager.ReceiveBusy(call.CallID(envelope.Busy.CallID), peerDevice(p.deviceID))
	}
	if err != nil {
		p.logger.Warn("inbound signaling rejected", "type", string(envelope.Type), "error", err)
	}
}

func counterpart(name string) string {
	if name == "caller" {
		return "callee"
	}
	return "caller"
}
