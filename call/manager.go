// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package call

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	"sync"
	"time"

	"github.com/carillon-foundation/carillon/lib/clock"
	"github.com/carillon-foundation/carillon/media"
)

// defaultSetupTimeout is the wall-clock budget for a call to reach
// Connected, measured from Place (outbound) or offer registration
// (inbound).
const defaultSetupTimeout = 60 * time.Second

// defaultReconnectTimeout is how long a Connected call may stay in
// Reconnecting before it terminates as ConnectionFailure.
const defaultReconnectTimeout = 30 * time.Second

// defaultOfferExpiry is the maximum wall-clock age of an inbound
// offer; older offers terminate as ReceivedOfferExpired without
// ringing the UI.
const defaultOfferExpiry = 60 * time.Second

// loopToken witnesses execution on the state goroutine. Internal
// mutation functions demand one; only the loop can mint it, so
// off-goroutine state access fails to compile instead of racing.
type loopToken struct{}

// command is one unit of work for the state goroutine.
type command struct {
	run func(loopToken)
}

// ManagerConfig configures a call engine. Callbacks and Factory are
// required; everything else defaults.
type ManagerConfig struct {
	// Callbacks is the application capability bundle. All slots are
	// required.
	Callbacks Callbacks

	// Factory builds the media plane for each call.
	Factory media.Factory

	// Logger receives engine log records. Defaults to slog.Default().
	Logger *slog.Logger

	// Clock drives deadlines. Defaults to clock.Real(); tests inject
	// clock.Fake.
	Clock clock.Clock

	// NewCallID generates outbound call identifiers. Defaults to a
	// crypto/rand draw over the full 64-bit range (glare resolution
	// compares IDs numerically, so uniformity matters). Tests inject
	// a sequential generator.
	NewCallID func() CallID

	// SetupTimeout, ReconnectTimeout, and OfferExpiry override the
	// default deadlines when positive.
	SetupTimeout     time.Duration
	ReconnectTimeout time.Duration
	OfferExpiry      time.Duration
}

// Manager is the call engine façade. All exported methods are safe
// for concurrent use: each hops onto the single state goroutine that
// owns every call record, runs its transition, and returns a
// synchronous outcome. See the package documentation for the
// threading contract.
type Manager struct {
	callbacks Callbacks
	factory   media.Factory
	logger    *slog.Logger
	clock     clock.Clock
	newCallID func() CallID

	setupTimeout     time.Duration
	reconnectTimeout time.Duration
	offerExpiry      time.Duration

	commands chan command
	closed   chan struct{}
	once     sync.Once
	loopDone chan struct{}
	emitter  *emitter

	// calls is the registry: one record per live CallID. Owned by
	// the state goroutine.
	calls map[CallID]*callRecord
}

// NewManager creates and starts a call engine.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if err := cfg.Callbacks.validate(); err != nil {
		return nil, err
	}
	if cfg.Factory == nil {
		return nil, &APIError{Op: "NewManager", Message: "Factory is nil"}
	}

	m := &Manager{
		callbacks:        cfg.Callbacks,
		factory:          cfg.Factory,
		logger:           cfg.Logger,
		clock:            cfg.Clock,
		newCallID:        cfg.NewCallID,
		setupTimeout:     cfg.SetupTimeout,
		reconnectTimeout: cfg.ReconnectTimeout,
		offerExpiry:      cfg.OfferExpiry,
		commands:         make(chan command, 64),
		closed:           make(chan struct{}),
		loopDone:         make(chan struct{}),
		emitter:          newEmitter(),
		calls:            make(map[CallID]*callRecord),
	}

	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.clock == nil {
		m.clock = clock.Real()
	}
	if m.newCallID == nil {
		m.newCallID = randomCallID
	}
	if m.setupTimeout <= 0 {
		m.setupTimeout = defaultSetupTimeout
	}
	if m.reconnectTimeout <= 0 {
		m.reconnectTimeout = defaultReconnectTimeout
	}
	if m.offerExpiry <= 0 {
		m.offerExpiry = defaultOfferExpiry
	}

	go m.loop()
	return m, nil
}

// randomCallID draws a CallID uniformly from the full 64-bit range.
func randomCallID() CallID {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms; if it
		// does, the process has bigger problems than call IDs.
		panic("call: reading random call id: " + err.Error())
	}
	return CallID(binary.BigEndian.Uint64(buf[:]))
}

// freshCallID draws IDs until one misses the registry and is nonzero.
func (m *Manager) freshCallID(tok loopToken) CallID {
	for {
		id := m.newCallID()
		if id == 0 {
			continue
		}
		if _, taken := m.calls[id]; !taken {
			return id
		}
	}
}

// loop is the state goroutine. It serializes every façade operation,
// timer firing, and media-plane callback against the registry.
func (m *Manager) loop() {
	defer close(m.loopDone)
	for {
		select {
		case cmd := <-m.commands:
			cmd.run(loopToken{})
		case <-m.closed:
			// Drain whatever was enqueued before close; submitters
			// racing with close get errClosed instead.
			for {
				select {
				case cmd := <-m.commands:
					cmd.run(loopToken{})
				default:
					return
				}
			}
		}
	}
}

// submit runs op on the state goroutine and returns its outcome.
func (m *Manager) submit(op string, run func(loopToken) error) error {
	result := make(chan error, 1)
	cmd := command{run: func(tok loopToken) { result <- run(tok) }}

	select {
	case m.commands <- cmd:
	case <-m.closed:
		return errClosed(op)
	}

	select {
	case err := <-result:
		return err
	case <-m.closed:
		return errClosed(op)
	}
}

// post schedules asynchronous internal work (timer firings,
// media-plane callbacks) on the state goroutine. Work arriving after
// close is discarded: cancellation is observed at the event-loop hop.
func (m *Manager) post(run func(loopToken)) {
	select {
	case m.commands <- command{run: run}:
	case <-m.closed:
	}
}

// Close concludes every call silently and shuts the engine down. The
// call blocks until queued application callbacks have drained. Do not
// call Close from within a callback. Idempotent.
func (m *Manager) Close() error {
	err := m.submit("Close", func(tok loopToken) error {
		m.resetAll(tok)
		return nil
	})
	if IsAPIError(err) {
		// Already closed.
		return nil
	}

	m.once.Do(func() { close(m.closed) })
	<-m.loopDone
	m.emitter.close()
	return nil
}

// terminateOptions selects the side effects of a termination.
type terminateOptions struct {
	// sendHangup enqueues a trailing hangup so the remote side (and
	// its other devices) learn the call ended.
	sendHangup bool
	// silent suppresses the Ended event: Drop, Reset, and the
	// conclusion of never-surfaced records.
	silent bool
}

// terminate moves a record to Terminated, emits the Ended event, and
// arranges conclusion once trailing signaling drains. Idempotent:
// repeated terminations of the same record are no-ops.
func (m *Manager) terminate(tok loopToken, c *callRecord, reason EndReason, opts terminateOptions) {
	if c.state == Terminated {
		return
	}

	m.logger.Info("call terminating",
		"call", c.id, "direction", c.direction.String(),
		"state", c.state.String(), "reason", reason.String())

	c.stopTimers()
	c.state = Terminated
	c.endReason = reason

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			m.logger.Warn("closing connection failed", "call", c.id, "error", err)
		}
		c.conn = nil
	}
	if c.context != nil {
		c.context.close(m.logger)
		c.context = nil
	}

	c.concluding = true
	c.pendingIceOut = nil
	c.iceFlushReady = false

	if opts.sendHangup {
		broadcast, dest := c.hangupTarget()
		c.queue = append(c.queue, directive{kind: dirHangup, broadcast: broadcast, dest: dest})
	}

	// Release the trailing directive before the terminal event so the
	// emitted order matches the transition order; conclusion itself
	// must wait until after the event.
	if len(c.queue) > 0 || c.inFlight {
		m.pump(tok, c)
	}

	if !opts.silent {
		if event, ok := reason.event(); ok {
			m.emitEvent(tok, c, event)
		}
	}

	m.pump(tok, c)
}

// conclude retires a drained terminated record: the registry entry
// is removed and the application is told to release the handle.
func (m *Manager) conclude(tok loopToken, c *callRecord) {
	if c.concluded {
		return
	}
	c.concluded = true
	delete(m.calls, c.id)

	remote := c.remote
	m.emitter.post(func() { m.callbacks.OnCallConcluded(remote) })

	m.logger.Info("call concluded", "call", c.id, "reason", c.endReason.String())
}

// resetAll silently tears down every record: timers stopped, media
// closed, queues discarded, handles released. No Ended events are
// emitted — this is the catastrophic-error escape hatch.
func (m *Manager) resetAll(tok loopToken) {
	for _, c := range m.calls {
		c.stopTimers()
		if c.conn != nil {
			c.conn.Close()
			c.conn = nil
		}
		if c.context != nil {
			c.context.close(m.logger)
			c.context = nil
		}
		c.state = Terminated
		if c.endReason == ReasonNone {
			c.endReason = ReasonDropped
		}
		c.queue = nil
		c.pendingIceOut = nil
		c.inFlight = false
		c.concluding = true
		m.conclude(tok, c)
	}
}

// emitEvent posts one lifecycle event for the call's remote party.
// Terminated records past their terminal event never reach here; the
// terminal event itself is posted by terminate.
func (m *Manager) emitEvent(_ loopToken, c *callRecord, event Event) {
	remote := c.remote
	m.emitter.post(func() { m.callbacks.OnEvent(remote, event) })
}

// internalFailure reports an invariant violation scoped to one call:
// the call terminates, the process does not.
func (m *Manager) internalFailure(tok loopToken, c *callRecord, detail string) {
	m.logger.Error("internal failure", "call", c.id, "detail", detail)
	m.terminate(tok, c, ReasonInternalFailure, terminateOptions{sendHangup: true})
}

// startSetupTimer arms the call-setup deadline for a record.
func (m *Manager) startSetupTimer(_ loopToken, c *callRecord) {
	id := c.id
	c.setupTimer = m.clock.AfterFunc(m.setupTimeout, func() {
		m.post(func(tok loopToken) {
			record := m.lookup(tok, id)
			if record == nil || record.state == Terminated || record.state == Connected || record.state == Reconnecting {
				return
			}
			m.terminate(tok, record, ReasonTimeout, terminateOptions{sendHangup: true})
		})
	})
}
