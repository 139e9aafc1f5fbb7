// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package udp receives NetFlow v5 datagrams on an UDP socket and hands
// each decoded record to a consumer.
package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/tomb.v2"

	"netflowd/common/daemon"
	"netflowd/common/reporter"
	"netflowd/inlet/flow/consumer"
	"netflowd/inlet/flow/decoder/netflowv5"
)

var (
	// ErrInvalidPort is returned by Start when the configured port is not usable.
	ErrInvalidPort = errors.New("invalid UDP port")
	// ErrAlreadyStarted is returned by Start when the listener is running.
	ErrAlreadyStarted = errors.New("UDP listener already started")
	// ErrStopped is returned by Start when the listener has been stopped.
	ErrStopped = errors.New("UDP listener stopped")
)

type state int

const (
	stateCreated state = iota
	stateStarted
	stateStopped
)

func (s state) String() string {
	switch s {
	case stateCreated:
		return "created"
	case stateStarted:
		return "started"
	case stateStopped:
		return "stopped"
	}
	return "unknown"
}

// Listener receives NetFlow v5 datagrams on an UDP socket.
type Listener struct {
	r      *reporter.Reporter
	d      *Dependencies
	t      tomb.Tomb
	config Configuration
	id     uuid.UUID

	errLogger reporter.Logger

	stateLock sync.Mutex
	state     state
	address   net.Addr

	metrics struct {
		bytes          *reporter.CounterVec
		packets        *reporter.CounterVec
		packetSizeSum  *reporter.SummaryVec
		errors         *reporter.CounterVec
		inDrops        *reporter.CounterVec
		decodedFlows   *reporter.CounterVec
		decodeErrors   *reporter.CounterVec
		consumerPanics *reporter.CounterVec
	}
}

// Dependencies define the dependencies of the UDP listener.
type Dependencies struct {
	Daemon   daemon.Component
	Consumer consumer.Consumer
}

// New creates a new UDP listener. Nothing happens until Start() is
// called.
func New(r *reporter.Reporter, configuration Configuration, dependencies Dependencies) (*Listener, error) {
	if dependencies.Daemon == nil {
		return nil, errors.New("UDP listener needs a daemon")
	}
	if dependencies.Consumer == nil {
		return nil, errors.New("UDP listener needs a consumer")
	}
	l := &Listener{
		r:         r,
		d:         &dependencies,
		config:    configuration,
		id:        uuid.New(),
		errLogger: r.Sample(reporter.BurstSampler(time.Minute, 10)),
	}

	l.metrics.bytes = r.CounterVec(
		reporter.CounterOpts{
			Name: "bytes_total",
			Help: "Bytes received by the application.",
		},
		[]string{"listener", "exporter"},
	)
	l.metrics.packets = r.CounterVec(
		reporter.CounterOpts{
			Name: "packets_total",
			Help: "Packets received by the application.",
		},
		[]string{"listener", "exporter"},
	)
	l.metrics.packetSizeSum = r.SummaryVec(
		reporter.SummaryOpts{
			Name:       "size_bytes",
			Help:       "Summary of packet size.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"listener", "exporter"},
	)
	l.metrics.errors = r.CounterVec(
		reporter.CounterOpts{
			Name: "errors_total",
			Help: "Errors while receiving packets by the application.",
		},
		[]string{"listener", "error"},
	)
	l.metrics.inDrops = r.CounterVec(
		reporter.CounterOpts{
			Name: "in_dropped_packets_total",
			Help: "Dropped packets due to listen queue full.",
		},
		[]string{"listener"},
	)
	l.metrics.decodedFlows = r.CounterVec(
		reporter.CounterOpts{
			Name: "decoded_flows_total",
			Help: "Flow records decoded from received packets.",
		},
		[]string{"listener", "exporter"},
	)
	l.metrics.decodeErrors = r.CounterVec(
		reporter.CounterOpts{
			Name: "decode_errors_total",
			Help: "Packets discarded because they could not be decoded.",
		},
		[]string{"listener", "exporter", "error"},
	)
	l.metrics.consumerPanics = r.CounterVec(
		reporter.CounterOpts{
			Name: "consumer_panics_total",
			Help: "Records whose consumer panicked.",
		},
		[]string{"listener"},
	)

	r.RegisterHealthcheck(l.healthcheckName(), l.healthcheck)
	l.d.Daemon.Track(&l.t, "inlet/flow/input/udp")
	return l, nil
}

// ID returns the identity of the listener, as given to the consumer.
func (l *Listener) ID() uuid.UUID {
	return l.id
}

// healthcheckName is the name of the healthcheck of the listener.
// Each listener registers its own.
func (l *Listener) healthcheckName() string {
	return "udp-listener-" + l.id.String()
}

// LocalAddr returns the address the listener is bound to, or nil if
// it was never started.
func (l *Listener) LocalAddr() net.Addr {
	l.stateLock.Lock()
	defer l.stateLock.Unlock()
	return l.address
}

// Start binds the UDP socket and spawns the receive loop. It does not
// wait for any datagram. A listener can only be started once.
func (l *Listener) Start() error {
	l.stateLock.Lock()
	defer l.stateLock.Unlock()
	switch l.state {
	case stateStarted:
		return ErrAlreadyStarted
	case stateStopped:
		return ErrStopped
	}

	if l.config.UDPPort <= 0 || l.config.UDPPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, l.config.UDPPort)
	}
	network, addr, err := l.config.bindAddress()
	if err != nil {
		return err
	}
	listen := net.JoinHostPort(addr.String(), strconv.Itoa(l.config.UDPPort))
	l.r.Info().Str("listen", listen).Msg("starting UDP listener")

	pconn, err := listenConfig(l.r, udpSocketOptions).ListenPacket(context.Background(), network, listen)
	if err != nil {
		return fmt.Errorf("unable to listen to %s: %w", listen, err)
	}
	conn := pconn.(*net.UDPConn)
	if l.config.ReceiveBuffer > 0 {
		if err := conn.SetReadBuffer(int(l.config.ReceiveBuffer)); err != nil {
			// On Linux, this does not trigger an error when we are above net.core.rmem_max.
			l.r.Warn().Err(err).Str("listen", listen).
				Msgf("unable to set requested buffer size (%d bytes)", l.config.ReceiveBuffer)
		}
	}
	l.address = conn.LocalAddr()
	l.state = stateStarted
	l.r.Info().Str("listen", l.address.String()).Stringer("id", l.id).Msg("UDP listener started")

	l.t.Go(func() error {
		return l.receiveLoop(conn, l.address.String())
	})
	// Unblock the receive loop when dying.
	l.t.Go(func() error {
		<-l.t.Dying()
		conn.Close()
		return nil
	})
	return nil
}

// receiveLoop receives datagrams until the listener is dying.
func (l *Listener) receiveLoop(conn *net.UDPConn, listen string) error {
	payload := make([]byte, 9000)
	oob := make([]byte, oobLength)
	dying := l.t.Dying()
	var drops uint32
	for {
		select {
		case <-dying:
			return nil
		default:
		}
		n, oobn, _, source, err := conn.ReadMsgUDPAddrPort(payload, oob)
		select {
		case <-dying:
			return nil
		default:
		}
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			l.errLogger.Err(err).Str("listen", listen).Msg("unable to receive UDP packet")
			l.metrics.errors.WithLabelValues(listen, "receive").Inc()
			continue
		}

		if total, err := parseSocketControlMessage(oob[:oobn]); err != nil {
			l.errLogger.Err(err).Str("listen", listen).Msg("unable to decode UDP control message")
			l.metrics.errors.WithLabelValues(listen, "control message").Inc()
		} else if total > drops {
			l.metrics.inDrops.WithLabelValues(listen).Add(float64(total - drops))
			drops = total
		}

		l.handleDatagram(listen, source.Addr().Unmap(), payload[:n])
	}
}

// handleDatagram decodes a datagram and hands the records to the
// consumer. Nothing happening here can stop the receive loop.
func (l *Listener) handleDatagram(listen string, exporter netip.Addr, payload []byte) {
	exporterStr := exporter.String()
	defer func() {
		if r := recover(); r != nil {
			l.metrics.errors.WithLabelValues(listen, "panic").Inc()
			l.errLogger.Error().
				Str("listen", listen).
				Str("exporter", exporterStr).
				Interface("panic", r).
				Msg("unexpected error while handling UDP packet")
		}
	}()

	l.metrics.bytes.WithLabelValues(listen, exporterStr).Add(float64(len(payload)))
	l.metrics.packets.WithLabelValues(listen, exporterStr).Inc()
	l.metrics.packetSizeSum.WithLabelValues(listen, exporterStr).Observe(float64(len(payload)))

	version, err := netflowv5.PeekVersion(payload)
	if err == nil && version != netflowv5.Version {
		l.metrics.decodeErrors.WithLabelValues(listen, exporterStr, "unsupported version").Inc()
		l.errLogger.Warn().
			Str("listen", listen).
			Str("exporter", exporterStr).
			Uint16("version", version).
			Msg("unsupported version, packet discarded")
		return
	}
	var records []*netflowv5.Record
	if err == nil {
		records, err = netflowv5.Decode(payload, exporter)
	}
	if err != nil {
		l.metrics.decodeErrors.WithLabelValues(listen, exporterStr, decodeErrorLabel(err)).Inc()
		l.errLogger.Err(err).
			Str("listen", listen).
			Str("exporter", exporterStr).
			Int("size", len(payload)).
			Msg("unable to decode NetFlow v5 packet")
		return
	}

	l.metrics.decodedFlows.WithLabelValues(listen, exporterStr).Add(float64(len(records)))
	for _, record := range records {
		l.consume(listen, record)
	}
}

// consume hands one record to the consumer, surviving a panic.
func (l *Listener) consume(listen string, record *netflowv5.Record) {
	defer func() {
		if r := recover(); r != nil {
			l.metrics.consumerPanics.WithLabelValues(listen).Inc()
			l.errLogger.Error().
				Str("listen", listen).
				Stringer("exporter", record.ClientAddress).
				Interface("panic", r).
				Msg("consumer panicked")
		}
	}()
	l.d.Consumer.Consume(l.id, record)
}

func decodeErrorLabel(err error) string {
	switch {
	case errors.Is(err, netflowv5.ErrTooShortForVersion):
		return "too short"
	case errors.Is(err, netflowv5.ErrHeaderTooShort):
		return "header too short"
	case errors.Is(err, netflowv5.ErrTooManyRecords):
		return "too many records"
	case errors.Is(err, netflowv5.ErrUnsupportedVersion):
		return "unsupported version"
	}
	return "other"
}

// Stop stops the listener and waits for the receive loop to exit.
func (l *Listener) Stop() error {
	return l.StopContext(context.Background())
}

// StopContext stops the listener and waits for the receive loop to
// exit, or for the context to be done. Stopping a listener that is
// not running does nothing.
func (l *Listener) StopContext(ctx context.Context) error {
	l.stateLock.Lock()
	if l.state != stateStarted {
		l.stateLock.Unlock()
		return nil
	}
	l.state = stateStopped
	listen := l.address.String()
	l.stateLock.Unlock()

	l.r.Info().Str("listen", listen).Msg("stopping UDP listener")
	l.t.Kill(nil)
	select {
	case <-l.t.Dead():
		l.r.Info().Str("listen", listen).Msg("UDP listener stopped")
		return l.t.Err()
	case <-ctx.Done():
		return fmt.Errorf("UDP listener on %s not stopped: %w", listen, ctx.Err())
	}
}

func (l *Listener) healthcheck(context.Context) reporter.HealthcheckResult {
	l.stateLock.Lock()
	defer l.stateLock.Unlock()
	if l.state == stateStarted {
		return reporter.HealthcheckResult{
			Status: reporter.HealthcheckOK,
			Reason: fmt.Sprintf("listening on %s", l.address),
		}
	}
	return reporter.HealthcheckResult{
		Status: reporter.HealthcheckError,
		Reason: fmt.Sprintf("listener %s", l.state),
	}
}
