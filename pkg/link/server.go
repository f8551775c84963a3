package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/voicetimer/voicetimer-go/pkg/command"
	"github.com/voicetimer/voicetimer-go/pkg/device"
	"github.com/voicetimer/voicetimer-go/pkg/log"
	"github.com/voicetimer/voicetimer-go/pkg/timer"
	"github.com/voicetimer/voicetimer-go/pkg/wire"
)

const (
	// DefaultAddress is the default listen address.
	DefaultAddress = ":7420"

	// DefaultQueueSize is the default number of outbound packets buffered
	// per session.
	DefaultQueueSize = 16
)

// ErrServerRunning is returned by Start on a running server.
var ErrServerRunning = errors.New("link: server already running")

// ServerConfig configures a link server.
type ServerConfig struct {
	// Address to listen on (default ":7420").
	Address string

	// MaxPacketSize is the largest accepted packet (default 512).
	MaxPacketSize int

	// QueueSize is the outbound buffer per session (default 16). When it
	// is full, notifications to that session are dropped.
	QueueSize int

	// Logger for protocol logging (optional).
	Logger log.Logger

	// OnConnect is called when a session starts.
	OnConnect func(s *Session)

	// OnDisconnect is called when a session ends.
	OnDisconnect func(s *Session)

	// OnError is called for session errors that do not end the session.
	OnError func(s *Session, err error)
}

// Server exposes a Device to link clients.
type Server struct {
	dev      *device.Device
	config   ServerConfig
	listener net.Listener

	sessions   map[*Session]struct{}
	sessionsMu sync.RWMutex

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a server for dev and subscribes to its events.
func NewServer(dev *device.Device, config ServerConfig) *Server {
	if config.Address == "" {
		config.Address = DefaultAddress
	}
	config.MaxPacketSize = packetLimit(config.MaxPacketSize)
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}

	s := &Server{
		dev:      dev,
		config:   config,
		sessions: make(map[*Session]struct{}),
	}
	dev.OnEvent(s.broadcast)
	return s
}

// Start listens on the configured address and accepts sessions until
// Stop is called or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return ErrServerRunning
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop closes the listener and all sessions and waits for them to end.
func (s *Server) Stop() error {
	if !s.running.Swap(false) {
		return nil
	}
	s.cancel()
	s.listener.Close()

	s.sessionsMu.RLock()
	for sess := range s.sessions {
		sess.Close()
	}
	s.sessionsMu.RUnlock()

	s.wg.Wait()
	return nil
}

// Addr returns the listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// SessionCount returns the number of active sessions.
func (s *Server) SessionCount() int {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	return len(s.sessions)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			if s.config.OnError != nil {
				s.config.OnError(nil, fmt.Errorf("accept error: %w", err))
			}
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.Serve(s.ctx, conn, conn.RemoteAddr().String())
		}()
	}
}

// Serve runs one session over rw until the stream ends or ctx is
// cancelled. It is used directly for streams that do not come from a
// listener, such as a serial port.
func (s *Server) Serve(ctx context.Context, rw io.ReadWriteCloser, remoteAddr string) {
	sess := s.newSession(rw, remoteAddr)

	s.sessionsMu.Lock()
	s.sessions[sess] = struct{}{}
	s.sessionsMu.Unlock()

	if s.config.OnConnect != nil {
		s.config.OnConnect(sess)
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		sess.writeLoop()
	}()
	go func() {
		select {
		case <-ctx.Done():
			sess.Close()
		case <-sess.closeCh:
		}
	}()

	sess.readLoop()

	s.sessionsMu.Lock()
	delete(s.sessions, sess)
	s.sessionsMu.Unlock()

	sess.Close()
	<-writerDone

	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(sess)
	}
}

func (s *Server) newSession(rw io.ReadWriteCloser, remoteAddr string) *Session {
	id := uuid.New().String()

	reader := NewPacketReader(rw, s.config.MaxPacketSize)
	writer := NewPacketWriter(rw, s.config.MaxPacketSize)
	if s.config.Logger != nil {
		reader.SetLogger(s.config.Logger, id)
		writer.SetLogger(s.config.Logger, id)
	}

	return &Session{
		id:         id,
		remoteAddr: remoteAddr,
		conn:       rw,
		reader:     reader,
		writer:     writer,
		server:     s,
		out:        make(chan []byte, s.config.QueueSize),
		closeCh:    make(chan struct{}),
	}
}

// broadcast turns device events into notifications. Changed events are
// not echoed to the session that caused them; that session gets a
// Response instead.
func (s *Server) broadcast(ev device.Event) {
	if !ev.Changed() {
		return
	}

	var (
		n       wire.Notification
		exclude string
	)
	switch ev.Kind {
	case device.EventExpired:
		n = wire.Notification{
			Event:   wire.NotifyExpired,
			Timers:  TimerInfos(ev.Timers),
			Message: timerNames(ev.Timers) + " done",
		}
	case device.EventReaped:
		n = wire.Notification{
			Event:   wire.NotifyReaped,
			Timers:  TimerInfos(ev.Timers),
			Message: timerNames(ev.Timers) + " stopped ringing",
		}
	default:
		n = wire.Notification{
			Event:   wire.NotifyChanged,
			Timers:  TimerInfos(ev.Result.Timers),
			Message: ev.Result.Message,
		}
		if ev.Input.Source == command.SourceLink {
			exclude = ev.Input.SessionID
		}
	}

	data, err := wire.EncodeNotification(&n)
	if err != nil {
		return
	}

	s.sessionsMu.RLock()
	targets := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		if sess.id != exclude {
			targets = append(targets, sess)
		}
	}
	s.sessionsMu.RUnlock()

	for _, sess := range targets {
		sess.notify(data, n.Event)
	}
}

func timerNames(timers []timer.Timer) string {
	names := make([]string, len(timers))
	for i, tm := range timers {
		names[i] = tm.Name.Display()
	}
	return strings.Join(names, ", ")
}

// Session is one connected link client.
type Session struct {
	id         string
	remoteAddr string
	conn       io.ReadWriteCloser
	reader     *PacketReader
	writer     *PacketWriter
	server     *Server

	out       chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once
	dropped   atomic.Uint64
}

// ID returns the session identifier.
func (c *Session) ID() string {
	return c.id
}

// RemoteAddr returns the peer address.
func (c *Session) RemoteAddr() string {
	return c.remoteAddr
}

// Dropped returns the number of notifications dropped because the
// outbound queue was full.
func (c *Session) Dropped() uint64 {
	return c.dropped.Load()
}

// Close ends the session.
func (c *Session) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

func (c *Session) origin() device.Origin {
	return device.Origin{Source: command.SourceLink, SessionID: c.id}
}

func (c *Session) readLoop() {
	for {
		data, err := c.reader.ReadPacket()
		if err != nil {
			if errors.Is(err, ErrPacketTooLarge) || errors.Is(err, ErrPacketEmpty) {
				c.reportError(log.LayerLink, err, "read packet")
				continue
			}
			select {
			case <-c.closeCh:
			default:
				if !errors.Is(err, io.EOF) {
					c.reportError(log.LayerLink, err, "read packet")
				}
			}
			return
		}
		c.handlePacket(data)
	}
}

func (c *Session) writeLoop() {
	for {
		select {
		case <-c.closeCh:
			return
		case data := <-c.out:
			if err := c.writer.WritePacket(data); err != nil {
				c.Close()
				return
			}
		}
	}
}

func (c *Session) handlePacket(data []byte) {
	start := time.Now()

	req, err := wire.DecodeRequest(data)
	if req == nil || req.MessageID == wire.NotificationMessageID {
		// No messageId to answer.
		if err == nil {
			err = wire.ErrReservedMessageID
		}
		c.reportError(log.LayerWire, err, "decode request")
		return
	}
	c.logMessage(log.DirectionIn, &log.MessageEvent{
		Type:      log.MessageTypeRequest,
		MessageID: req.MessageID,
		Operation: &req.Operation,
	})

	var resp *wire.Response
	if err != nil {
		c.reportError(log.LayerWire, err, "decode request")
		resp = badRequest(req.MessageID, err)
	} else {
		resp = c.execute(req)
	}
	c.respond(resp, start)
}

func (c *Session) execute(req *wire.Request) *wire.Response {
	dev := c.server.dev

	switch req.Operation {
	case wire.OpText:
		return responseFromResult(req.MessageID, dev.HandleText(c.origin(), req.Text))

	case wire.OpRecord:
		cmd, err := wire.DecodeRecord(req.Record)
		if err != nil {
			return badRequest(req.MessageID, err)
		}
		return responseFromResult(req.MessageID, dev.HandleCommand(c.origin(), cmd))

	default:
		timers := dev.Timers()
		return &wire.Response{
			MessageID: req.MessageID,
			Status:    wire.StatusOK,
			Timers:    TimerInfos(timers),
			Message:   fmt.Sprintf("%d of %d timers in use", len(timers), dev.Capacity()),
		}
	}
}

func badRequest(id uint32, err error) *wire.Response {
	return &wire.Response{
		MessageID: id,
		Status:    wire.StatusBadRequest,
		Message:   err.Error(),
	}
}

// respond queues a response. Unlike notifications it waits for queue
// space.
func (c *Session) respond(resp *wire.Response, start time.Time) {
	data, err := wire.EncodeResponse(resp)
	if err != nil {
		c.reportError(log.LayerWire, err, "encode response")
		return
	}

	select {
	case c.out <- data:
	case <-c.closeCh:
		return
	}

	elapsed := time.Since(start)
	c.logMessage(log.DirectionOut, &log.MessageEvent{
		Type:           log.MessageTypeResponse,
		MessageID:      resp.MessageID,
		Status:         &resp.Status,
		ProcessingTime: &elapsed,
	})
}

func (c *Session) notify(data []byte, event wire.NotifyEvent) {
	select {
	case c.out <- data:
	case <-c.closeCh:
		return
	default:
		c.dropped.Add(1)
		c.reportError(log.LayerLink, errors.New("outbound queue full"), "notify "+event.String())
		return
	}

	c.logMessage(log.DirectionOut, &log.MessageEvent{
		Type:      log.MessageTypeNotification,
		MessageID: wire.NotificationMessageID,
		Event:     &event,
	})
}

func (c *Session) logMessage(dir log.Direction, msg *log.MessageEvent) {
	logger := c.server.config.Logger
	if logger == nil {
		return
	}
	logger.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  c.id,
		Direction:  dir,
		Layer:      log.LayerWire,
		Category:   log.CategoryMessage,
		Source:     command.SourceLink,
		RemoteAddr: c.remoteAddr,
		Message:    msg,
	})
}

func (c *Session) reportError(layer log.Layer, err error, op string) {
	if logger := c.server.config.Logger; logger != nil {
		logger.Log(log.Event{
			Timestamp:  time.Now(),
			SessionID:  c.id,
			Layer:      layer,
			Category:   log.CategoryError,
			RemoteAddr: c.remoteAddr,
			Error: &log.ErrorEventData{
				Layer:   layer,
				Message: err.Error(),
				Context: op,
			},
		})
	}
	if c.server.config.OnError != nil {
		c.server.config.OnError(c, err)
	}
}
