package link

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicetimer/voicetimer-go/pkg/command"
	"github.com/voicetimer/voicetimer-go/pkg/device"
	"github.com/voicetimer/voicetimer-go/pkg/log"
	"github.com/voicetimer/voicetimer-go/pkg/timer"
	"github.com/voicetimer/voicetimer-go/pkg/wire"
)

type fixture struct {
	dev    *device.Device
	server *Server
	ring   *log.RingLogger
	ctx    context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	dev := device.New(device.Config{
		Capacity:    timer.DefaultCapacity,
		RingSeconds: 10,
	})
	ring := log.NewRingLogger(256)
	return &fixture{
		dev:    dev,
		server: NewServer(dev, ServerConfig{Logger: ring}),
		ring:   ring,
		ctx:    ctx,
	}
}

// connect serves one end of a pipe and returns a client on the other.
func (f *fixture) connect(t *testing.T, opts ...ClientOption) *Client {
	t.Helper()
	serverSide, clientSide := net.Pipe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.server.Serve(f.ctx, serverSide, "pipe")
	}()

	c := NewClient(clientSide, opts...)
	t.Cleanup(func() {
		c.Close()
		<-done
	})
	require.Eventually(t, func() bool { return f.server.SessionCount() > 0 }, time.Second, time.Millisecond)
	return c
}

func TestServerText(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	resp, err := c.SendText(context.Background(), "set tea for 3 minutes")
	require.NoError(t, err)

	assert.NotZero(t, resp.MessageID)
	assert.Equal(t, wire.StatusOK, resp.Status)
	require.NotNil(t, resp.Command)
	assert.Equal(t, uint8(command.CmdSet), resp.Command.Cmd)
	assert.Equal(t, "tea", resp.Command.Name)
	assert.Equal(t, uint32(180), resp.Command.Duration)
	require.Len(t, resp.Timers, 1)
	assert.Equal(t, uint32(180), resp.Timers[0].Remaining)
	assert.Equal(t, uint8(timer.StateRunning), resp.Timers[0].State)

	tm, ok := f.dev.Timer("tea")
	require.True(t, ok)
	assert.Equal(t, uint32(180), tm.Remaining)
}

func TestServerTextNoise(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	resp, err := c.SendText(context.Background(), "what is the weather")
	require.NoError(t, err)
	assert.Equal(t, wire.StatusIgnored, resp.Status)
	assert.Equal(t, uint8(command.CmdNone), resp.Command.Cmd)
	assert.Empty(t, f.dev.Timers())
}

func TestServerRecord(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	cmd := command.ParsedCommand{Cmd: command.CmdSet, Name: command.NewName("eggs"), Duration: 300}
	resp, err := c.SendCommand(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, wire.StatusOK, resp.Status)

	resp, err = c.SendCommand(context.Background(), command.ParsedCommand{Cmd: command.CmdCancel, Name: command.NewName("rice")})
	require.NoError(t, err)
	assert.Equal(t, wire.StatusNotFound, resp.Status)
	assert.Len(t, f.dev.Timers(), 1)
}

func TestServerRecordNameMatchesText(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	cmd := command.ParsedCommand{Cmd: command.CmdSet, Name: command.NewName("Tea"), Duration: 60}
	resp, err := c.SendCommand(context.Background(), cmd)
	require.NoError(t, err)
	require.Equal(t, wire.StatusOK, resp.Status)
	assert.Equal(t, "tea", resp.Command.Name)

	_, ok := f.dev.Timer("Tea")
	assert.True(t, ok)

	resp, err = c.SendText(context.Background(), "cancel tea")
	require.NoError(t, err)
	assert.Equal(t, wire.StatusOK, resp.Status)
	assert.Empty(t, f.dev.Timers())
}

func TestServerStatus(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	f.dev.HandleText(device.Demo, "set tea 60")
	f.dev.HandleText(device.Demo, "set eggs 120")

	resp, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wire.StatusOK, resp.Status)
	assert.Nil(t, resp.Command)
	require.Len(t, resp.Timers, 2)
	assert.Equal(t, "tea", resp.Timers[0].Name)
	assert.Equal(t, "eggs", resp.Timers[1].Name)
	assert.Equal(t, "2 of 4 timers in use", resp.Message)
}

func TestServerBadRequest(t *testing.T) {
	f := newFixture(t)
	serverSide, clientSide := net.Pipe()
	go f.server.Serve(f.ctx, serverSide, "pipe")
	defer clientSide.Close()

	w := NewPacketWriter(clientSide, 0)
	r := NewPacketReader(clientSide, 0)

	// Unknown operation: answered.
	data, err := wire.Marshal(&wire.Request{MessageID: 7, Operation: 9})
	require.NoError(t, err)
	require.NoError(t, w.WritePacket(data))

	reply, err := r.ReadPacket()
	require.NoError(t, err)
	resp, err := wire.DecodeResponse(reply)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), resp.MessageID)
	assert.Equal(t, wire.StatusBadRequest, resp.Status)

	// Garbage and messageId 0: dropped, session stays up.
	require.NoError(t, w.WritePacket([]byte{0xff, 0x00}))
	data, err = wire.Marshal(&wire.Request{MessageID: 0, Operation: wire.OpStatus})
	require.NoError(t, err)
	require.NoError(t, w.WritePacket(data))

	data, err = wire.EncodeRequest(&wire.Request{MessageID: 8, Operation: wire.OpStatus})
	require.NoError(t, err)
	require.NoError(t, w.WritePacket(data))

	reply, err = r.ReadPacket()
	require.NoError(t, err)
	resp, err = wire.DecodeResponse(reply)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), resp.MessageID)
	assert.Equal(t, wire.StatusOK, resp.Status)

	var errors int
	for _, ev := range f.ring.Events() {
		if ev.Category == log.CategoryError {
			errors++
		}
	}
	assert.Equal(t, 3, errors)
}

func TestServerNotifiesOtherSessions(t *testing.T) {
	f := newFixture(t)

	var selfNotes atomic.Int32
	a := f.connect(t, WithNotificationHandler(func(*wire.Notification) { selfNotes.Add(1) }))

	notes := make(chan *wire.Notification, 4)
	b := f.connect(t, WithNotificationHandler(func(n *wire.Notification) { notes <- n }))
	require.Eventually(t, func() bool { return f.server.SessionCount() == 2 }, time.Second, time.Millisecond)

	_, err := a.SendText(context.Background(), "set tea 90")
	require.NoError(t, err)

	select {
	case n := <-notes:
		assert.Equal(t, wire.NotifyChanged, n.Event)
		require.Len(t, n.Timers, 1)
		assert.Equal(t, "tea", n.Timers[0].Name)
	case <-time.After(time.Second):
		t.Fatal("session b got no notification")
	}

	// A response is queued after any notification to the same session.
	_, err = a.Status(context.Background())
	require.NoError(t, err)
	assert.Zero(t, selfNotes.Load())

	// Ignored input changes nothing and is not broadcast.
	_, err = a.SendText(context.Background(), "hello")
	require.NoError(t, err)
	_, err = b.Status(context.Background())
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestServerNotifiesExpiry(t *testing.T) {
	f := newFixture(t)

	notes := make(chan *wire.Notification, 4)
	c := f.connect(t, WithNotificationHandler(func(n *wire.Notification) { notes <- n }))

	_, err := c.SendText(context.Background(), "set tea 5")
	require.NoError(t, err)

	f.dev.Tick(5)
	select {
	case n := <-notes:
		assert.Equal(t, wire.NotifyExpired, n.Event)
		assert.Equal(t, "tea done", n.Message)
	case <-time.After(time.Second):
		t.Fatal("no expiry notification")
	}

	f.dev.Tick(10)
	select {
	case n := <-notes:
		assert.Equal(t, wire.NotifyReaped, n.Event)
		require.Len(t, n.Timers, 1)
		assert.Equal(t, uint8(timer.StateIdle), n.Timers[0].State)
	case <-time.After(time.Second):
		t.Fatal("no reap notification")
	}
}

func TestServerLogsMessages(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	_, err := c.SendText(context.Background(), "set tea 60")
	require.NoError(t, err)

	var req, resp *log.Event
	require.Eventually(t, func() bool {
		for _, ev := range f.ring.Events() {
			ev := ev
			if ev.Message == nil {
				continue
			}
			switch ev.Message.Type {
			case log.MessageTypeRequest:
				req = &ev
			case log.MessageTypeResponse:
				resp = &ev
			}
		}
		return req != nil && resp != nil
	}, time.Second, time.Millisecond)

	assert.Equal(t, log.DirectionIn, req.Direction)
	require.NotNil(t, req.Message.Operation)
	assert.Equal(t, wire.OpText, *req.Message.Operation)
	assert.Equal(t, log.DirectionOut, resp.Direction)
	require.NotNil(t, resp.Message.Status)
	assert.Equal(t, wire.StatusOK, *resp.Message.Status)
	assert.NotNil(t, resp.Message.ProcessingTime)
	assert.Equal(t, req.SessionID, resp.SessionID)
}

func TestServerTCP(t *testing.T) {
	f := newFixture(t)
	f.server.config.Address = "127.0.0.1:0"

	var connected atomic.Int32
	f.server.config.OnConnect = func(*Session) { connected.Add(1) }

	require.NoError(t, f.server.Start(f.ctx))
	defer f.server.Stop()
	assert.ErrorIs(t, f.server.Start(f.ctx), ErrServerRunning)

	c, err := Dial(context.Background(), f.server.Addr().String())
	require.NoError(t, err)

	resp, err := c.SendText(context.Background(), "set pasta 8 minutes")
	require.NoError(t, err)
	assert.Equal(t, wire.StatusOK, resp.Status)
	assert.Equal(t, int32(1), connected.Load())

	require.NoError(t, f.server.Stop())
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("client not closed by server stop")
	}

	_, err = c.Status(context.Background())
	assert.ErrorIs(t, err, ErrClientClosed)
	assert.Zero(t, f.server.SessionCount())
}

func TestClientRequestTimeout(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()

	// Drain requests without answering.
	go func() {
		r := NewPacketReader(serverSide, 0)
		for {
			if _, err := r.ReadPacket(); err != nil {
				return
			}
		}
	}()

	c := NewClient(clientSide, WithRequestTimeout(20*time.Millisecond))
	defer c.Close()

	_, err := c.Status(context.Background())
	assert.ErrorIs(t, err, ErrRequestTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Status(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientMessageIDsSkipZero(t *testing.T) {
	c := &Client{}
	c.nextMsgID.Store(^uint32(0) - 1)

	assert.Equal(t, ^uint32(0), c.nextMessageID())
	assert.Equal(t, uint32(1), c.nextMessageID())
}
