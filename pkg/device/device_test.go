package device

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/voicetimer/voicetimer-go/pkg/command"
	"github.com/voicetimer/voicetimer-go/pkg/dispatch"
	"github.com/voicetimer/voicetimer-go/pkg/log"
	"github.com/voicetimer/voicetimer-go/pkg/timer"
)

type mockLogger struct {
	mock.Mock
}

func (m *mockLogger) Log(event log.Event) {
	m.Called(event)
}

func newDevice(t *testing.T) *Device {
	t.Helper()
	return New(Config{
		Capacity:    timer.DefaultCapacity,
		RingSeconds: 10,
	})
}

func TestDeviceScenario(t *testing.T) {
	d := newDevice(t)

	res := d.HandleText(Demo, "set tea 180")
	require.Equal(t, dispatch.StatusOK, res.Status)
	tm, ok := d.Timer("tea")
	require.True(t, ok)
	assert.Equal(t, uint32(180), tm.Remaining)
	assert.Equal(t, timer.StateRunning, tm.State)

	res = d.HandleText(Demo, "minus tea 200")
	require.Equal(t, dispatch.StatusOK, res.Status)
	tm, _ = d.Timer("TEA")
	assert.Equal(t, uint32(0), tm.Remaining)
	assert.Equal(t, timer.StateExpired, tm.State)

	res = d.HandleText(Demo, "cancel tea")
	require.Equal(t, dispatch.StatusOK, res.Status)
	_, ok = d.Timer("tea")
	assert.False(t, ok)

	res = d.HandleText(Demo, "stop")
	assert.Equal(t, dispatch.StatusOK, res.Status)
	assert.Empty(t, d.Timers())
}

func TestDeviceIgnoresNoise(t *testing.T) {
	d := newDevice(t)
	d.HandleText(Demo, "set egg 300")

	for _, text := range []string{"what time is it", "set", "add egg twelve-ish", "minus egg -1"} {
		res := d.HandleText(Demo, text)
		assert.Equal(t, dispatch.StatusIgnored, res.Status, text)
	}
	tm, _ := d.Timer("egg")
	assert.Equal(t, uint32(300), tm.Remaining)
}

func TestDeviceHandleCommandSanitizes(t *testing.T) {
	d := newDevice(t)

	var events []Event
	d.OnEvent(func(ev Event) { events = append(events, ev) })

	res := d.HandleCommand(Origin{Source: command.SourceLink, SessionID: "s-1"},
		command.ParsedCommand{Cmd: command.VoiceCommand(77), Name: command.NewName("tea"), Duration: 5})
	assert.Equal(t, dispatch.StatusIgnored, res.Status)
	assert.Empty(t, d.Timers())

	require.Len(t, events, 1)
	assert.Equal(t, EventDispatched, events[0].Kind)
	assert.Equal(t, command.ReasonUnknownCommand, events[0].Input.Reason)
	assert.Equal(t, "s-1", events[0].Input.SessionID)
	assert.False(t, events[0].Changed())
}

func TestDeviceTickEvents(t *testing.T) {
	d := newDevice(t)

	var mu sync.Mutex
	var kinds []EventKind
	d.OnEvent(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, ev.Kind)
	})

	d.HandleText(Demo, "set tea 2")
	res := d.Tick(1)
	assert.True(t, res.Empty())

	res = d.Tick(1)
	require.Len(t, res.Expired, 1)

	res = d.Tick(10)
	require.Len(t, res.Reaped, 1)
	assert.Empty(t, d.Timers())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []EventKind{EventDispatched, EventExpired, EventReaped}, kinds)
}

func TestDeviceHandlerMayReenter(t *testing.T) {
	d := newDevice(t)
	var seen int
	d.OnEvent(func(ev Event) {
		seen = len(d.Timers())
	})
	d.HandleText(Demo, "set tea 10")
	assert.Equal(t, 1, seen)
}

func TestDeviceLogsCommandAndTimer(t *testing.T) {
	logger := &mockLogger{}
	logger.On("Log", mock.MatchedBy(func(ev log.Event) bool {
		return ev.Command != nil && ev.Command.Cmd == command.CmdSet &&
			ev.Command.Name == "tea" && ev.Command.Status == "ok" &&
			ev.Source == command.SourceDemo && ev.Command.Text == "set tea 60"
	})).Once()
	logger.On("Log", mock.MatchedBy(func(ev log.Event) bool {
		return ev.Timer != nil && ev.Timer.OldState == "IDLE" && ev.Timer.NewState == "RUNNING"
	})).Once()

	d := New(Config{Logger: logger})
	d.HandleText(Demo, "set tea 60")

	logger.AssertExpectations(t)
}

func TestDeviceLogsTruncation(t *testing.T) {
	ring := log.NewRingLogger(8)
	d := New(Config{Logger: ring})
	d.HandleText(Demo, "set abcdefghijklmnopqrstuvwxyz 5")

	events := ring.Events()
	require.NotEmpty(t, events)
	require.NotNil(t, events[0].Command)
	assert.True(t, events[0].Command.Truncated)
	assert.Equal(t, "abcdefghijklmno", events[0].Command.Name)
}

func TestDeviceCapacity(t *testing.T) {
	d := newDevice(t)
	assert.Equal(t, 4, d.Capacity())
	for i := 0; i < 4; i++ {
		require.Equal(t, dispatch.StatusOK, d.HandleText(Demo, fmt.Sprintf("set t%d 60", i)).Status)
	}
	assert.Equal(t, dispatch.StatusFull, d.HandleText(Demo, "set extra 60").Status)
}

func TestDeviceConcurrentAccess(t *testing.T) {
	d := newDevice(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("t%d", i%4)
			for j := 0; j < 50; j++ {
				d.HandleText(Demo, "set "+name+" 100")
				d.HandleText(Demo, "add "+name+" 5")
				d.HandleText(Demo, "minus "+name+" 3")
				d.Timers()
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 200; j++ {
			d.Tick(1)
		}
	}()
	wg.Wait()

	for _, tm := range d.Timers() {
		assert.LessOrEqual(t, tm.Remaining, uint32(110))
	}
}

func TestDeviceRun(t *testing.T) {
	d := New(Config{
		RingSeconds:  60,
		TickInterval: 20 * time.Millisecond,
	})
	d.HandleText(Demo, "set egg 1")

	expired := make(chan struct{})
	var once sync.Once
	d.OnEvent(func(ev Event) {
		if ev.Kind == EventExpired {
			once.Do(func() { close(expired) })
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case <-expired:
	case <-time.After(3 * time.Second):
		t.Fatal("timer did not expire")
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	tm, ok := d.Timer("egg")
	require.True(t, ok)
	assert.True(t, tm.IsExpired())
}

func TestNewZeroConfigUsesDefaults(t *testing.T) {
	d := New(Config{})
	assert.Equal(t, timer.DefaultCapacity, d.Capacity())

	res := d.HandleText(Demo, "set tea 0")
	assert.Equal(t, dispatch.StatusOK, res.Status)
	tm, ok := d.Timer("tea")
	require.True(t, ok)
	assert.True(t, tm.IsExpired())

	res = d.HandleText(Demo, "add egg 30")
	assert.Equal(t, dispatch.StatusOK, res.Status)
	_, ok = d.Timer("egg")
	assert.True(t, ok)

	d.HandleText(Demo, "set rice 1")
	tick := d.Tick(1)
	require.Len(t, tick.Expired, 1)
	assert.Empty(t, tick.Reaped)

	tick = d.Tick(timer.DefaultRingSeconds)
	assert.Len(t, tick.Reaped, 2)
}

func TestNewPolicyOverride(t *testing.T) {
	d := New(Config{Policy: &dispatch.Policy{}})

	assert.Equal(t, dispatch.StatusIgnored, d.HandleText(Demo, "set tea 0").Status)
	assert.Equal(t, dispatch.StatusNotFound, d.HandleText(Demo, "add egg 30").Status)
	assert.Empty(t, d.Timers())
}
