package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicetimer/voicetimer-go/pkg/command"
	"github.com/voicetimer/voicetimer-go/pkg/timer"
)

func newDispatcher(policy Policy) (*Dispatcher, *timer.Table) {
	tbl := timer.NewTable(timer.DefaultCapacity, timer.DefaultRingSeconds)
	return New(tbl, policy), tbl
}

func cmd(c command.VoiceCommand, name string, d uint32) command.ParsedCommand {
	return command.ParsedCommand{Cmd: c, Name: command.NewName(name), Duration: d}
}

func TestDispatchScenario(t *testing.T) {
	d, tbl := newDispatcher(DefaultPolicy())
	tea := command.NewName("tea")

	res := d.Dispatch(cmd(command.CmdSet, "tea", 180))
	require.Equal(t, StatusOK, res.Status)
	tm, ok := tbl.Get(tea)
	require.True(t, ok)
	assert.Equal(t, uint32(180), tm.Remaining)
	assert.Equal(t, timer.StateRunning, tm.State)
	assert.Equal(t, "tea set for 3:00", res.Message)

	res = d.Dispatch(cmd(command.CmdMinus, "tea", 200))
	require.Equal(t, StatusOK, res.Status)
	tm, _ = tbl.Get(tea)
	assert.Equal(t, uint32(0), tm.Remaining)
	assert.Equal(t, timer.StateExpired, tm.State)

	res = d.Dispatch(cmd(command.CmdCancel, "tea", 0))
	require.Equal(t, StatusOK, res.Status)
	_, ok = tbl.Get(tea)
	assert.False(t, ok)

	res = d.Dispatch(cmd(command.CmdStop, "", 0))
	assert.Equal(t, StatusOK, res.Status)
	assert.Empty(t, res.Timers)
	assert.Equal(t, 0, tbl.Len())
}

func TestDispatchNoneNeverMutates(t *testing.T) {
	d, tbl := newDispatcher(DefaultPolicy())
	d.Dispatch(cmd(command.CmdSet, "tea", 60))
	before := tbl.Snapshot()

	for _, input := range []string{"hello", "set tea", "reset tea 10", "add tea -5", ""} {
		res := d.Dispatch(command.Parse(input))
		assert.Equal(t, StatusIgnored, res.Status, input)
		assert.Equal(t, before, tbl.Snapshot(), input)
	}
}

func TestDispatchSetThenQuery(t *testing.T) {
	d, tbl := newDispatcher(DefaultPolicy())
	for _, dur := range []uint32{1, 59, 180, 3600, 4294967295} {
		d.Dispatch(cmd(command.CmdSet, "x", dur))
		tm, ok := tbl.Get(command.NewName("x"))
		require.True(t, ok)
		assert.Equal(t, dur, tm.Remaining)
	}
}

func TestDispatchSetZero(t *testing.T) {
	d, tbl := newDispatcher(DefaultPolicy())
	res := d.Dispatch(cmd(command.CmdSet, "egg", 0))
	assert.Equal(t, StatusOK, res.Status)
	tm, _ := tbl.Get(command.NewName("egg"))
	assert.Equal(t, timer.StateExpired, tm.State)

	d, tbl = newDispatcher(Policy{CreateOnAdd: true})
	res = d.Dispatch(cmd(command.CmdSet, "egg", 0))
	assert.Equal(t, StatusIgnored, res.Status)
	assert.Equal(t, 0, tbl.Len())
}

func TestDispatchCancelThenAddEqualsSet(t *testing.T) {
	d1, t1 := newDispatcher(DefaultPolicy())
	d1.Dispatch(cmd(command.CmdSet, "tea", 500))
	d1.Dispatch(cmd(command.CmdCancel, "tea", 0))
	r1 := d1.Dispatch(cmd(command.CmdAdd, "tea", 10))

	d2, t2 := newDispatcher(DefaultPolicy())
	r2 := d2.Dispatch(cmd(command.CmdSet, "tea", 10))

	assert.Equal(t, r2.Status, r1.Status)
	a, _ := t1.Get(command.NewName("tea"))
	b, _ := t2.Get(command.NewName("tea"))
	assert.Equal(t, b.Remaining, a.Remaining)
	assert.Equal(t, b.State, a.State)
	assert.Equal(t, b.Total, a.Total)
}

func TestDispatchAdd(t *testing.T) {
	d, tbl := newDispatcher(DefaultPolicy())
	d.Dispatch(cmd(command.CmdSet, "tea", 60))

	res := d.Dispatch(cmd(command.CmdAdd, "tea", 30))
	require.Equal(t, StatusOK, res.Status)
	tm, _ := tbl.Get(command.NewName("tea"))
	assert.Equal(t, uint32(90), tm.Remaining)
	assert.Equal(t, "tea: 0:30 added, 1:30 left", res.Message)
}

func TestDispatchAddWithoutCreate(t *testing.T) {
	d, tbl := newDispatcher(Policy{ZeroDurationExpires: true})
	res := d.Dispatch(cmd(command.CmdAdd, "tea", 30))
	assert.Equal(t, StatusNotFound, res.Status)
	assert.Equal(t, "no timer named tea", res.Message)
	assert.Equal(t, 0, tbl.Len())
}

func TestDispatchMinusNotFound(t *testing.T) {
	d, tbl := newDispatcher(DefaultPolicy())
	res := d.Dispatch(cmd(command.CmdMinus, "tea", 30))
	assert.Equal(t, StatusNotFound, res.Status)
	assert.Equal(t, 0, tbl.Len())
}

func TestDispatchCancelMissingIsNoop(t *testing.T) {
	d, tbl := newDispatcher(DefaultPolicy())
	d.Dispatch(cmd(command.CmdSet, "egg", 30))

	res := d.Dispatch(cmd(command.CmdCancel, "tea", 0))
	assert.Equal(t, StatusNotFound, res.Status)
	assert.Equal(t, 1, tbl.Len())
}

func TestDispatchStopClearsAll(t *testing.T) {
	d, tbl := newDispatcher(DefaultPolicy())
	for _, n := range []string{"a", "b", "c"} {
		d.Dispatch(cmd(command.CmdSet, n, 30))
	}

	res := d.Dispatch(cmd(command.CmdStop, "a", 0))
	assert.Equal(t, StatusOK, res.Status)
	assert.Len(t, res.Timers, 3)
	assert.Equal(t, "3 timers stopped", res.Message)
	assert.Equal(t, 0, tbl.Running())
	assert.Equal(t, 0, tbl.Len())
}

func TestDispatchFull(t *testing.T) {
	d, _ := newDispatcher(DefaultPolicy())
	for _, n := range []string{"a", "b", "c", "d"} {
		require.Equal(t, StatusOK, d.Dispatch(cmd(command.CmdSet, n, 30)).Status)
	}

	res := d.Dispatch(cmd(command.CmdSet, "e", 30))
	assert.Equal(t, StatusFull, res.Status)

	res = d.Dispatch(cmd(command.CmdAdd, "e", 30))
	assert.Equal(t, StatusFull, res.Status)
}

func TestDispatchDefaultTimer(t *testing.T) {
	d, tbl := newDispatcher(DefaultPolicy())
	res := d.Dispatch(command.Parse("set 90"))
	assert.Equal(t, "timer set for 1:30", res.Message)

	var def command.Name
	tm, ok := tbl.Get(def)
	require.True(t, ok)
	assert.Equal(t, uint32(90), tm.Remaining)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "not_found", StatusNotFound.String())
	assert.Equal(t, "ignored", StatusIgnored.String())
	assert.Equal(t, "full", StatusFull.String())
	assert.True(t, StatusOK.IsSuccess())
	assert.False(t, StatusFull.IsSuccess())
}
