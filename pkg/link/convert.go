package link

import (
	"github.com/voicetimer/voicetimer-go/pkg/command"
	"github.com/voicetimer/voicetimer-go/pkg/dispatch"
	"github.com/voicetimer/voicetimer-go/pkg/timer"
	"github.com/voicetimer/voicetimer-go/pkg/wire"
)

// StatusFromDispatch maps a dispatch status to its wire code.
func StatusFromDispatch(s dispatch.Status) wire.Status {
	switch s {
	case dispatch.StatusOK:
		return wire.StatusOK
	case dispatch.StatusNotFound:
		return wire.StatusNotFound
	case dispatch.StatusFull:
		return wire.StatusFull
	default:
		return wire.StatusIgnored
	}
}

// TimerInfos converts timers to their wire form.
func TimerInfos(timers []timer.Timer) []wire.TimerInfo {
	if len(timers) == 0 {
		return nil
	}
	out := make([]wire.TimerInfo, len(timers))
	for i, tm := range timers {
		out[i] = wire.TimerInfo{
			Name:      tm.Name.String(),
			Remaining: tm.Remaining,
			Total:     tm.Total,
			State:     uint8(tm.State),
		}
	}
	return out
}

// CommandInfoFor converts a command to its wire form.
func CommandInfoFor(cmd command.ParsedCommand) *wire.CommandInfo {
	return &wire.CommandInfo{
		Cmd:      uint8(cmd.Cmd),
		Name:     cmd.Name.String(),
		Duration: cmd.Duration,
	}
}

func responseFromResult(id uint32, res dispatch.Result) *wire.Response {
	return &wire.Response{
		MessageID: id,
		Status:    StatusFromDispatch(res.Status),
		Command:   CommandInfoFor(res.Command),
		Timers:    TimerInfos(res.Timers),
		Message:   res.Message,
	}
}
