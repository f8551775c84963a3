package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/voicetimer/voicetimer-go/pkg/command"
)

// Record layout.
const (
	RecordSize = 24

	recordCmdOffset      = 0
	recordNameOffset     = 1
	recordDurationOffset = 20
)

// ErrRecordSize is returned when a command record has the wrong length.
var ErrRecordSize = errors.New("wire: invalid record size")

// EncodeRecord encodes cmd as a fixed-layout command record.
func EncodeRecord(cmd command.ParsedCommand) []byte {
	buf := make([]byte, RecordSize)
	buf[recordCmdOffset] = byte(cmd.Cmd)
	copy(buf[recordNameOffset:recordNameOffset+command.MaxNameLen], cmd.Name[:cmd.Name.Len()])
	binary.LittleEndian.PutUint32(buf[recordDurationOffset:], cmd.Duration)
	return buf
}

// DecodeRecord decodes a command record. The result is sanitized, so an
// unknown command kind decodes as None().
func DecodeRecord(data []byte) (command.ParsedCommand, error) {
	if len(data) != RecordSize {
		return command.None(), fmt.Errorf("%w: got %d bytes, want %d", ErrRecordSize, len(data), RecordSize)
	}
	var cmd command.ParsedCommand
	cmd.Cmd = command.VoiceCommand(data[recordCmdOffset])
	// The last name byte is the terminator slot and is never copied.
	copy(cmd.Name[:command.MaxNameLen], data[recordNameOffset:recordNameOffset+command.MaxNameLen])
	cmd.Duration = binary.LittleEndian.Uint32(data[recordDurationOffset:])
	return cmd.Sanitize(), nil
}
