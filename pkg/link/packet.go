package link

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/voicetimer/voicetimer-go/pkg/log"
)

const (
	// LengthPrefixSize is the size of the packet length prefix.
	LengthPrefixSize = 2

	// DefaultMaxPacketSize is the largest packet payload accepted.
	DefaultMaxPacketSize = 512
)

// Packet errors.
var (
	ErrPacketTooLarge  = errors.New("link: packet too large")
	ErrPacketEmpty     = errors.New("link: packet is empty")
	ErrPacketTruncated = errors.New("link: packet truncated")
)

type packetLog struct {
	logger    log.Logger
	sessionID string
}

func (p packetLog) log(data []byte, dir log.Direction) {
	if p.logger == nil {
		return
	}
	clipped, truncated := log.PacketData(data)
	p.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: p.sessionID,
		Direction: dir,
		Layer:     log.LayerLink,
		Category:  log.CategoryMessage,
		Packet: &log.PacketEvent{
			Size:      LengthPrefixSize + len(data),
			Data:      clipped,
			Truncated: truncated,
		},
	})
}

// PacketWriter writes length-prefixed packets. It is safe for concurrent
// use.
type PacketWriter struct {
	w       io.Writer
	maxSize int
	mu      sync.Mutex
	plog    packetLog
}

// NewPacketWriter creates a PacketWriter. Non-positive maxSize selects
// DefaultMaxPacketSize.
func NewPacketWriter(w io.Writer, maxSize int) *PacketWriter {
	return &PacketWriter{w: w, maxSize: packetLimit(maxSize)}
}

// SetLogger enables packet logging.
func (pw *PacketWriter) SetLogger(logger log.Logger, sessionID string) {
	pw.plog = packetLog{logger: logger, sessionID: sessionID}
}

// WritePacket writes one packet with a single Write call.
func (pw *PacketWriter) WritePacket(data []byte) error {
	if len(data) == 0 {
		return ErrPacketEmpty
	}
	if len(data) > pw.maxSize {
		return fmt.Errorf("%w: %d > %d", ErrPacketTooLarge, len(data), pw.maxSize)
	}

	buf := make([]byte, LengthPrefixSize+len(data))
	binary.BigEndian.PutUint16(buf, uint16(len(data)))
	copy(buf[LengthPrefixSize:], data)

	pw.mu.Lock()
	defer pw.mu.Unlock()
	if _, err := pw.w.Write(buf); err != nil {
		return fmt.Errorf("failed to write packet: %w", err)
	}
	pw.plog.log(data, log.DirectionOut)
	return nil
}

// PacketReader reads length-prefixed packets. It is not safe for
// concurrent use.
type PacketReader struct {
	r         io.Reader
	maxSize   int
	lengthBuf [LengthPrefixSize]byte
	plog      packetLog
}

// NewPacketReader creates a PacketReader. Non-positive maxSize selects
// DefaultMaxPacketSize.
func NewPacketReader(r io.Reader, maxSize int) *PacketReader {
	return &PacketReader{r: r, maxSize: packetLimit(maxSize)}
}

// SetLogger enables packet logging.
func (pr *PacketReader) SetLogger(logger log.Logger, sessionID string) {
	pr.plog = packetLog{logger: logger, sessionID: sessionID}
}

// ReadPacket reads one packet and returns its payload. It returns io.EOF
// if the stream ends cleanly between packets.
//
// An oversized packet is consumed and reported with ErrPacketTooLarge, so
// the stream stays aligned and the caller may keep reading.
func (pr *PacketReader) ReadPacket() ([]byte, error) {
	if _, err := io.ReadFull(pr.r, pr.lengthBuf[:]); err != nil {
		if err == io.EOF {
			return nil, err
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrPacketTruncated
		}
		return nil, fmt.Errorf("failed to read length prefix: %w", err)
	}

	length := int(binary.BigEndian.Uint16(pr.lengthBuf[:]))
	if length == 0 {
		return nil, ErrPacketEmpty
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(pr.r, payload); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || err == io.EOF {
			return nil, ErrPacketTruncated
		}
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	if length > pr.maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrPacketTooLarge, length, pr.maxSize)
	}

	pr.plog.log(payload, log.DirectionIn)
	return payload, nil
}

func packetLimit(maxSize int) int {
	if maxSize <= 0 || maxSize > 0xffff {
		return DefaultMaxPacketSize
	}
	return maxSize
}
