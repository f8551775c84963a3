package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voicetimer/voicetimer-go/pkg/command"
	"github.com/voicetimer/voicetimer-go/pkg/log"
	"github.com/voicetimer/voicetimer-go/pkg/wire"
)

// Client errors.
var (
	ErrRequestTimeout = errors.New("link: request timed out")
	ErrClientClosed   = errors.New("link: client is closed")
)

// DefaultRequestTimeout bounds a request when ctx has no deadline.
const DefaultRequestTimeout = 10 * time.Second

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithNotificationHandler sets the handler for notifications. It runs on
// the read goroutine and must not block on the same Client.
func WithNotificationHandler(h func(*wire.Notification)) ClientOption {
	return func(c *Client) { c.notifyHandler = h }
}

// WithClientLogger enables packet logging.
func WithClientLogger(logger log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithMaxPacketSize overrides DefaultMaxPacketSize.
func WithMaxPacketSize(n int) ClientOption {
	return func(c *Client) { c.maxSize = n }
}

// Client sends requests to a link server and correlates the responses.
type Client struct {
	conn    io.ReadWriteCloser
	writer  *PacketWriter
	reader  *PacketReader
	timeout time.Duration
	maxSize int
	logger  log.Logger

	notifyHandler func(*wire.Notification)

	nextMsgID atomic.Uint32
	pending   map[uint32]chan *wire.Response
	pendingMu sync.Mutex

	done chan struct{}
	err  error
}

// Dial connects to a link server.
func Dial(ctx context.Context, address string, opts ...ClientOption) (*Client, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultRequestTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return NewClient(conn, opts...), nil
}

// NewClient starts a client over an established stream.
func NewClient(conn io.ReadWriteCloser, opts ...ClientOption) *Client {
	c := &Client{
		conn:    conn,
		timeout: DefaultRequestTimeout,
		pending: make(map[uint32]chan *wire.Response),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.writer = NewPacketWriter(conn, c.maxSize)
	c.reader = NewPacketReader(conn, c.maxSize)
	if c.logger != nil {
		c.writer.SetLogger(c.logger, "")
		c.reader.SetLogger(c.logger, "")
	}

	go c.readLoop()
	return c
}

// SendText asks the device to parse and run recognized text.
func (c *Client) SendText(ctx context.Context, text string) (*wire.Response, error) {
	return c.do(ctx, &wire.Request{Operation: wire.OpText, Text: text})
}

// SendCommand sends an already parsed command as a raw record.
func (c *Client) SendCommand(ctx context.Context, cmd command.ParsedCommand) (*wire.Response, error) {
	return c.do(ctx, &wire.Request{Operation: wire.OpRecord, Record: wire.EncodeRecord(cmd)})
}

// Status fetches the timer table.
func (c *Client) Status(ctx context.Context) (*wire.Response, error) {
	return c.do(ctx, &wire.Request{Operation: wire.OpStatus})
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that ended the connection, if any.
func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Close closes the connection and fails all pending requests.
func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}

// nextMessageID skips 0, which is reserved for notifications.
func (c *Client) nextMessageID() uint32 {
	for {
		if id := c.nextMsgID.Add(1); id != wire.NotificationMessageID {
			return id
		}
	}
}

func (c *Client) do(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	select {
	case <-c.done:
		return nil, ErrClientClosed
	default:
	}

	req.MessageID = c.nextMessageID()
	data, err := wire.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	respCh := make(chan *wire.Response, 1)
	c.pendingMu.Lock()
	c.pending[req.MessageID] = respCh
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, req.MessageID)
		c.pendingMu.Unlock()
	}()

	if err := c.writer.WritePacket(data); err != nil {
		return nil, err
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case resp := <-respCh:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrRequestTimeout
	case <-c.done:
		return nil, ErrClientClosed
	}
}

func (c *Client) readLoop() {
	defer close(c.done)

	for {
		data, err := c.reader.ReadPacket()
		if err != nil {
			if errors.Is(err, ErrPacketTooLarge) || errors.Is(err, ErrPacketEmpty) {
				continue
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) && !errors.Is(err, io.ErrClosedPipe) {
				c.err = err
			}
			return
		}

		id, err := wire.PeekMessageID(data)
		if err != nil {
			continue
		}
		if id == wire.NotificationMessageID {
			c.handleNotification(data)
			continue
		}
		c.handleResponse(data)
	}
}

func (c *Client) handleResponse(data []byte) {
	resp, err := wire.DecodeResponse(data)
	if err != nil {
		return
	}

	c.pendingMu.Lock()
	ch, ok := c.pending[resp.MessageID]
	c.pendingMu.Unlock()
	if !ok {
		return
	}

	select {
	case ch <- resp:
	default:
	}
}

func (c *Client) handleNotification(data []byte) {
	if c.notifyHandler == nil {
		return
	}
	n, err := wire.DecodeNotification(data)
	if err != nil {
		return
	}
	c.notifyHandler(n)
}
