// Package bridge is the host side of the peripheral bridge: it frames
// commands for the firmware, matches replies by sequence number and decodes
// the typed results.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tivago/protocol"
)

const (
	// DefaultTimeout bounds a single request when the context has no deadline
	DefaultTimeout = time.Second

	identifyChunk = 40
	identifyLimit = 1000
)

var (
	ErrClosed          = errors.New("bridge client closed")
	ErrNoDictionary    = errors.New("dictionary not loaded")
	ErrMalformedReply  = errors.New("malformed reply")
	ErrUnexpectedReply = errors.New("reply does not match request")
)

// CommandError is a failure reported by the firmware
type CommandError struct {
	Command string
	Message string
}

func (e *CommandError) Error() string {
	return e.Command + ": " + e.Message
}

// Dictionary is the parsed identify data
type Dictionary struct {
	Version   string            `json:"version"`
	Board     string            `json:"board"`
	Constants map[string]string `json:"constants"`
	Commands  map[string]int    `json:"commands"`
	Responses map[string]int    `json:"responses"`

	ids map[string]uint16
}

// ParseDictionary decodes the identify JSON and indexes the command names
func ParseDictionary(data []byte) (*Dictionary, error) {
	d := &Dictionary{}
	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dictionary: %w", err)
	}
	d.ids = make(map[string]uint16, len(d.Commands))
	for key, id := range d.Commands {
		name, _, _ := strings.Cut(key, " ")
		d.ids[name] = uint16(id)
	}
	return d, nil
}

// CommandID returns the ID of the named command
func (d *Dictionary) CommandID(name string) (uint16, bool) {
	id, ok := d.ids[name]
	return id, ok
}

// Client talks to one board. Requests are serialized; each waits for the
// reply carrying its sequence number.
type Client struct {
	port io.ReadWriteCloser
	log  zerolog.Logger

	mu      sync.Mutex
	seq     uint8
	dict    *Dictionary
	rawDict []byte

	replies chan protocol.Frame
	done    chan struct{}
	wg      sync.WaitGroup

	errMu   sync.Mutex
	readErr error
	closed  bool

	// Timeout applies to requests whose context has no deadline
	Timeout time.Duration
}

// NewClient starts reading replies from port
func NewClient(port io.ReadWriteCloser, log zerolog.Logger) *Client {
	c := &Client{
		port:    port,
		log:     log,
		replies: make(chan protocol.Frame, 4),
		done:    make(chan struct{}),
		Timeout: DefaultTimeout,
	}
	c.wg.Add(1)
	go c.readLoop()
	return c
}

func (c *Client) readLoop() {
	defer c.wg.Done()
	dec := protocol.NewDecoder(func(f protocol.Frame) {
		f.Payload = append([]byte(nil), f.Payload...)
		select {
		case c.replies <- f:
		default:
			c.log.Warn().Uint8("seq", f.Seq).Msg("dropping unclaimed reply")
		}
	})

	buf := make([]byte, 256)
	for {
		n, err := c.port.Read(buf)
		if n > 0 {
			dec.Write(buf[:n])
		}
		select {
		case <-c.done:
			return
		default:
		}
		if err != nil && !errors.Is(err, io.EOF) {
			c.errMu.Lock()
			c.readErr = err
			c.errMu.Unlock()
			c.log.Error().Err(err).Msg("serial read failed")
			close(c.replies)
			return
		}
	}
}

// Close stops the reader and closes the port
func (c *Client) Close() error {
	c.errMu.Lock()
	if c.closed {
		c.errMu.Unlock()
		return nil
	}
	c.closed = true
	c.errMu.Unlock()

	close(c.done)
	err := c.port.Close()
	c.wg.Wait()
	return err
}

func (c *Client) nextSeq() uint8 {
	s := protocol.MessageDest | c.seq&protocol.MessageSeqMask
	c.seq++
	return s
}

// call sends command id and returns the reply fields after the status
func (c *Client) call(ctx context.Context, name string, id uint16, args func(out protocol.OutputBuffer)) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok && c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var body protocol.ScratchOutput
	protocol.EncodeVLQUint(&body, uint32(id))
	if args != nil {
		args(&body)
	}
	if body.Overflow() {
		return nil, fmt.Errorf("%s: %w", name, protocol.ErrFrameTooLong)
	}
	seq := c.nextSeq()
	frame, err := protocol.AppendFrame(nil, seq, body.Result())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if _, err := c.port.Write(frame); err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", name, err)
	}
	c.log.Debug().Str("command", name).Uint8("seq", seq).Int("len", len(frame)).Msg("sent")

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", name, ctx.Err())
		case f, ok := <-c.replies:
			if !ok {
				c.errMu.Lock()
				err := c.readErr
				c.errMu.Unlock()
				if err == nil {
					err = ErrClosed
				}
				return nil, err
			}
			if f.Seq != seq {
				c.log.Debug().Uint8("seq", f.Seq).Uint8("want", seq).Msg("stale reply")
				continue
			}
			return decodeReply(name, id, f.Payload)
		}
	}
}

func decodeReply(name string, id uint16, data []byte) ([]byte, error) {
	gotID, err := protocol.DecodeVLQUint(&data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrMalformedReply)
	}
	if gotID != uint32(id) {
		return nil, fmt.Errorf("%s: %w (command %d)", name, ErrUnexpectedReply, gotID)
	}
	status, err := protocol.DecodeVLQUint(&data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrMalformedReply)
	}
	if status != 0 {
		msg, _ := protocol.DecodeVLQString(&data)
		return nil, &CommandError{Command: name, Message: msg}
	}
	return data, nil
}

// Call sends a command by name. The dictionary must have been loaded.
func (c *Client) Call(ctx context.Context, name string, args func(out protocol.OutputBuffer)) ([]byte, error) {
	if c.dict == nil {
		return nil, ErrNoDictionary
	}
	id, ok := c.dict.CommandID(name)
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", name)
	}
	return c.call(ctx, name, id, args)
}

// Identify fetches and parses the dictionary. identify is always command 0.
func (c *Client) Identify(ctx context.Context) (*Dictionary, error) {
	var raw []byte
	for i := 0; i < identifyLimit; i++ {
		offset := uint32(len(raw))
		data, err := c.call(ctx, "identify", 0, func(out protocol.OutputBuffer) {
			protocol.EncodeVLQUint(out, offset)
			protocol.EncodeVLQUint(out, identifyChunk)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve dictionary chunk at offset %d: %w", offset, err)
		}
		got, err := protocol.DecodeVLQUint(&data)
		if err != nil || got != offset {
			return nil, fmt.Errorf("identify at offset %d: %w", offset, ErrMalformedReply)
		}
		chunk, err := protocol.DecodeVLQBytes(&data)
		if err != nil {
			return nil, fmt.Errorf("identify at offset %d: %w", offset, ErrMalformedReply)
		}
		if len(chunk) == 0 {
			break
		}
		raw = append(raw, chunk...)
	}
	c.log.Debug().Int("bytes", len(raw)).Msg("dictionary retrieved")

	dict, err := ParseDictionary(raw)
	if err != nil {
		return nil, err
	}
	c.dict = dict
	c.rawDict = raw
	return dict, nil
}

// Dictionary returns the loaded dictionary, or nil
func (c *Client) Dictionary() *Dictionary {
	return c.dict
}

// RawDictionary returns the identify data as received
func (c *Client) RawDictionary() []byte {
	return c.rawDict
}
