// Package wsconn provides a reconnecting WebSocket client.
package wsconn

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	Name           string // label for state callbacks
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
	PongTimeout    time.Duration
	BufferSize     int

	// OnStateChange is invoked on every transition. Optional.
	OnStateChange func(name string, state State)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0,
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
		BufferSize:     100,
	}
}

// Client is a WebSocket client that transparently reconnects with
// exponential backoff and surfaces inbound messages on a channel.
type Client struct {
	config Config

	conn   *websocket.Conn
	connMu sync.RWMutex

	state   State
	stateMu sync.RWMutex

	messages chan []byte
	done     chan struct{}
	closed   atomic.Bool

	reconnects int
}

// New creates a new WebSocket client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("wsconn: empty URL")
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 100
	}
	return &Client{
		config:   cfg,
		state:    StateDisconnected,
		messages: make(chan []byte, cfg.BufferSize),
		done:     make(chan struct{}),
	}, nil
}

// Connect establishes the connection and starts the read and ping loops.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return errors.New("wsconn: client is closed")
	}

	c.setState(StateConnecting)

	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		c.setState(StateDisconnected)
		return err
	}
	conn.SetReadLimit(1 << 20)

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	c.setState(StateConnected)
	c.reconnects = 0

	go c.readLoop()
	if c.config.PingInterval > 0 {
		go c.pingLoop()
	}

	return nil
}

// Send writes a text message.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()

	if conn == nil || c.State() != StateConnected {
		return errors.New("wsconn: not connected")
	}
	return conn.Write(ctx, websocket.MessageText, msg)
}

// Messages returns the inbound message channel. The channel is closed when
// the client is closed or reconnection attempts are exhausted.
func (c *Client) Messages() <-chan []byte {
	return c.messages
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// IsConnected reports whether the connection is established.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Close tears down the connection. The client cannot be reused.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()

	c.setState(StateDisconnected)

	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "client closed")
	}
	return nil
}

func (c *Client) readLoop() {
	for {
		c.connMu.RLock()
		conn := c.conn
		c.connMu.RUnlock()

		if conn == nil || c.closed.Load() {
			return
		}

		_, data, err := conn.Read(context.Background())
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.reconnect()
			return
		}

		select {
		case c.messages <- data:
		case <-c.done:
			return
		default:
			// Drop when the consumer is behind; feed data is refreshed
			// continuously so a lost frame is recoverable.
		}
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()
			if conn == nil {
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), c.config.PongTimeout)
			err := conn.Ping(ctx)
			cancel()
			if err != nil {
				if c.closed.Load() {
					return
				}
				c.reconnect()
				return
			}
		}
	}
}

func (c *Client) reconnect() {
	c.setState(StateReconnecting)

	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusGoingAway, "reconnecting")
		c.conn = nil
	}
	c.connMu.Unlock()

	backoff := c.config.InitialBackoff
	for {
		if c.closed.Load() {
			return
		}
		if c.config.MaxReconnects > 0 && c.reconnects >= c.config.MaxReconnects {
			c.setState(StateDisconnected)
			close(c.messages)
			return
		}

		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}

		c.reconnects++

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
		cancel()
		if err == nil {
			conn.SetReadLimit(1 << 20)
			c.connMu.Lock()
			c.conn = conn
			c.connMu.Unlock()
			c.setState(StateConnected)
			go c.readLoop()
			return
		}

		backoff *= 2
		if backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}
	}
}

func (c *Client) setState(state State) {
	c.stateMu.Lock()
	changed := c.state != state
	c.state = state
	c.stateMu.Unlock()

	if changed && c.config.OnStateChange != nil {
		c.config.OnStateChange(c.config.Name, state)
	}
}
