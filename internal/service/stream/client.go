// Package stream feeds detection batches into the smoother, either from a
// remote streaming detection endpoint or from the in-process detector.
package stream

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"detectview/internal/logger"
	"detectview/internal/models"
	"detectview/internal/service/smoother"
)

// DefaultFrameInterval is how often a captured frame is sent upstream.
const DefaultFrameInterval = 100 * time.Millisecond

// BatchSink receives every valid batch, in arrival order.
type BatchSink func(models.DetectionBatch)

// FrameSource yields encoded JPEG frames and the size of the captured video.
type FrameSource interface {
	Frame() ([]byte, error)
	Size() (width, height int)
}

// Client is a WebSocket client for the streaming detection endpoint. Each
// inbound message is one batch; outbound messages are base64 JPEG frames.
type Client struct {
	url                 string
	source              FrameSource
	sink                BatchSink
	interval            time.Duration
	reconnectMaxElapsed time.Duration
	dialer              *websocket.Dialer
	logger              *logger.Logger
	now                 func() time.Time

	seq uint64
}

type ClientOptions struct {
	URL                 string
	Source              FrameSource // nil disables outbound frames
	Sink                BatchSink
	Interval            time.Duration
	ReconnectMaxElapsed time.Duration // 0 halts on the first dropped connection
	Logger              *logger.Logger
}

func NewClient(opts ClientOptions) *Client {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Client{
		url:                 opts.URL,
		source:              opts.Source,
		sink:                opts.Sink,
		interval:            interval,
		reconnectMaxElapsed: opts.ReconnectMaxElapsed,
		dialer:              websocket.DefaultDialer,
		logger:              opts.Logger,
		now:                 time.Now,
	}
}

// Run streams until ctx is cancelled or the connection drops. With reconnects
// enabled, dropped connections are retried with exponential backoff until
// ReconnectMaxElapsed passes without a successful session.
func (c *Client) Run(ctx context.Context) error {
	if c.reconnectMaxElapsed <= 0 {
		_, err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.reconnectMaxElapsed
	b.Reset()

	for {
		connected, err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			b.Reset()
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return fmt.Errorf("giving up on detection stream: %w", err)
		}
		c.logger.Warning("Detection stream lost (%v), reconnecting in %v", err, wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// runOnce holds one connection. connected reports whether the dial succeeded.
func (c *Client) runOnce(ctx context.Context) (connected bool, err error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}
	defer conn.Close()
	c.logger.Info("Connected to detection stream %s", c.url)

	readErr := make(chan error, 1)
	go func() {
		readErr <- c.readLoop(conn)
	}()

	var tick <-chan time.Time
	if c.source != nil {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
			<-readErr
			return true, ctx.Err()

		case err := <-readErr:
			return true, err

		case <-tick:
			if err := c.sendFrame(conn); err != nil {
				conn.Close()
				<-readErr
				return true, err
			}
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info("Detection stream closed by server")
				return errors.New("detection stream closed by server")
			}
			return fmt.Errorf("detection stream read failed: %w", err)
		}
		c.HandleMessage(data)
	}
}

// HandleMessage decodes one inbound message and forwards it when valid.
// Malformed messages are logged and dropped.
func (c *Client) HandleMessage(data []byte) bool {
	c.seq++
	batch, err := smoother.DecodeBatch(data, c.seq, c.now())
	if err != nil {
		c.logger.Warning("Dropping detection batch %d: %v", c.seq, err)
		return false
	}
	c.sink(batch)
	return true
}

func (c *Client) sendFrame(conn *websocket.Conn) error {
	frame, err := c.source.Frame()
	if err != nil {
		c.logger.Warning("Skipping frame: %v", err)
		return nil
	}

	encoded := base64.StdEncoding.EncodeToString(frame)
	conn.SetWriteDeadline(time.Now().Add(c.interval * 10))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(encoded)); err != nil {
		return fmt.Errorf("failed to send frame: %w", err)
	}
	return nil
}
