package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cineforge/internal/logging"
)

const (
	defaultHeartbeat      = 25 * time.Second
	defaultDialTimeout    = 10 * time.Second
	defaultReconnectDelay = 3 * time.Second
	defaultReconnectMax   = 3
)

// Subscription describes one table/filter change feed.
type Subscription struct {
	Table  string
	Filter string // e.g. "project_id=eq.<id>"; empty subscribes to the whole table
}

// Handler receives change events. Handlers run on the read loop goroutine;
// they must not block.
type Handler func(ChangeEvent)

// Options configures the realtime client.
type Options struct {
	// BaseURL is the backend project URL (https scheme; converted to wss).
	BaseURL string
	// APIKey is the anon key appended to the websocket URL.
	APIKey string
	// Token is the session access token sent on join.
	Token string
	// HeartbeatInterval overrides the default phoenix heartbeat cadence.
	HeartbeatInterval time.Duration
	// ReconnectAttempts bounds reconnects after an unexpected drop. The
	// original client gives up after a couple of fixed-delay attempts and so
	// do we; genuine recovery is the user's call.
	ReconnectAttempts int
	Logger            *slog.Logger
}

// Client maintains one websocket to the realtime service and fans change
// events out to per-subscription handlers.
type Client struct {
	opts    Options
	logger  *slog.Logger
	refSeq  int
	mu     sync.Mutex
	conn   *websocket.Conn
	subs   []subscription
	closed bool
}

type subscription struct {
	topic   string
	spec    Subscription
	handler Handler
}

// NewClient prepares a realtime client. No connection is made until Run.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("realtime: base url required")
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = defaultHeartbeat
	}
	if opts.ReconnectAttempts <= 0 {
		opts.ReconnectAttempts = defaultReconnectMax
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		opts:   opts,
		logger: logger.With(logging.String(logging.FieldComponent, "realtime")),
	}, nil
}

// Subscribe registers a change handler. Must be called before Run.
func (c *Client) Subscribe(spec Subscription, handler Handler) error {
	if strings.TrimSpace(spec.Table) == "" {
		return errors.New("realtime: table required")
	}
	if handler == nil {
		return errors.New("realtime: handler required")
	}
	topic := "realtime:" + spec.Table
	if spec.Filter != "" {
		topic += ":" + spec.Filter
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, subscription{topic: topic, spec: spec, handler: handler})
	return nil
}

func (c *Client) websocketURL() (string, error) {
	parsed, err := url.Parse(c.opts.BaseURL)
	if err != nil {
		return "", fmt.Errorf("realtime: parse base url: %w", err)
	}
	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	case "http":
		parsed.Scheme = "ws"
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/realtime/v1/websocket"
	query := parsed.Query()
	if c.opts.APIKey != "" {
		query.Set("apikey", c.opts.APIKey)
	}
	query.Set("vsn", "1.0.0")
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// Run connects, joins all subscriptions, and pumps events until the context
// is canceled or the reconnect budget is exhausted.
func (c *Client) Run(ctx context.Context) error {
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.session(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			return err
		}
		attempts++
		if attempts > c.opts.ReconnectAttempts {
			return fmt.Errorf("realtime: connection lost after %d reconnect attempts: %w", c.opts.ReconnectAttempts, err)
		}
		c.logger.Warn("realtime connection dropped, reconnecting",
			logging.Error(err),
			logging.Int("attempt", attempts),
			logging.Int("max_attempts", c.opts.ReconnectAttempts))
		select {
		case <-time.After(defaultReconnectDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) session(ctx context.Context) error {
	wsURL, err := c.websocketURL()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: defaultDialTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("realtime: dial: %w", err)
	}
	defer conn.Close()

	c.mu.Lock()
	c.conn = conn
	subs := append([]subscription(nil), c.subs...)
	c.mu.Unlock()

	for _, sub := range subs {
		if err := c.join(conn, sub); err != nil {
			return err
		}
	}
	c.logger.Debug("realtime session established", logging.Int("subscriptions", len(subs)))

	heartbeatDone := make(chan struct{})
	defer close(heartbeatDone)
	go c.heartbeatLoop(ctx, conn, subs, heartbeatDone)

	// Unblock the read loop when the context goes away.
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-heartbeatDone:
		}
	}()

	for {
		var msg frame
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("realtime: read: %w", err)
		}
		c.dispatch(subs, msg)
	}
}

func (c *Client) join(conn *websocket.Conn, sub subscription) error {
	payload := joinPayload{
		Config: joinConfig{
			PostgresChanges: []postgresChange{{
				Event:  "*",
				Schema: "public",
				Table:  sub.spec.Table,
				Filter: sub.spec.Filter,
			}},
		},
		AccessToken: c.opts.Token,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("realtime: encode join payload: %w", err)
	}
	msg := frame{
		Topic:   sub.topic,
		Event:   "phx_join",
		Payload: encoded,
		Ref:     c.nextRef(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("realtime: join %s: %w", sub.topic, err)
	}
	return nil
}

func (c *Client) heartbeatLoop(ctx context.Context, conn *websocket.Conn, subs []subscription, done <-chan struct{}) {
	ticker := time.NewTicker(c.opts.HeartbeatInterval)
	defer ticker.Stop()
	heartbeat := []byte(`{}`)
	for {
		select {
		case <-ticker.C:
			msg := frame{Topic: "phoenix", Event: "heartbeat", Payload: heartbeat, Ref: c.nextRef()}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
			if err := c.refreshTokens(conn, subs); err != nil {
				return
			}
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// refreshTokens re-sends the access token on every joined channel so
// row-level security keeps evaluating against the signed-in user after the
// token's original claims would have gone stale.
func (c *Client) refreshTokens(conn *websocket.Conn, subs []subscription) error {
	if c.opts.Token == "" {
		return nil
	}
	encoded, err := json.Marshal(tokenPayload{AccessToken: c.opts.Token})
	if err != nil {
		return err
	}
	for _, sub := range subs {
		msg := frame{Topic: sub.topic, Event: "access_token", Payload: encoded, Ref: c.nextRef()}
		if err := conn.WriteJSON(msg); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) dispatch(subs []subscription, msg frame) {
	switch msg.Event {
	case "postgres_changes", "INSERT", "UPDATE", "DELETE":
		event, err := decodeChange(msg.Payload)
		if err != nil {
			c.logger.Warn("realtime payload dropped", logging.Error(err))
			return
		}
		for _, sub := range subs {
			if sub.topic == msg.Topic {
				sub.handler(event)
			}
		}
	case "phx_reply":
		var reply replyPayload
		if err := json.Unmarshal(msg.Payload, &reply); err == nil && reply.Status != "" && reply.Status != "ok" {
			c.logger.Warn("realtime join rejected",
				logging.String("topic", msg.Topic),
				logging.String("status", reply.Status))
		}
	case "phx_error":
		c.logger.Warn("realtime channel error", logging.String("topic", msg.Topic))
	}
}

func (c *Client) nextRef() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refSeq++
	return strconv.Itoa(c.refSeq)
}

// Close tears the connection down. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.conn != nil {
		_ = c.conn.Close()
	}
}
