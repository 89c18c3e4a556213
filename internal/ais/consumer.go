package ais

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const streamURL = "wss://stream.aisstream.io/v0/stream"

const maxConsecutiveRetries = 5

// Consumer owns the WebSocket session, the vessel map, and the reconnect
// state machine of spec.md §4.6, started as one cooperative goroutine the
// composition root launches alongside C5/C7/C9.
type Consumer struct {
	APIKey  string
	Bounds  Bounds
	Vessels *VesselMap

	// Dial is overridable for tests; defaults to websocket.DefaultDialer.Dial.
	Dial func(url string) (*websocket.Conn, error)

	halted atomic.Bool
	paused atomic.Bool

	connMu sync.Mutex
	conn   *websocket.Conn
}

func NewConsumer(apiKey string, bounds Bounds) *Consumer {
	c := &Consumer{APIKey: apiKey, Bounds: bounds, Vessels: NewVesselMap()}
	c.Dial = func(url string) (*websocket.Conn, error) {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		return conn, err
	}
	return c
}

// Halted reports whether the consumer gave up after exhausting retries
// (spec.md §4.6, §7 "AIS reconnect exhaustion").
func (c *Consumer) Halted() bool { return c.halted.Load() }

// Paused reports whether the consumer is manually disconnected, backing the
// /api/ais/status and /api/ais/connect|disconnect control endpoints.
func (c *Consumer) Paused() bool { return c.paused.Load() }

// Disconnect manually severs the active connection and suspends
// reconnection until Connect is called. Idempotent.
func (c *Consumer) Disconnect() {
	c.paused.Store(true)
	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connMu.Unlock()
}

// Connect resumes reconnection after a manual Disconnect. Idempotent; a
// no-op if the consumer was never paused.
func (c *Consumer) Connect() {
	c.paused.Store(false)
}

func (c *Consumer) setConn(conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
}

// Run drives the reconnect loop until ctx is canceled or retries are
// exhausted. Exponential backoff 2^attempt seconds, capped at 60s, at most
// maxConsecutiveRetries consecutive failures before halting; a successful
// receive resets the attempt counter.
func (c *Consumer) Run(ctx context.Context) {
	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if c.paused.Load() {
			if !sleepCtx(ctx, time.Second) {
				return
			}
			continue
		}

		if attempt >= maxConsecutiveRetries {
			log.Error().Msg("ais: reconnect exhausted, halting consumer")
			c.halted.Store(true)
			return
		}

		conn, err := c.Dial(streamURL)
		if err != nil {
			log.Error().Err(err).Int("attempt", attempt+1).Msg("ais: dial failed")
			attempt++
			if !sleepCtx(ctx, backoff(attempt)) {
				return
			}
			continue
		}

		sub := buildSubscription(c.APIKey, c.Bounds)
		if err := conn.WriteJSON(sub); err != nil {
			log.Error().Err(err).Msg("ais: subscribe failed")
			conn.Close()
			attempt++
			if !sleepCtx(ctx, backoff(attempt)) {
				return
			}
			continue
		}
		log.Info().Msg("ais: connected and subscribed")
		c.setConn(conn)

		closed := c.readLoop(ctx, conn, &attempt)
		c.setConn(nil)
		conn.Close()
		if !closed {
			return // ctx canceled
		}
		if c.paused.Load() {
			continue // manual disconnect: wait instead of backing off
		}
		attempt++
		if !sleepCtx(ctx, backoff(attempt)) {
			return
		}
	}
}

// readLoop consumes messages until the connection closes or ctx is done.
// Returns true if it exited due to connection close (caller should retry),
// false if it exited due to context cancellation (caller should stop).
// Every successfully received message resets *attempt to zero.
func (c *Consumer) readLoop(ctx context.Context, conn *websocket.Conn, attempt *int) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		_, body, err := conn.ReadMessage()
		if err != nil {
			log.Warn().Err(err).Msg("ais: connection closed")
			return true
		}
		*attempt = 0 // a successful receive resets the backoff counter

		var env inboundEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			log.Warn().Err(err).Msg("ais: json decode error, skipping message")
			continue
		}
		if len(env.Message) == 0 {
			continue
		}
		var pos positionMessage
		if err := json.Unmarshal(env.Message, &pos); err != nil {
			log.Warn().Err(err).Msg("ais: message decode error, skipping message")
			continue
		}
		if pos.UserID == nil {
			continue
		}
		c.applyPosition(*pos.UserID, pos)
	}
}

func (c *Consumer) applyPosition(mmsi int64, pos positionMessage) {
	v := Vessel{
		MMSI:      mmsi,
		Lat:       pos.Latitude,
		Lon:       pos.Longitude,
		SOG:       pos.SpeedOverGround,
		COG:       pos.CourseOverGround,
		Heading:   pos.TrueHeading,
		NavStatus: pos.NavigationalStatus,
		TypeCode:  pos.Type,
		Name:      pos.ShipName,
		Callsign:  pos.CallSign,
		Destination: pos.Destination,
	}
	if pos.Dimension != nil {
		length := pos.Dimension.A + pos.Dimension.B
		width := pos.Dimension.C + pos.Dimension.D
		v.Length = &length
		v.Width = &width
	}
	c.Vessels.Merge(mmsi, v, time.Now())
}

func backoff(attempt int) time.Duration {
	seconds := math.Pow(2, float64(attempt))
	if seconds > 60 {
		seconds = 60
	}
	return time.Duration(seconds) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Janitor evicts stale vessels at least once per minute, per spec.md §4.6.
func (c *Consumer) Janitor(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := c.Vessels.EvictStale(time.Now(), ttl)
			if n > 0 {
				log.Debug().Int("evicted", n).Msg("ais: janitor evicted stale vessels")
			}
		}
	}
}
