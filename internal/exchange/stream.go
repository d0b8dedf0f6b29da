package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	boterrors "github.com/vlemaire/triple-rsi-bot/internal/errors"
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

const (
	bybitPublicSpotWS   = "wss://stream.bybit.com/v5/public/spot"
	bybitPublicLinearWS = "wss://stream.bybit.com/v5/public/linear"

	pingInterval     = 20 * time.Second
	reconnectBackoff = 5 * time.Second
	maxReconnects    = 10
)

// KlineStream streams closed kline bars from the Bybit public
// websocket. Only confirmed (closed) candles are forwarded; partial
// updates are dropped.
type KlineStream struct {
	url      string
	topic    string
	symbol   string
	interval string

	conn   *websocket.Conn
	bars   chan types.OHLCV
	errs   chan error
	mu     sync.Mutex
	closed bool
}

// NewKlineStream creates a stream for a symbol and interval ("1m",
// "15m", "1h", ...). Category selects the spot or linear endpoint.
func NewKlineStream(symbol, interval, category string) (*KlineStream, error) {
	wsInterval, err := wsKlineInterval(interval)
	if err != nil {
		return nil, err
	}

	url := bybitPublicSpotWS
	if category == "linear" {
		url = bybitPublicLinearWS
	}

	return &KlineStream{
		url:      url,
		topic:    fmt.Sprintf("kline.%s.%s", wsInterval, symbol),
		symbol:   symbol,
		interval: interval,
		bars:     make(chan types.OHLCV, 64),
		errs:     make(chan error, 1),
	}, nil
}

// wsKlineInterval maps interval strings to the websocket topic form.
func wsKlineInterval(interval string) (string, error) {
	switch strings.ToLower(interval) {
	case "1m":
		return "1", nil
	case "3m":
		return "3", nil
	case "5m":
		return "5", nil
	case "15m":
		return "15", nil
	case "30m":
		return "30", nil
	case "1h":
		return "60", nil
	case "4h":
		return "240", nil
	case "1d":
		return "D", nil
	default:
		return "", boterrors.NewConfigError("stream", "unsupported interval %q", interval)
	}
}

// Start connects, subscribes and pumps bars until the context ends.
// Read failures trigger reconnection with backoff; once the retry
// attempts are exhausted the error channel receives the last failure.
func (s *KlineStream) Start(ctx context.Context) error {
	if err := s.connect(); err != nil {
		return boterrors.WrapNetworkError("stream", err)
	}

	go s.pingLoop(ctx)
	go s.readLoop(ctx)
	return nil
}

func (s *KlineStream) connect() error {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(s.url, nil)
	if err != nil {
		return err
	}

	sub := map[string]interface{}{
		"op":   "subscribe",
		"args": []string{s.topic},
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	log.Printf("Subscribed to stream: %s", s.topic)
	return nil
}

func (s *KlineStream) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			conn := s.conn
			s.mu.Unlock()
			if conn == nil {
				continue
			}
			if err := conn.WriteJSON(map[string]string{"op": "ping"}); err != nil {
				log.Printf("Failed to send ping: %v", err)
			}
		}
	}
}

func (s *KlineStream) readLoop(ctx context.Context) {
	defer close(s.bars)
	defer close(s.errs)

	reconnects := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.mu.Lock()
		conn := s.conn
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || s.isClosed() {
				return
			}
			reconnects++
			if reconnects > maxReconnects {
				s.errs <- boterrors.WrapNetworkError("stream", err)
				return
			}
			log.Printf("WebSocket read error: %v, reconnecting (%d/%d)", err, reconnects, maxReconnects)
			time.Sleep(reconnectBackoff)
			if err := s.connect(); err != nil {
				log.Printf("Reconnection failed: %v", err)
			}
			continue
		}
		reconnects = 0

		if bar, ok := s.parseKline(message); ok {
			select {
			case s.bars <- bar:
			case <-ctx.Done():
				return
			}
		}
	}
}

type klineMessage struct {
	Topic string `json:"topic"`
	Data  []struct {
		Start   int64  `json:"start"`
		Open    string `json:"open"`
		High    string `json:"high"`
		Low     string `json:"low"`
		Close   string `json:"close"`
		Volume  string `json:"volume"`
		Confirm bool   `json:"confirm"`
	} `json:"data"`
}

// parseKline extracts a closed bar from a raw websocket message.
// Subscription acks, pongs and unconfirmed candles return false.
func (s *KlineStream) parseKline(message []byte) (types.OHLCV, bool) {
	var msg klineMessage
	if err := json.Unmarshal(message, &msg); err != nil || msg.Topic != s.topic {
		return types.OHLCV{}, false
	}

	for _, k := range msg.Data {
		if !k.Confirm {
			continue
		}
		bar, err := klineToBar(k.Start, k.Open, k.High, k.Low, k.Close, k.Volume)
		if err != nil {
			log.Printf("Malformed kline data dropped: %v", err)
			continue
		}
		return bar, true
	}
	return types.OHLCV{}, false
}

func klineToBar(start int64, open, high, low, close, volume string) (types.OHLCV, error) {
	bar := types.OHLCV{Timestamp: time.UnixMilli(start).UTC()}
	for _, f := range []struct {
		raw string
		dst *float64
	}{
		{open, &bar.Open}, {high, &bar.High}, {low, &bar.Low},
		{close, &bar.Close}, {volume, &bar.Volume},
	} {
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return types.OHLCV{}, err
		}
		*f.dst = v
	}
	return bar, nil
}

// Bars returns the closed-bar channel.
func (s *KlineStream) Bars() <-chan types.OHLCV {
	return s.bars
}

// Errors returns the stream failure channel.
func (s *KlineStream) Errors() <-chan error {
	return s.errs
}

func (s *KlineStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close shuts the stream down.
func (s *KlineStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
