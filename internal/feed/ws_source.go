package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gorilla/websocket"

	"avax-launch-indexer/internal/chain"
	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/observability"
)

// WSConfig configures websocket feed behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// Buffer is the event channel capacity.
	Buffer int
}

// DefaultWSConfig returns default websocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		Buffer:            10000,
	}
}

// WSSource subscribes to factory contract logs over an Avalanche C-Chain
// websocket endpoint and decodes them into domain events. It reconnects with
// exponential backoff and resubscribes after every reconnect; redelivered
// logs after a reconnect are handled downstream by the event log's
// idempotency key, not here.
type WSSource struct {
	endpoint string
	factory  string
	config   WSConfig
	decoder  *chain.Decoder
	metrics  *observability.Metrics
	logger   *log.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	events chan *domain.Event
	done   chan struct{}
	wg     sync.WaitGroup

	// pending holds subscription notifications that interleaved with an RPC
	// response read. Only touched from the read goroutine, so order through
	// the decoder is preserved.
	pending [][]byte

	// blockTimes caches header timestamps so one block's worth of logs costs
	// one eth_getBlockByNumber call.
	blockTimes   map[uint64]int64
	blockTimesMu sync.Mutex
}

// WSOption configures a WSSource.
type WSOption func(*WSSource)

// WithWSConfig overrides the default websocket configuration.
func WithWSConfig(cfg WSConfig) WSOption {
	return func(s *WSSource) { s.config = cfg }
}

// WithWSMetrics attaches feed metrics.
func WithWSMetrics(m *observability.Metrics) WSOption {
	return func(s *WSSource) { s.metrics = m }
}

// WithWSLogger attaches a logger.
func WithWSLogger(l *log.Logger) WSOption {
	return func(s *WSSource) { s.logger = l }
}

// NewWSSource creates a live feed over the given websocket endpoint,
// filtered to the launchpad factory contract address.
func NewWSSource(endpoint, factoryAddress string, opts ...WSOption) (*WSSource, error) {
	decoder, err := chain.NewDecoder()
	if err != nil {
		return nil, fmt.Errorf("build log decoder: %w", err)
	}

	s := &WSSource{
		endpoint:   endpoint,
		factory:    factoryAddress,
		config:     DefaultWSConfig(),
		decoder:    decoder,
		done:       make(chan struct{}),
		blockTimes: make(map[uint64]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = make(chan *domain.Event, s.config.Buffer)
	return s, nil
}

// Compile-time interface check.
var _ Source = (*WSSource)(nil)

// Events connects, subscribes and returns the event channel.
func (s *WSSource) Events(ctx context.Context) (<-chan *domain.Event, error) {
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	if err := s.subscribeLogs(); err != nil {
		s.closeConn()
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()
	s.wg.Add(1)
	go s.pingLoop()

	return s.events, nil
}

// Close stops delivery and closes the event channel.
func (s *WSSource) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)
	s.closeConn()
	s.wg.Wait()
	close(s.events)
	return nil
}

func (s *WSSource) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	s.conn = conn
	return nil
}

func (s *WSSource) closeConn() {
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()
}

// subscribeLogs issues eth_subscribe for the factory's logs. The response is
// consumed inline because nothing else reads the socket before readLoop
// starts (and reconnect pauses it).
func (s *WSSource) subscribeLogs() error {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      s.requestID.Add(1),
		Method:  "eth_subscribe",
		Params:  []interface{}{"logs", map[string]interface{}{"address": s.factory}},
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return errors.New("not connected")
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}

	s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	var resp rpcResponse
	if err := s.conn.ReadJSON(&resp); err != nil {
		return fmt.Errorf("read subscribe response: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("subscribe rejected: %s", resp.Error.Message)
	}
	return nil
}

func (s *WSSource) readLoop() {
	defer s.wg.Done()

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		if len(s.pending) > 0 {
			message := s.pending[0]
			s.pending = s.pending[1:]
			s.handleMessage(message)
			continue
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			if !s.reconnect(reconnectDelay) {
				return
			}
			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > s.config.MaxReconnectDelay {
				reconnectDelay = s.config.MaxReconnectDelay
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.logf("read failed, reconnecting: %v", err)
			s.closeConn()
			continue
		}

		reconnectDelay = s.config.ReconnectDelay
		s.handleMessage(message)
	}
}

// reconnect dials and resubscribes after a delay. Returns false on shutdown.
func (s *WSSource) reconnect(delay time.Duration) bool {
	select {
	case <-s.done:
		return false
	case <-time.After(delay):
	}

	if s.metrics != nil {
		s.metrics.FeedReconnects.Inc()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		s.logf("reconnect failed: %v", err)
		return true
	}
	if err := s.subscribeLogs(); err != nil {
		s.logf("resubscribe failed: %v", err)
		s.closeConn()
	}
	return true
}

func (s *WSSource) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				// Write failure surfaces on the next read, which reconnects.
				s.conn.WriteMessage(websocket.PingMessage, nil)
			}
			s.connMu.Unlock()
		}
	}
}

func (s *WSSource) handleMessage(message []byte) {
	var notif subscriptionNotification
	if err := json.Unmarshal(message, &notif); err != nil || notif.Method != "eth_subscription" {
		return
	}

	if s.metrics != nil {
		s.metrics.FeedMessages.Inc()
	}

	var lg types.Log
	if err := json.Unmarshal(notif.Params.Result, &lg); err != nil {
		s.decodeError("unmarshal log: %v", err)
		return
	}
	if lg.Removed {
		// Reorged-out log. The engine has no rollback path, so skip and let
		// the canonical redelivery collide on the idempotency key.
		return
	}

	blockTime, err := s.blockTimestamp(lg.BlockNumber)
	if err != nil {
		s.decodeError("block timestamp for %d: %v", lg.BlockNumber, err)
		blockTime = time.Now().Unix()
	}

	ev, err := s.decoder.DecodeLog(&lg, blockTime)
	if err != nil {
		if !errors.Is(err, chain.ErrUnknownTopic) {
			s.decodeError("decode log %s: %v", lg.TxHash.Hex(), err)
		}
		return
	}

	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// blockTimestamp resolves a block's timestamp with a small cache. The call
// rides the same websocket as the subscription.
func (s *WSSource) blockTimestamp(blockNumber uint64) (int64, error) {
	s.blockTimesMu.Lock()
	if ts, ok := s.blockTimes[blockNumber]; ok {
		s.blockTimesMu.Unlock()
		return ts, nil
	}
	s.blockTimesMu.Unlock()

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      s.requestID.Add(1),
		Method:  "eth_getBlockByNumber",
		Params:  []interface{}{hexutil.EncodeUint64(blockNumber), false},
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return 0, errors.New("not connected")
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteJSON(req); err != nil {
		return 0, fmt.Errorf("write getBlockByNumber: %w", err)
	}

	// Notifications may interleave before the response arrives.
	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			return 0, fmt.Errorf("read getBlockByNumber response: %w", err)
		}

		var resp rpcResponse
		if err := json.Unmarshal(message, &resp); err == nil && resp.ID == req.ID {
			if resp.Error != nil {
				return 0, fmt.Errorf("getBlockByNumber: %s", resp.Error.Message)
			}
			var header struct {
				Timestamp hexutil.Uint64 `json:"timestamp"`
			}
			if err := json.Unmarshal(resp.Result, &header); err != nil {
				return 0, fmt.Errorf("unmarshal header: %w", err)
			}
			ts := int64(header.Timestamp)

			s.blockTimesMu.Lock()
			s.blockTimes[blockNumber] = ts
			if len(s.blockTimes) > 1024 {
				for n := range s.blockTimes {
					if n < blockNumber-256 {
						delete(s.blockTimes, n)
					}
				}
			}
			s.blockTimesMu.Unlock()
			return ts, nil
		}

		// Not our response: queue it for the read loop so event order is kept.
		s.pending = append(s.pending, message)
	}
}

func (s *WSSource) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

func (s *WSSource) decodeError(format string, args ...interface{}) {
	s.logf(format, args...)
	if s.metrics != nil {
		s.metrics.FeedDecodeErrors.Inc()
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type subscriptionNotification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
}
