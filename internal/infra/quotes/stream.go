package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const (
	maxRetries   = 10
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
)

// streamTick is one live quote pushed by the stream provider.
type streamTick struct {
	Event     string  `json:"ev"`
	Symbol    string  `json:"sym"`
	Price     float64 `json:"p"`
	Volume    int64   `json:"v"`
	Timestamp int64   `json:"t"`
}

// StreamWorker maintains a websocket connection to the quote stream and
// forwards live ticks to the callback.
type StreamWorker struct {
	url       string
	key       string
	symbols   []string
	onQuote   func(domain.Quote)
	metrics   *infra.Metrics
	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewStreamWorker creates a live quote worker.
func NewStreamWorker(cfg *infra.Config, metrics *infra.Metrics, onQuote func(domain.Quote)) *StreamWorker {
	return &StreamWorker{
		url:     cfg.API.Quotes.StreamURL,
		key:     cfg.API.Quotes.Key,
		symbols: cfg.API.Quotes.Symbols,
		onQuote: onQuote,
		metrics: metrics,
	}
}

// Connect starts the websocket connection loop.
func (w *StreamWorker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

func (w *StreamWorker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			slog.Warn("quote stream connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			delay := infra.CalculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		} else {
			retryCount = 0
			w.readLoop(ctx)
		}
	}
}

func (w *StreamWorker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := make(http.Header)

	conn, _, err := dialer.DialContext(ctx, w.url, header)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()
	if w.metrics != nil {
		w.metrics.SetStreamConnected(true)
	}

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return err
	}

	slog.Info("Quote stream connected", slog.Int("subs", len(w.symbols)))
	return nil
}

func (w *StreamWorker) subscribe() error {
	msg := map[string]any{
		"action":  "subscribe",
		"key":     w.key,
		"symbols": w.symbols,
	}
	b, _ := json.Marshal(msg)
	return w.threadSafeWrite(websocket.TextMessage, b)
}

func (w *StreamWorker) readLoop(ctx context.Context) {
	defer w.closeConnection()

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-pingTicker.C:
				if err := w.threadSafeWrite(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()
		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			slog.Warn("quote stream read failed", slog.Any("error", err))
			return
		}

		w.handleMessage(data)
	}
}

func (w *StreamWorker) handleMessage(data []byte) {
	var ticks []streamTick
	if err := json.Unmarshal(data, &ticks); err != nil {
		slog.Debug("ignoring non-tick stream message")
		return
	}

	for _, t := range ticks {
		if t.Symbol == "" || t.Price <= 0 {
			continue
		}
		if w.onQuote != nil {
			w.onQuote(domain.Quote{
				Symbol: t.Symbol,
				Price:  decimal.NewFromFloat(t.Price),
				Volume: t.Volume,
				Source: "stream",
				At:     time.UnixMilli(t.Timestamp),
			})
		}
	}
}

func (w *StreamWorker) threadSafeWrite(messageType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.RLock()
	conn := w.conn
	w.mu.RUnlock()
	if conn == nil {
		return domain.NewTransportError("stream write", "not connected", nil)
	}
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteMessage(messageType, data)
}

func (w *StreamWorker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connected = false
	if w.metrics != nil {
		w.metrics.SetStreamConnected(false)
	}
}

// Connected reports whether the stream is currently up.
func (w *StreamWorker) Connected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

// Disconnect stops the worker and closes the connection.
func (w *StreamWorker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
}
