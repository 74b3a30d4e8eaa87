package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type wsResponse struct {
	ID     *uint64         `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *wsError        `json:"error"`
}

type wsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *wsError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// wsCaller speaks JSON-RPC over a lazily dialed WebSocket connection.
// A failed call drops the connection; the next call dials again.
type wsCaller struct {
	url string

	mu     sync.Mutex
	conn   *websocket.Conn
	nextID uint64
}

func newWSCaller(url string) *wsCaller {
	return &wsCaller{url: url}
}

func (w *wsCaller) call(ctx context.Context, out interface{}, method string, params []interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", w.url, err)
		}
		w.conn = conn
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(requestTimeout)
	}
	w.conn.SetWriteDeadline(deadline)
	w.conn.SetReadDeadline(deadline)

	w.nextID++
	id := w.nextID
	if err := w.conn.WriteJSON(wsRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		w.drop()
		return fmt.Errorf("failed to send request: %w", err)
	}

	for {
		var resp wsResponse
		if err := w.conn.ReadJSON(&resp); err != nil {
			w.drop()
			return fmt.Errorf("failed to read response: %w", err)
		}
		// skip subscription notifications and stale replies
		if resp.ID == nil || *resp.ID != id {
			continue
		}
		if resp.Error != nil {
			return resp.Error
		}
		return json.Unmarshal(resp.Result, out)
	}
}

func (w *wsCaller) drop() {
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
}

func (w *wsCaller) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}
