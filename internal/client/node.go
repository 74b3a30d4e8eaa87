package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/coldstack/privatechain-deploy/internal/common"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

const (
	// systemNumberKey is Twox128("System") ++ Twox128("Number"): the current block height.
	systemNumberKey = "0x26aa394eea5630e07c48ae0c9558cef702a5c1b19ab7a04f536c519aca4983ac"

	methodGetStorage = "state_getStorage"
	requestTimeout   = 15 * time.Second
)

// NodeClient queries a running node
type NodeClient interface {
	// BlockHeight returns the current chain height (System.Number).
	BlockHeight(ctx context.Context) (uint64, error)
	Close() error
}

// caller performs a single JSON-RPC call and decodes the result into out.
type caller interface {
	call(ctx context.Context, out interface{}, method string, params []interface{}) error
	close() error
}

// New creates a node client for nodeURL.
// http(s) URLs use JSON-RPC over HTTP, ws(s) URLs keep one WebSocket connection.
func New(nodeURL string) (NodeClient, error) {
	u, err := url.Parse(nodeURL)
	if err != nil {
		return nil, fmt.Errorf("invalid node URL: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		return &nodeClient{rpc: newHTTPCaller(nodeURL)}, nil
	case "ws", "wss":
		return &nodeClient{rpc: newWSCaller(nodeURL)}, nil
	default:
		return nil, fmt.Errorf("unsupported node URL scheme %q: use http, https, ws or wss", u.Scheme)
	}
}

type nodeClient struct {
	rpc caller
}

// BlockHeight implements NodeClient
func (c *nodeClient) BlockHeight(ctx context.Context) (uint64, error) {
	var value *string
	if err := c.rpc.call(ctx, &value, methodGetStorage, []interface{}{systemNumberKey}); err != nil {
		return 0, fmt.Errorf("failed to query block height: %w", err)
	}
	// unset storage holds the default: block 0
	if value == nil {
		return 0, nil
	}
	return common.DecodeStorageUint(*value)
}

// Close implements NodeClient
func (c *nodeClient) Close() error {
	return c.rpc.close()
}

type httpCaller struct {
	rpcClient jsonrpc.RPCClient
}

func newHTTPCaller(endpoint string) *httpCaller {
	return &httpCaller{
		rpcClient: jsonrpc.NewClientWithOpts(endpoint, &jsonrpc.RPCClientOpts{
			HTTPClient: &http.Client{Timeout: requestTimeout},
		}),
	}
}

func (h *httpCaller) call(ctx context.Context, out interface{}, method string, params []interface{}) error {
	return h.rpcClient.CallForInto(ctx, out, method, params)
}

func (h *httpCaller) close() error {
	return nil
}
