// Package client is a minimal Ethereum JSON-RPC client covering the calls
// the extraction pipeline needs.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/manifest-network/feescope/internal/models"
)

// ErrBlockNotFound is returned when the node has no block at the requested
// height.
var ErrBlockNotFound = errors.New("block not found")

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcBlock struct {
	Number    string `json:"number"`
	GasUsed   string `json:"gasUsed"`
	GasLimit  string `json:"gasLimit"`
	Timestamp string `json:"timestamp"`
	Hash      string `json:"hash"`
}

// Client talks to a single JSON-RPC endpoint. Safe for concurrent use.
type Client struct {
	http *resty.Client
}

// New creates a client for the given RPC URL.
func New(rpcURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(rpcURL).
			SetTimeout(10 * time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	if params == nil {
		params = []any{}
	}
	var rpcResp rpcResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1}).
		SetResult(&rpcResp).
		Post("")
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s returned HTTP %d", method, resp.StatusCode())
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s returned RPC error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("decoding %s result: %w", method, err)
		}
	}
	return nil
}

// LatestBlockNumber returns the node's current head height.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	var hex string
	if err := c.call(ctx, "eth_blockNumber", nil, &hex); err != nil {
		return 0, err
	}
	return parseHexUint64(hex)
}

// BlockByNumber fetches one block's gas accounting without transaction
// bodies. Returns ErrBlockNotFound for heights the node does not have.
func (c *Client) BlockByNumber(ctx context.Context, number uint64) (*models.BlockRecord, error) {
	var block *rpcBlock
	params := []any{fmt.Sprintf("0x%x", number), false}
	if err := c.call(ctx, "eth_getBlockByNumber", params, &block); err != nil {
		return nil, err
	}
	if block == nil || block.Number == "" {
		return nil, fmt.Errorf("block %d: %w", number, ErrBlockNotFound)
	}

	num, err := parseHexUint64(block.Number)
	if err != nil {
		return nil, errors.WithMessagef(err, "block %d: parsing number", number)
	}
	gasUsed, err := parseHexUint64(block.GasUsed)
	if err != nil {
		return nil, errors.WithMessagef(err, "block %d: parsing gasUsed", number)
	}
	gasLimit, err := parseHexUint64(block.GasLimit)
	if err != nil {
		return nil, errors.WithMessagef(err, "block %d: parsing gasLimit", number)
	}
	timestamp, err := parseHexUint64(block.Timestamp)
	if err != nil {
		return nil, errors.WithMessagef(err, "block %d: parsing timestamp", number)
	}

	return &models.BlockRecord{
		Number:    num,
		GasUsed:   gasUsed,
		GasLimit:  gasLimit,
		Timestamp: timestamp,
		Hash:      block.Hash,
	}, nil
}

// SuggestGasTipCap returns the node's priority-fee suggestion in wei.
func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	var hex string
	if err := c.call(ctx, "eth_maxPriorityFeePerGas", nil, &hex); err != nil {
		return nil, err
	}
	return parseHexBig(hex)
}

func parseHexBig(s string) (*big.Int, error) {
	if !strings.HasPrefix(s, "0x") {
		return nil, errors.Errorf("hex quantity %q missing 0x prefix", s)
	}
	v, ok := new(big.Int).SetString(s[2:], 16)
	if !ok {
		return nil, errors.Errorf("invalid hex quantity %q", s)
	}
	return v, nil
}

func parseHexUint64(s string) (uint64, error) {
	v, err := parseHexBig(s)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, errors.Errorf("hex quantity %q overflows uint64", s)
	}
	return v.Uint64(), nil
}
