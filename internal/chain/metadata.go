package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mr-tron/base58"
)

// TokenMetadata holds the ERC20 identity of a launched token.
type TokenMetadata struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply float64 // whole tokens
}

// erc20ABI covers the read-only metadata surface of the token contracts.
const erc20ABI = `[
  {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

// SynthesizeMetadata derives a deterministic fallback name and symbol from a
// token address, for tokens whose metadata calls revert. The symbol is the
// first six base58 characters of the address bytes, uppercased, so two tokens
// never collide unless their addresses share a prefix.
func SynthesizeMetadata(address string) TokenMetadata {
	raw := common.HexToAddress(address).Bytes()
	encoded := base58.Encode(raw)
	if len(encoded) > 6 {
		encoded = encoded[:6]
	}
	symbol := strings.ToUpper(encoded)
	return TokenMetadata{
		Name:     "Token " + symbol,
		Symbol:   symbol,
		Decimals: 18,
	}
}

// Default RPC client configuration.
const (
	DefaultTimeout    = 15 * time.Second
	DefaultMaxRetries = 2
	DefaultRetryDelay = 500 * time.Millisecond
)

// RPCMetadataSource resolves token metadata over HTTP JSON-RPC eth_call.
// Reverted calls fall back to SynthesizeMetadata rather than failing: a token
// with broken metadata is still a token worth indexing.
type RPCMetadataSource struct {
	endpoint   string
	client     *http.Client
	abi        abi.ABI
	maxRetries int
	retryDelay time.Duration
	requestID  atomic.Uint64
}

// MetadataOption configures RPCMetadataSource.
type MetadataOption func(*RPCMetadataSource)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) MetadataOption {
	return func(s *RPCMetadataSource) { s.client = client }
}

// WithMaxRetries sets maximum retry attempts per call.
func WithMaxRetries(n int) MetadataOption {
	return func(s *RPCMetadataSource) { s.maxRetries = n }
}

// NewRPCMetadataSource creates a metadata source against an Avalanche C-Chain
// JSON-RPC endpoint.
func NewRPCMetadataSource(endpoint string, opts ...MetadataOption) (*RPCMetadataSource, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	s := &RPCMetadataSource{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: DefaultTimeout},
		abi:        parsed,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TokenMetadata resolves name/symbol/decimals/totalSupply for a token
// contract. Individual reverted calls degrade to synthesized values.
func (s *RPCMetadataSource) TokenMetadata(ctx context.Context, address string) (TokenMetadata, error) {
	meta := SynthesizeMetadata(address)

	name, err := s.callString(ctx, address, "name")
	if err != nil {
		if !isRevert(err) {
			return meta, err
		}
	} else if name != "" {
		meta.Name = name
	}

	symbol, err := s.callString(ctx, address, "symbol")
	if err != nil {
		if !isRevert(err) {
			return meta, err
		}
	} else if symbol != "" {
		meta.Symbol = symbol
	}

	if dec, err := s.callUint(ctx, address, "decimals"); err == nil {
		meta.Decimals = uint8(dec.Uint64())
	} else if !isRevert(err) {
		return meta, err
	}

	if supply, err := s.callUint(ctx, address, "totalSupply"); err == nil {
		meta.TotalSupply = FromBaseUnit(supply)
	} else if !isRevert(err) {
		return meta, err
	}

	return meta, nil
}

func (s *RPCMetadataSource) callString(ctx context.Context, address, method string) (string, error) {
	out, err := s.ethCall(ctx, address, method)
	if err != nil {
		return "", err
	}
	var result string
	if err := s.abi.UnpackIntoInterface(&result, method, out); err != nil {
		return "", fmt.Errorf("unpack %s: %w", method, errRevert)
	}
	return strings.TrimSpace(result), nil
}

func (s *RPCMetadataSource) callUint(ctx context.Context, address, method string) (*big.Int, error) {
	out, err := s.ethCall(ctx, address, method)
	if err != nil {
		return nil, err
	}
	var result *big.Int
	if err := s.abi.UnpackIntoInterface(&result, method, out); err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, errRevert)
	}
	return result, nil
}

// errRevert marks an on-chain revert or undecodable return, as opposed to a
// transport failure.
var errRevert = fmt.Errorf("execution reverted")

func isRevert(err error) bool {
	return err != nil && strings.Contains(err.Error(), "revert")
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *RPCMetadataSource) ethCall(ctx context.Context, address, method string) ([]byte, error) {
	data, err := s.abi.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	params := []interface{}{
		map[string]string{
			"to":   common.HexToAddress(address).Hex(),
			"data": hexutil.Encode(data),
		},
		"latest",
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}

		out, err := s.doCall(ctx, params)
		if err == nil || isRevert(err) {
			return out, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *RPCMetadataSource) doCall(ctx context.Context, params []interface{}) ([]byte, error) {
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      s.requestID.Add(1),
		Method:  "eth_call",
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eth_call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eth_call: status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		if strings.Contains(strings.ToLower(rpcResp.Error.Message), "revert") {
			return nil, errRevert
		}
		return nil, fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	var hexOut string
	if err := json.Unmarshal(rpcResp.Result, &hexOut); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	out, err := hexutil.Decode(hexOut)
	if err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	// An empty return from a contract without the method behaves like a revert.
	if len(out) == 0 {
		return nil, errRevert
	}
	return out, nil
}
