// Package secret implements a typed client for the Secret Network LCD API:
// account lookup, smart contract queries, and contract execution with
// hand-assembled SIGN_MODE_DIRECT transactions.
package secret

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/scrtlabs/trading-middleware/pkg/config"
)

// Client talks to a Secret Network LCD endpoint over REST.
type Client struct {
	baseURL    string
	chainID    string
	gasLimit   uint64
	gasPrice   float64
	feeDenom   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an LCD client from configuration
func NewClient(cfg *config.SecretConfig, opts ...Option) *Client {
	s := applyOptions(opts)

	httpClient := s.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.LCDURL, "/"),
		chainID:    cfg.ChainID,
		gasLimit:   cfg.GasLimit,
		gasPrice:   cfg.GasPrice,
		feeDenom:   cfg.FeeDenom,
		httpClient: httpClient,
		logger:     s.logger,
	}
}

// ChainID returns the configured chain identifier
func (c *Client) ChainID() string {
	return c.chainID
}

type accountResponse struct {
	Account struct {
		AccountNumber string `json:"account_number"`
		Sequence      string `json:"sequence"`
		BaseAccount   *struct {
			AccountNumber string `json:"account_number"`
			Sequence      string `json:"sequence"`
		} `json:"base_account"`
	} `json:"account"`
}

// Account fetches the account number and sequence for an address. Vesting
// and module accounts nest the numbers under base_account.
func (c *Client) Account(ctx context.Context, address string) (*Account, error) {
	var resp accountResponse
	path := "/cosmos/auth/v1beta1/accounts/" + url.PathEscape(address)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch account %s: %w", address, err)
	}

	number, sequence := resp.Account.AccountNumber, resp.Account.Sequence
	if resp.Account.BaseAccount != nil {
		number, sequence = resp.Account.BaseAccount.AccountNumber, resp.Account.BaseAccount.Sequence
	}

	acct := &Account{}
	var err error
	if acct.AccountNumber, err = strconv.ParseUint(number, 10, 64); err != nil {
		return nil, fmt.Errorf("bad account number %q: %w", number, err)
	}
	if acct.Sequence, err = strconv.ParseUint(sequence, 10, 64); err != nil {
		return nil, fmt.Errorf("bad sequence %q: %w", sequence, err)
	}
	return acct, nil
}

// SmartQuery runs a read-only contract query and decodes the JSON answer
// into result.
func (c *Client) SmartQuery(ctx context.Context, contract string, query, result any) error {
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}

	path := fmt.Sprintf("/compute/v1beta1/query/%s?query=%s",
		url.PathEscape(contract),
		url.QueryEscape(base64.StdEncoding.EncodeToString(queryJSON)),
	)

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.get(ctx, path, &envelope); err != nil {
		return fmt.Errorf("contract query failed: %w", err)
	}
	if len(envelope.Data) == 0 {
		return fmt.Errorf("contract query returned no data")
	}

	// Some gateways base64-wrap the payload, others return plain JSON
	raw := envelope.Data
	var b64 string
	if err := json.Unmarshal(raw, &b64); err == nil {
		decoded, decErr := base64.StdEncoding.DecodeString(b64)
		if decErr != nil {
			return fmt.Errorf("bad query response encoding: %w", decErr)
		}
		raw = decoded
	}

	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("failed to decode query response: %w", err)
	}
	return nil
}

type broadcastRequest struct {
	TxBytes string `json:"tx_bytes"`
	Mode    string `json:"mode"`
}

type txResponseEnvelope struct {
	TxResponse *TxResponse `json:"tx_response"`
}

// Execute signs and broadcasts a contract execution, returning the sync
// broadcast result. A non-zero code in the response means the chain
// rejected the transaction; that is not an error here.
func (c *Client) Execute(ctx context.Context, wallet *Wallet, exec *ExecuteMsg) (*TxResponse, error) {
	acct, err := c.Account(ctx, wallet.Address())
	if err != nil {
		return nil, err
	}

	fee := Coin{Denom: c.feeDenom, Amount: FeeAmount(c.gasLimit, c.gasPrice)}
	txBytes, err := buildSignedTx(wallet, exec, acct, c.chainID, c.gasLimit, fee)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("broadcasting transaction",
		zap.String("contract", exec.Contract),
		zap.Uint64("sequence", acct.Sequence),
		zap.Int("tx_size", len(txBytes)))

	req := broadcastRequest{
		TxBytes: base64.StdEncoding.EncodeToString(txBytes),
		Mode:    "BROADCAST_MODE_SYNC",
	}
	var resp txResponseEnvelope
	if err := c.post(ctx, "/cosmos/tx/v1beta1/txs", req, &resp); err != nil {
		return nil, fmt.Errorf("broadcast failed: %w", err)
	}
	if resp.TxResponse == nil {
		return nil, fmt.Errorf("broadcast returned no tx_response")
	}
	return resp.TxResponse, nil
}

// GetTx looks up a transaction by hash. Returns an error while the
// transaction is not yet indexed.
func (c *Client) GetTx(ctx context.Context, hash string) (*TxResponse, error) {
	var resp txResponseEnvelope
	path := "/cosmos/tx/v1beta1/txs/" + url.PathEscape(hash)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch tx %s: %w", hash, err)
	}
	if resp.TxResponse == nil {
		return nil, fmt.Errorf("tx %s not found", hash)
	}
	return resp.TxResponse, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lcd returned %d: %s", resp.StatusCode, truncate(string(data), 256))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
