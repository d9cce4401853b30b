// Package arweave implements the decentralized memory mirror against an
// arweave-storage-service gateway: authenticated quick uploads of
// conversation snapshots and tag-filtered retrieval.
package arweave

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scrtlabs/trading-middleware/pkg/memory"
	"github.com/scrtlabs/trading-middleware/pkg/secret"
)

// Tag names used to mark and find memory uploads
const (
	tagContentType = "Content-Type"
	tagUserID      = "User-ID"
	tagType        = "Type"

	typeMemory = "memory"
)

// ClientConfig configures the storage gateway client. Zero values are
// filled in by defaults.Set.
type ClientConfig struct {
	GatewayURL     string
	AppName        string `default:"secret-trading-agent"`
	PrivateKeyHex  string
	TimeoutSeconds int `default:"30"`
	PageLimit      int `default:"1000"`
}

// Client uploads and retrieves conversation snapshots. It logs in lazily on
// first use and reuses the session token afterwards.
type Client struct {
	cfg        ClientConfig
	wallet     *secret.Wallet
	httpClient *http.Client
	logger     *zap.Logger

	loginOnce sync.Once
	loginErr  error
	token     string
}

// NewClient creates a storage gateway client. The private key signs the
// login challenge; uploads are paid from the associated account.
func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply client defaults: %w", err)
	}
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("storage gateway URL is required")
	}

	wallet, err := secret.NewWalletFromHex(cfg.PrivateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid storage key: %w", err)
	}

	return &Client{
		cfg:        cfg,
		wallet:     wallet,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger:     logger,
	}, nil
}

type loginRequest struct {
	AppName   string `json:"app_name"`
	Address   string `json:"address"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// login authenticates against the gateway by signing a timestamped
// challenge with the storage key. Runs once per client.
func (c *Client) login(ctx context.Context) error {
	c.loginOnce.Do(func() {
		now := time.Now().UnixMilli()
		challenge := fmt.Sprintf("%s:%d", c.cfg.AppName, now)
		sig, err := c.wallet.Sign([]byte(challenge))
		if err != nil {
			c.loginErr = fmt.Errorf("failed to sign login challenge: %w", err)
			return
		}

		req := loginRequest{
			AppName:   c.cfg.AppName,
			Address:   c.wallet.Address(),
			Timestamp: now,
			Signature: base64.StdEncoding.EncodeToString(sig),
		}
		var resp loginResponse
		if err := c.do(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
			c.loginErr = fmt.Errorf("%w: %v", memory.ErrMirrorUnavailable, err)
			return
		}
		if resp.Token == "" {
			c.loginErr = fmt.Errorf("%w: login returned no token", memory.ErrMirrorUnavailable)
			return
		}

		c.token = resp.Token
		c.logger.Info("storage gateway login succeeded",
			zap.String("app", c.cfg.AppName),
			zap.String("address", c.wallet.Address()))
	})
	return c.loginErr
}

type uploadTag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type quickUploadRequest struct {
	Name        string      `json:"name"`
	ContentType string      `json:"content_type"`
	Data        string      `json:"data"` // base64
	Tags        []uploadTag `json:"tags"`
	Visibility  string      `json:"visibility"`
}

type quickUploadResponse struct {
	ID          string `json:"id"`
	ArweaveTxID string `json:"arweave_tx_id"`
}

// snapshot is the JSON blob stored per upload: the wallet's complete
// conversation at the time of the write.
type snapshot struct {
	UserID  string         `json:"user_id"`
	Entries []snapshotItem `json:"entries"`
}

type snapshotItem struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Save uploads a full conversation snapshot tagged with the wallet address
// and returns the upload's Arweave transaction id.
func (c *Client) Save(ctx context.Context, walletAddress string, entries []*memory.Entry) (string, error) {
	if err := c.login(ctx); err != nil {
		return "", err
	}

	snap := snapshot{UserID: walletAddress, Entries: make([]snapshotItem, len(entries))}
	for i, entry := range entries {
		snap.Entries[i] = snapshotItem{
			ID:        entry.ID,
			Role:      entry.Role,
			Content:   entry.Content,
			CreatedAt: entry.CreatedAt,
		}
	}
	blob, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	req := quickUploadRequest{
		Name:        fmt.Sprintf("%s-%d-%s.json", walletAddress, time.Now().UnixMilli(), uuid.NewString()),
		ContentType: "application/json",
		Data:        base64.StdEncoding.EncodeToString(blob),
		Tags: []uploadTag{
			{Name: tagContentType, Value: "application/json"},
			{Name: tagUserID, Value: walletAddress},
			{Name: tagType, Value: typeMemory},
		},
		Visibility: "private",
	}

	var resp quickUploadResponse
	if err := c.do(ctx, http.MethodPost, "/upload/quick", req, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", memory.ErrMirrorUnavailable, err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: upload returned no id", memory.ErrMirrorUnavailable)
	}
	return resp.ArweaveTxID, nil
}

type uploadListResponse struct {
	Data []uploadListItem `json:"data"`
}

type uploadListItem struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	ArweaveTxID string      `json:"arweave_tx_id"`
	Tags        []uploadTag `json:"tags"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Load returns the latest conversation snapshot for the wallet, or nil when
// the mirror has none.
func (c *Client) Load(ctx context.Context, walletAddress string) ([]*memory.Entry, error) {
	if err := c.login(ctx); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/uploads?page=1&limit=%d", c.cfg.PageLimit)
	var list uploadListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", memory.ErrMirrorUnavailable, err)
	}

	var latest *uploadListItem
	for i := range list.Data {
		item := &list.Data[i]
		if item.ArweaveTxID == "" || !hasTag(item.Tags, tagType, typeMemory) || !hasTag(item.Tags, tagUserID, walletAddress) {
			continue
		}
		if latest == nil || item.CreatedAt.After(latest.CreatedAt) {
			latest = item
		}
	}
	if latest == nil {
		return nil, nil
	}

	var body bytes.Buffer
	if err := c.download(ctx, latest.ID, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", memory.ErrMirrorUnavailable, err)
	}

	return decodeSnapshot(body.Bytes())
}

// decodeSnapshot parses a stored blob. Older uploads hold a single
// message/response pair instead of the entries array; both are accepted.
func decodeSnapshot(blob []byte) ([]*memory.Entry, error) {
	var snap snapshot
	if err := json.Unmarshal(blob, &snap); err == nil && len(snap.Entries) > 0 {
		entries := make([]*memory.Entry, len(snap.Entries))
		for i, item := range snap.Entries {
			entries[i] = &memory.Entry{
				ID:        item.ID,
				Role:      item.Role,
				Content:   item.Content,
				CreatedAt: item.CreatedAt,
			}
		}
		return entries, nil
	}

	var legacy struct {
		UserID   string `json:"user_id"`
		Message  string `json:"message"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(blob, &legacy); err != nil {
		return nil, fmt.Errorf("undecodable snapshot: %w", err)
	}
	if legacy.Message == "" && legacy.Response == "" {
		return nil, nil
	}
	return []*memory.Entry{
		{Role: memory.RoleUser, Content: legacy.Message},
		{Role: memory.RoleAssistant, Content: legacy.Response},
	}, nil
}

func hasTag(tags []uploadTag, name, value string) bool {
	for _, tag := range tags {
		if tag.Name == name && tag.Value == value {
			return true
		}
	}
	return false
}

func (c *Client) download(ctx context.Context, uploadID string, w io.Writer) error {
	path := fmt.Sprintf("/uploads/%s/download", url.PathEscape(uploadID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.cfg.GatewayURL, "/")+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned %d", resp.StatusCode)
	}
	_, err = io.Copy(w, io.LimitReader(resp.Body, 8<<20))
	return err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.GatewayURL, "/")+path, reader)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data[:min(len(data), 256)])))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
