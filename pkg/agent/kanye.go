package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// DefaultKanyeURL serves one quote per request
const DefaultKanyeURL = "https://api.kanye.rest"

const kanyeFallback = "Kanye is beyond words."

// KanyeClient fetches the easter-egg quote. Failures degrade to a fixed
// fallback line, never an error.
type KanyeClient struct {
	url        string
	httpClient *http.Client
}

// NewKanyeClient creates a quote client. An empty url uses the default API.
func NewKanyeClient(url string) *KanyeClient {
	if url == "" {
		url = DefaultKanyeURL
	}
	return &KanyeClient{
		url:        url,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Quote returns a quote, or the fallback when the API is unreachable
func (k *KanyeClient) Quote(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return kanyeFallback
	}

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return kanyeFallback
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return kanyeFallback
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return kanyeFallback
	}

	var parsed struct {
		Quote string `json:"quote"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Quote == "" {
		return kanyeFallback
	}
	return parsed.Quote
}
